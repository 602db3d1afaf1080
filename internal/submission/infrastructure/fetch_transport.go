package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	formdomain "productform/internal/form/domain"
	"productform/internal/submission/domain"
)

// FetchTransport implements the domain Transport with plain net/http requests
type FetchTransport struct {
	baseURL string
	client  *http.Client
}

// NewFetchTransport creates a net/http based transport
func NewFetchTransport(baseURL string, client *http.Client) *FetchTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &FetchTransport{
		baseURL: baseURL,
		client:  client,
	}
}

// CreateProduct performs POST /product
func (t *FetchTransport) CreateProduct(ctx context.Context, draft formdomain.Draft) (domain.CreatedProduct, error) {
	body, err := json.Marshal(domain.NewCreateProductPayload(draft))
	if err != nil {
		return domain.CreatedProduct{}, fmt.Errorf("failed to encode product: %w", err)
	}

	respBody, err := t.do(ctx, domain.StepCreate, http.MethodPost, productURL(t.baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		return domain.CreatedProduct{}, err
	}

	created, err := domain.ParseCreatedProduct(respBody)
	if err != nil {
		return domain.CreatedProduct{}, &domain.DecodeError{Step: domain.StepCreate, Variant: domain.VariantFetch, Err: err}
	}
	return created, nil
}

// UploadImages performs POST /upload/image with a multipart body
func (t *FetchTransport) UploadImages(ctx context.Context, files []formdomain.File) (domain.ImageRefs, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", multipartDisposition(domain.UploadFieldName, f.Name))
		h.Set("Content-Type", contentType(f))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create part for %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write part for %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	respBody, err := t.do(ctx, domain.StepUpload, http.MethodPost, uploadURL(t.baseURL), w.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	refs, err := domain.ParseImageRefs(respBody)
	if err != nil {
		return nil, &domain.DecodeError{Step: domain.StepUpload, Variant: domain.VariantFetch, Err: err}
	}
	return refs, nil
}

// PatchProductImages performs PATCH /product/{id}
func (t *FetchTransport) PatchProductImages(ctx context.Context, productID string, refs domain.ImageRefs) (json.RawMessage, error) {
	body, err := json.Marshal(domain.PatchImagesPayload{Images: refs})
	if err != nil {
		return nil, fmt.Errorf("failed to encode images: %w", err)
	}

	respBody, err := t.do(ctx, domain.StepPatch, http.MethodPatch, productByIDURL(t.baseURL, productID), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	updated, err := domain.ParseUpdated(respBody)
	if err != nil {
		return nil, &domain.DecodeError{Step: domain.StepPatch, Variant: domain.VariantFetch, Err: err}
	}
	return updated, nil
}

func (t *FetchTransport) do(ctx context.Context, step domain.Step, method, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Default: check for 200-299 range
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, domain.NewTransportError(step, domain.VariantFetch, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return respBody, nil
}
