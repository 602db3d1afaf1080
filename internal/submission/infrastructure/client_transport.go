package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	formdomain "productform/internal/form/domain"
	"productform/internal/submission/domain"
)

// ClientTransport implements the domain Transport with a resty client
type ClientTransport struct {
	client *resty.Client
}

// NewClientTransport creates a resty based transport sharing httpClient's connection pool
func NewClientTransport(baseURL string, httpClient *http.Client) *ClientTransport {
	// resty installs its own redirect policy on the client it wraps
	var hc http.Client
	if httpClient != nil {
		hc = *httpClient
	}
	client := resty.NewWithClient(&hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")

	return &ClientTransport{client: client}
}

// CreateProduct performs POST /product
func (t *ClientTransport) CreateProduct(ctx context.Context, draft formdomain.Draft) (domain.CreatedProduct, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(domain.NewCreateProductPayload(draft)).
		Post(domain.ProductPath)
	if err := checkResponse(domain.StepCreate, resp, err); err != nil {
		return domain.CreatedProduct{}, err
	}

	created, err := domain.ParseCreatedProduct(resp.Body())
	if err != nil {
		return domain.CreatedProduct{}, &domain.DecodeError{Step: domain.StepCreate, Variant: domain.VariantClient, Err: err}
	}
	return created, nil
}

// UploadImages performs POST /upload/image with a multipart body
func (t *ClientTransport) UploadImages(ctx context.Context, files []formdomain.File) (domain.ImageRefs, error) {
	fields := make([]*resty.MultipartField, 0, len(files))
	for _, f := range files {
		fields = append(fields, &resty.MultipartField{
			Param:       domain.UploadFieldName,
			FileName:    f.Name,
			ContentType: contentType(f),
			Reader:      bytes.NewReader(f.Data),
		})
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetMultipartFields(fields...).
		Post(domain.UploadImagePath)
	if err := checkResponse(domain.StepUpload, resp, err); err != nil {
		return nil, err
	}

	refs, err := domain.ParseImageRefs(resp.Body())
	if err != nil {
		return nil, &domain.DecodeError{Step: domain.StepUpload, Variant: domain.VariantClient, Err: err}
	}
	return refs, nil
}

// PatchProductImages performs PATCH /product/{id}
func (t *ClientTransport) PatchProductImages(ctx context.Context, productID string, refs domain.ImageRefs) (json.RawMessage, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", productID).
		SetBody(domain.PatchImagesPayload{Images: refs}).
		Patch(domain.ProductPath + "/{id}")
	if err := checkResponse(domain.StepPatch, resp, err); err != nil {
		return nil, err
	}

	updated, err := domain.ParseUpdated(resp.Body())
	if err != nil {
		return nil, &domain.DecodeError{Step: domain.StepPatch, Variant: domain.VariantClient, Err: err}
	}
	return updated, nil
}

func checkResponse(step domain.Step, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return domain.NewTransportError(step, domain.VariantClient, resp.StatusCode())
	}
	return nil
}
