package domain

import (
	"context"
	"encoding/json"

	formdomain "productform/internal/form/domain"
)

// DefaultBaseURL is the backend every transport talks to unless overridden
const DefaultBaseURL = "https://x8ki-letl-twmt.n7.xano.io/api:3Xncgo9I"

// Remote endpoint paths, relative to the base URL
const (
	ProductPath     = "/product"
	UploadImagePath = "/upload/image"
	// UploadFieldName is the repeated multipart field carrying each file
	UploadFieldName = "content[]"
)

// Transport performs the three remote operations of a submission.
// Implementations differ only in call style and must behave identically.
type Transport interface {
	// CreateProduct sends the draft with an empty image list and returns the created record
	CreateProduct(ctx context.Context, draft formdomain.Draft) (CreatedProduct, error)
	// UploadImages sends every file under UploadFieldName and returns the stored image references
	UploadImages(ctx context.Context, files []formdomain.File) (ImageRefs, error)
	// PatchProductImages attaches refs to the product and returns the updated record
	PatchProductImages(ctx context.Context, productID string, refs ImageRefs) (json.RawMessage, error)
}

// CreateProductPayload is the body of the create request
type CreateProductPayload struct {
	formdomain.Draft
	Images []json.RawMessage
}

// MarshalJSON flattens the draft fields next to the images list
func (p CreateProductPayload) MarshalJSON() ([]byte, error) {
	fields, err := json.Marshal(p.Draft)
	if err != nil {
		return nil, err
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(fields, &body); err != nil {
		return nil, err
	}

	images := p.Images
	if images == nil {
		images = []json.RawMessage{}
	}
	body["images"], err = json.Marshal(images)
	if err != nil {
		return nil, err
	}

	return json.Marshal(body)
}

// NewCreateProductPayload builds a create body with an explicit empty image list
func NewCreateProductPayload(draft formdomain.Draft) CreateProductPayload {
	return CreateProductPayload{Draft: draft, Images: []json.RawMessage{}}
}

// PatchImagesPayload is the body of the patch request
type PatchImagesPayload struct {
	Images ImageRefs `json:"images"`
}
