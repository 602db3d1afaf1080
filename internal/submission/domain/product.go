package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingProductID is returned when a create response carries no usable id
var ErrMissingProductID = errors.New("create response has no id")

// CreatedProduct is the server record returned by the create step
type CreatedProduct struct {
	// ID is the server identifier as text: numbers keep their JSON spelling, strings are unquoted
	ID  string
	Raw json.RawMessage
}

// ParseCreatedProduct decodes a create response body
func ParseCreatedProduct(body []byte) (CreatedProduct, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return CreatedProduct{}, err
	}
	if fields == nil {
		return CreatedProduct{}, ErrMissingProductID
	}

	rawID, ok := fields["id"]
	if !ok {
		return CreatedProduct{}, ErrMissingProductID
	}

	id, err := idText(rawID)
	if err != nil {
		return CreatedProduct{}, err
	}

	return CreatedProduct{ID: id, Raw: json.RawMessage(bytes.TrimSpace(body))}, nil
}

func idText(raw json.RawMessage) (string, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	switch id := v.(type) {
	case json.Number:
		return id.String(), nil
	case string:
		if id == "" {
			return "", ErrMissingProductID
		}
		return id, nil
	case nil:
		return "", ErrMissingProductID
	default:
		return "", fmt.Errorf("%w: unsupported id %s", ErrMissingProductID, raw)
	}
}

// MarshalJSON writes the record exactly as the server returned it
func (p CreatedProduct) MarshalJSON() ([]byte, error) {
	if len(p.Raw) == 0 {
		return json.Marshal(map[string]string{"id": p.ID})
	}
	return p.Raw, nil
}

// UnmarshalJSON reads a record written by MarshalJSON
func (p *CreatedProduct) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	parsed, err := ParseCreatedProduct(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ImageRefs is the ordered list of server-side image references from the upload step
type ImageRefs []json.RawMessage

// ParseImageRefs decodes an upload response body, which must be a JSON array
func ParseImageRefs(body []byte) (ImageRefs, error) {
	var refs ImageRefs
	if err := json.Unmarshal(body, &refs); err != nil {
		return nil, err
	}
	if refs == nil {
		return nil, errors.New("upload response is not an array")
	}
	return refs, nil
}

// ParseUpdated checks that a patch response body is valid JSON and returns it
func ParseUpdated(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, errors.New("patch response is not valid JSON")
	}
	return json.RawMessage(trimmed), nil
}
