package domain

import (
	"encoding/json"
	"math"
)

// Field names accepted by SetField
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldStock       = "stock"
	FieldBrand       = "brand"
	FieldCategory    = "category"
)

// Fields lists the draft fields in form order
var Fields = []string{FieldName, FieldDescription, FieldPrice, FieldStock, FieldBrand, FieldCategory}

// Draft is the in-progress, not yet submitted product attribute set
type Draft struct {
	Name        string
	Description string
	Price       float64
	Stock       float64
	Brand       string
	Category    string
}

// DefaultDraft returns the placeholder values the form starts with
func DefaultDraft() Draft {
	return Draft{
		Name:        "Producto nuevo",
		Description: "Descripción del nuevo producto",
		Price:       1500,
		Stock:       200,
		Brand:       "Marca nueva",
		Category:    "Categoria nueva",
	}
}

// IsField reports whether name is one of the draft fields
func IsField(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

// With returns a copy of the draft with one field replaced.
// Numeric fields are coerced with CoerceNumber; unknown names return the draft unchanged.
func (d Draft) With(name, raw string) Draft {
	switch name {
	case FieldName:
		d.Name = raw
	case FieldDescription:
		d.Description = raw
	case FieldPrice:
		d.Price = CoerceNumber(raw)
	case FieldStock:
		d.Stock = CoerceNumber(raw)
	case FieldBrand:
		d.Brand = raw
	case FieldCategory:
		d.Category = raw
	}
	return d
}

// Value returns the field as it is displayed in the form
func (d Draft) Value(name string) string {
	switch name {
	case FieldName:
		return d.Name
	case FieldDescription:
		return d.Description
	case FieldPrice:
		return FormatNumber(d.Price)
	case FieldStock:
		return FormatNumber(d.Stock)
	case FieldBrand:
		return d.Brand
	case FieldCategory:
		return d.Category
	}
	return ""
}

type draftJSON struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *float64 `json:"stock"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
}

// MarshalJSON writes NaN and infinite numbers as null
func (d Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(draftJSON{
		Name:        d.Name,
		Description: d.Description,
		Price:       finite(d.Price),
		Stock:       finite(d.Stock),
		Brand:       d.Brand,
		Category:    d.Category,
	})
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
