package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Variant selects the call style of the transport
type Variant string

const (
	VariantFetch  Variant = "fetch"
	VariantClient Variant = "client"
)

// Variants lists the supported call styles
var Variants = []Variant{VariantFetch, VariantClient}

// Valid reports whether v names a supported call style
func (v Variant) Valid() bool {
	for _, known := range Variants {
		if v == known {
			return true
		}
	}
	return false
}

// Guard errors returned when a submission cannot start
var (
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrNoFiles              = errors.New("no files selected")
	ErrUnknownVariant       = errors.New("unknown transport variant")
)

// Result holds the three intermediate results of a completed submission
type Result struct {
	Created        CreatedProduct  `json:"created"`
	UploadedImages ImageRefs       `json:"uploadedImages"`
	Updated        json.RawMessage `json:"updated"`
}

// Record is the persisted summary of one submission attempt
type Record struct {
	ID          string
	Variant     Variant
	StartedAt   time.Time
	FinishedAt  time.Time
	ProductID   *string
	StepReached int
	ImageCount  int
	Status      string
	Error       *string
	Orphaned    bool
}

// Successful reports whether all three steps completed
func (r Record) Successful() bool {
	return r.Error == nil && r.StepReached == int(StepPatch)
}

// RecordFilters contains optional filters for listing records
type RecordFilters struct {
	Orphaned *bool
	Limit    int
	Offset   int
}

// Repository defines the interface for submission history persistence
type Repository interface {
	InsertRecord(ctx context.Context, record Record) error
	ListRecords(ctx context.Context, filters RecordFilters) ([]Record, error)
}
