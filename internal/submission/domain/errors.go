package domain

import (
	"errors"
	"fmt"
)

// Step identifies one of the three remote calls
type Step int

const (
	StepCreate Step = iota + 1
	StepUpload
	StepPatch
)

func (s Step) String() string {
	switch s {
	case StepCreate:
		return "create"
	case StepUpload:
		return "upload"
	case StepPatch:
		return "patch"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Description is the human readable failure prefix for the step
func (s Step) Description() string {
	switch s {
	case StepCreate:
		return "error creating product"
	case StepUpload:
		return "error uploading images"
	case StepPatch:
		return "error updating product images"
	}
	return "error in " + s.String()
}

// TransportError is returned when a remote call answers with a non-success status
type TransportError struct {
	Step       Step
	Variant    Variant
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s (%s): %d", e.Step.Description(), e.Variant, e.StatusCode)
}

// NewTransportError creates a transport error for a failed step
func NewTransportError(step Step, variant Variant, statusCode int) *TransportError {
	return &TransportError{Step: step, Variant: variant, StatusCode: statusCode}
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a TransportError
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// DecodeError is returned when a success response body cannot be decoded
type DecodeError struct {
	Step    Step
	Variant Variant
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s (%s): invalid response: %v", e.Step.Description(), e.Variant, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
