package application

import (
	formdomain "productform/internal/form/domain"
	submissionapp "productform/internal/submission/application"
)

// FileResponse describes one selected file without its content
type FileResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// StateResponse is the full form and submission state
type StateResponse struct {
	Draft      formdomain.Draft    `json:"draft"`
	Files      []FileResponse      `json:"files"`
	Submission submissionapp.State `json:"submission"`
}

// DraftUpdateRequest maps field names to the raw text typed by the user
type DraftUpdateRequest map[string]string

// SubmissionAccepted is returned when a background submission starts
type SubmissionAccepted struct {
	Variant string `json:"variant"`
	Status  string `json:"status"`
}

// ErrorResponse represents an error in API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToFileResponse converts a selected file to an API response
func ToFileResponse(f formdomain.File) FileResponse {
	return FileResponse{
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size(),
	}
}
