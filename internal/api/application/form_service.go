package application

import (
	formdomain "productform/internal/form/domain"
	"productform/internal/shared/validation"
	submissionapp "productform/internal/submission/application"
	"productform/internal/submission/domain"
)

// FormService edits the shared form and triggers submissions
type FormService struct {
	form         *formdomain.Holder
	orchestrator *submissionapp.Orchestrator
}

// NewFormService creates a new form service
func NewFormService(form *formdomain.Holder, orchestrator *submissionapp.Orchestrator) *FormService {
	return &FormService{
		form:         form,
		orchestrator: orchestrator,
	}
}

// State returns the draft, the selected files and the submission state
func (s *FormService) State() StateResponse {
	files := s.form.Files()
	responses := make([]FileResponse, len(files))
	for i, f := range files {
		responses[i] = ToFileResponse(f)
	}

	return StateResponse{
		Draft:      s.form.Draft(),
		Files:      responses,
		Submission: s.orchestrator.State(),
	}
}

// UpdateDraft applies every field in req. Nothing is applied if any name is unknown.
func (s *FormService) UpdateDraft(req DraftUpdateRequest) error {
	problems := make(map[string]string)
	for name := range req {
		if !formdomain.IsField(name) {
			problems[name] = "unknown field"
		}
	}
	if len(problems) > 0 {
		return validation.NewValidationError(problems, "draft")
	}

	for _, name := range formdomain.Fields {
		if raw, ok := req[name]; ok {
			s.form.SetField(name, raw)
		}
	}
	return nil
}

// ReplaceFiles replaces the whole file selection
func (s *FormService) ReplaceFiles(files []formdomain.File) {
	s.form.SetFiles(files)
}

// StartSubmission starts a background submission with the named transport
func (s *FormService) StartSubmission(variant string) (SubmissionAccepted, error) {
	if err := s.orchestrator.Start(domain.Variant(variant)); err != nil {
		return SubmissionAccepted{}, err
	}
	return SubmissionAccepted{
		Variant: variant,
		Status:  s.orchestrator.State().Status,
	}, nil
}
