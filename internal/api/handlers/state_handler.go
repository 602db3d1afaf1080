package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	api "productform/internal/api/application"
	"productform/internal/shared/validation"
	"productform/internal/submission/domain"
)

// StateHandler exposes the form and submission state as JSON
type StateHandler struct {
	service *api.FormService
}

// NewStateHandler creates a new state handler
func NewStateHandler(service *api.FormService) *StateHandler {
	return &StateHandler{
		service: service,
	}
}

// GetState handles GET /api/v1/state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.State())
}

// PatchDraft handles PATCH /api/v1/draft
func (h *StateHandler) PatchDraft(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	var req api.DraftUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid draft body", "err", err)
		respondJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := h.service.UpdateDraft(req); err != nil {
		var valErr *validation.ValidationError
		if errors.As(err, &valErr) {
			respondJSON(w, http.StatusBadRequest, valErr.Problems)
			return
		}
		logger.Error("Failed to update draft", "err", err)
		respondJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.service.State())
}

// PutFiles handles PUT /api/v1/files
func (h *StateHandler) PutFiles(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	files, err := readFiles(r, "files")
	if err != nil {
		logger.Warn("Failed to read files", "err", err)
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.service.ReplaceFiles(files)

	logger.Debug("Files selected", "count", len(files))
	respondJSON(w, http.StatusOK, h.service.State())
}

// StartSubmission handles POST /api/v1/submissions/{variant}
func (h *StateHandler) StartSubmission(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)
	variant := chi.URLParam(r, "variant")

	accepted, err := h.service.StartSubmission(variant)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownVariant):
			respondJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrSubmissionInProgress), errors.Is(err, domain.ErrNoFiles):
			logger.Debug("Submission rejected", "variant", variant, "err", err)
			respondJSONError(w, http.StatusConflict, err.Error())
		default:
			logger.Error("Failed to start submission", "variant", variant, "err", err)
			respondJSONError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Info("Submission started", "variant", variant)
	respondJSON(w, http.StatusAccepted, accepted)
}
