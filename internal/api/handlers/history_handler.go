package handlers

import (
	"net/http"
	"strconv"

	submissionapp "productform/internal/submission/application"
)

// HistoryHandler handles submission history queries
type HistoryHandler struct {
	service *submissionapp.HistoryService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service *submissionapp.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		service: service,
	}
}

// ListSubmissions handles GET /api/v1/submissions
func (h *HistoryHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	req := submissionapp.ListRecordsRequest{}

	// Parse query parameters
	if orphanedStr := r.URL.Query().Get("orphaned"); orphanedStr != "" {
		if orphaned, err := strconv.ParseBool(orphanedStr); err == nil {
			req.Orphaned = &orphaned
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			req.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			req.Offset = offset
		}
	}

	records, err := h.service.ListRecords(r.Context(), req)
	if err != nil {
		logger.Error("Failed to list submissions", "err", err, "filters", req)
		respondJSONError(w, http.StatusInternalServerError, "Failed to list submissions: "+err.Error())
		return
	}

	logger.Debug("Listed submissions", "count", len(records))
	respondJSON(w, http.StatusOK, records)
}
