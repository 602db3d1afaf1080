package application

import (
	"context"
	"time"

	"productform/internal/submission/domain"
)

// RecordResponse represents a submission record in API and CLI output
type RecordResponse struct {
	ID          string    `json:"id"`
	Variant     string    `json:"variant"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	ProductID   *string   `json:"product_id,omitempty"`
	StepReached int       `json:"step_reached"`
	ImageCount  int       `json:"image_count"`
	Status      string    `json:"status"`
	Error       *string   `json:"error,omitempty"`
	Orphaned    bool      `json:"orphaned"`
}

// ToRecordResponse converts a domain record to its response form
func ToRecordResponse(r domain.Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID,
		Variant:     string(r.Variant),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		ProductID:   r.ProductID,
		StepReached: r.StepReached,
		ImageCount:  r.ImageCount,
		Status:      r.Status,
		Error:       r.Error,
		Orphaned:    r.Orphaned,
	}
}

// ListRecordsRequest represents query parameters for listing submissions
type ListRecordsRequest struct {
	Orphaned *bool `json:"orphaned,omitempty"`
	Limit    int   `json:"limit,omitempty"`
	Offset   int   `json:"offset,omitempty"`
}

// HistoryService handles submission history queries
type HistoryService struct {
	repo domain.Repository
}

// NewHistoryService creates a new history service
func NewHistoryService(repo domain.Repository) *HistoryService {
	return &HistoryService{
		repo: repo,
	}
}

// ListRecords returns submissions matching the filters, newest first
func (s *HistoryService) ListRecords(ctx context.Context, req ListRecordsRequest) ([]RecordResponse, error) {
	filters := domain.RecordFilters{
		Orphaned: req.Orphaned,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}

	if filters.Limit <= 0 {
		filters.Limit = 100
	}

	records, err := s.repo.ListRecords(ctx, filters)
	if err != nil {
		return nil, err
	}

	responses := make([]RecordResponse, len(records))
	for i, r := range records {
		responses[i] = ToRecordResponse(r)
	}

	return responses, nil
}
