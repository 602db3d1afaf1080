package infrastructure

import (
	"context"
	"database/sql"

	"productform/internal/submission/domain"
)

// Repository implements the submission history repository using SQLite
type Repository struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// NewRepository creates a new SQLite submission repository
func NewRepository(readDB *sql.DB, writeDB *sql.DB) *Repository {
	return &Repository{
		readDB:  readDB,
		writeDB: writeDB,
	}
}

const insertRecord = `insert into submissions
	(id, variant, started_at, finished_at, product_id, step_reached, image_count, status, error, orphaned)
values (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10)`

// InsertRecord stores one submission attempt
func (r *Repository) InsertRecord(ctx context.Context, record domain.Record) error {
	var productID sql.NullString
	if record.ProductID != nil {
		productID.String = *record.ProductID
		productID.Valid = true
	}

	var errMsg sql.NullString
	if record.Error != nil {
		errMsg.String = *record.Error
		errMsg.Valid = true
	}

	_, err := r.writeDB.ExecContext(ctx, insertRecord,
		record.ID,
		string(record.Variant),
		record.StartedAt.UTC(),
		record.FinishedAt.UTC(),
		productID,
		record.StepReached,
		record.ImageCount,
		record.Status,
		errMsg,
		record.Orphaned,
	)
	return err
}

const listRecords = `select id, variant, started_at, finished_at, product_id, step_reached, image_count, status, error, orphaned
from submissions
where (orphaned = ?1 or ?1 is null)
order by started_at desc
limit ?2 offset ?3`

// ListRecords returns the most recent attempts first
func (r *Repository) ListRecords(ctx context.Context, filters domain.RecordFilters) ([]domain.Record, error) {
	limit := int64(100)
	if filters.Limit > 0 {
		limit = int64(filters.Limit)
	}
	offset := int64(filters.Offset)

	var orphaned sql.NullBool
	if filters.Orphaned != nil {
		orphaned.Bool = *filters.Orphaned
		orphaned.Valid = true
	}

	rows, err := r.readDB.QueryContext(ctx, listRecords, orphaned, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var (
			rec       domain.Record
			variant   string
			productID sql.NullString
			errMsg    sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&variant,
			&rec.StartedAt,
			&rec.FinishedAt,
			&productID,
			&rec.StepReached,
			&rec.ImageCount,
			&rec.Status,
			&errMsg,
			&rec.Orphaned,
		); err != nil {
			return nil, err
		}

		rec.Variant = domain.Variant(variant)
		if productID.Valid {
			rec.ProductID = &productID.String
		}
		if errMsg.Valid {
			rec.Error = &errMsg.String
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
