package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bidbuddy-workers/internal/models"
)

type TenderRepository struct {
	db *sql.DB
}

func NewTenderRepository(db *sql.DB) *TenderRepository {
	return &TenderRepository{db: db}
}

const tenderColumns = `id, title, issuing_authority, sector, deadline, estimated_value, object_key,
	raw_text, extracted_data, page_count, status, extraction_error, created_at, updated_at`

func (r *TenderRepository) Get(ctx context.Context, id string) (*models.Tender, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenderColumns+` FROM tenders WHERE id = $1`, id)

	var (
		t              models.Tender
		estimatedValue sql.NullFloat64
		objectKey      sql.NullString
		extracted      []byte
		status         string
		extractionErr  sql.NullString
		createdAt      time.Time
		updatedAt      time.Time
	)
	err := row.Scan(&t.ID, &t.Title, &t.IssuingAuthority, &t.Sector, &t.Deadline, &estimatedValue, &objectKey,
		&t.RawText, &extracted, &t.PageCount, &status, &extractionErr, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tender %s: %w", id, err)
	}

	if estimatedValue.Valid {
		v := estimatedValue.Float64
		t.EstimatedValue = &v
	}
	t.ObjectKey = objectKey.String
	t.Status = models.TenderStatus(status)
	t.ExtractionError = extractionErr.String
	t.CreatedAt = formatTime(createdAt)
	t.UpdatedAt = formatTime(updatedAt)

	if len(extracted) > 0 {
		var et models.ExtractedTender
		if err := json.Unmarshal(extracted, &et); err != nil {
			return nil, fmt.Errorf("decode extracted data of tender %s: %w", id, err)
		}
		t.ExtractedData = &et
	}
	return &t, nil
}

// Create inserts a pending tender awaiting extraction.
func (r *TenderRepository) Create(ctx context.Context, t *models.Tender) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenders (id, title, object_key, raw_text, status, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NOW(), NOW())`,
		t.ID, t.Title, t.ObjectKey, t.RawText, string(models.TenderStatusPending))
	if err != nil {
		return fmt.Errorf("create tender %s: %w", t.ID, err)
	}
	return nil
}

// SaveExtraction stores the outcome of a successful extraction.
func (r *TenderRepository) SaveExtraction(ctx context.Context, t *models.Tender) error {
	data, err := json.Marshal(t.ExtractedData)
	if err != nil {
		return fmt.Errorf("encode extracted data: %w", err)
	}

	var estimated interface{}
	if t.EstimatedValue != nil {
		estimated = *t.EstimatedValue
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE tenders
		SET title = $2, issuing_authority = $3, sector = $4, deadline = $5, estimated_value = $6,
		    raw_text = $7, extracted_data = $8, page_count = $9, status = $10,
		    extraction_error = NULL, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Title, t.IssuingAuthority, t.Sector, t.Deadline, estimated,
		t.RawText, data, t.PageCount, string(models.TenderStatusExtracted))
	if err != nil {
		return fmt.Errorf("save extraction of tender %s: %w", t.ID, err)
	}
	return expectOneRow(res)
}

// MarkFailed records why extraction failed.
func (r *TenderRepository) MarkFailed(ctx context.Context, id, reason string, pageCount int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tenders SET status = $2, extraction_error = $3, page_count = $4, updated_at = NOW()
		WHERE id = $1`,
		id, string(models.TenderStatusFailed), reason, pageCount)
	if err != nil {
		return fmt.Errorf("mark tender %s failed: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
