package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/database"
	"bidbuddy-workers/internal/models"
)

type DraftRepository struct {
	db *sql.DB
}

func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// CreateNextVersion numbers the draft after the existing drafts of the same
// tender and company, then inserts it. The unique (tender, company, version)
// constraint rejects a concurrent writer that picked the same number.
func (r *DraftRepository) CreateNextVersion(ctx context.Context, d *models.BidDraft) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bid_drafts WHERE tender_id = $1 AND company_id = $2`,
			d.TenderID, d.CompanyID).Scan(&existing); err != nil {
			return fmt.Errorf("count bid drafts: %w", err)
		}
		d.Version = existing + 1

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bid_drafts (id, tender_id, company_id, version, content, additional_context, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			d.ID, d.TenderID, d.CompanyID, d.Version, d.Content, d.AdditionalContext, d.CreatedAt); err != nil {
			return fmt.Errorf("insert bid draft: %w", err)
		}
		return nil
	})
}

// List returns drafts for a tender and company, newest version first.
func (r *DraftRepository) List(ctx context.Context, tenderID, companyID string) ([]models.BidDraft, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tender_id, company_id, version, content, additional_context, created_at
		FROM bid_drafts WHERE tender_id = $1 AND company_id = $2
		ORDER BY version DESC`, tenderID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list bid drafts: %w", err)
	}
	defer rows.Close()

	out := []models.BidDraft{}
	for rows.Next() {
		var d models.BidDraft
		var createdAt time.Time
		if err := rows.Scan(&d.ID, &d.TenderID, &d.CompanyID, &d.Version, &d.Content, &d.AdditionalContext, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bid draft: %w", err)
		}
		d.CreatedAt = formatTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}
