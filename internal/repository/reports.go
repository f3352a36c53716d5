package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bidbuddy-workers/internal/compliance"
	"bidbuddy-workers/internal/models"
)

const (
	DefaultReportLimit = 20
	MaxReportLimit     = 100
)

// ReportFilter selects compliance reports. Zero values mean "any".
type ReportFilter struct {
	TenderID  string
	CompanyID string
	Skip      int
	Limit     int
}

// Normalize applies the paging defaults: skip >= 0, limit in 1..100 (20 when unset).
func (f ReportFilter) Normalize() ReportFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultReportLimit
	}
	if f.Limit > MaxReportLimit {
		f.Limit = MaxReportLimit
	}
	return f
}

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *models.ComplianceReport) error {
	gaps, err := json.Marshal(rep.Gaps)
	if err != nil {
		return fmt.Errorf("encode gaps: %w", err)
	}
	met, err := json.Marshal(rep.MetCriteria)
	if err != nil {
		return fmt.Errorf("encode met criteria: %w", err)
	}
	recs, err := json.Marshal(rep.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	breakdown, err := json.Marshal(rep.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO compliance_reports (id, tender_id, company_id, score, verdict, gaps, met_criteria,
			recommendations, breakdown, msme_bonus, ai_analysis, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rep.ID, rep.TenderID, rep.CompanyID, rep.Score, string(rep.Verdict), gaps, met,
		recs, breakdown, rep.MSMEBonus, rep.AIAnalysis, rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert compliance report: %w", err)
	}
	return nil
}

const reportColumns = `id, tender_id, company_id, score, verdict, gaps, met_criteria, recommendations,
	breakdown, msme_bonus, ai_analysis, created_at`

func (r *ReportRepository) Get(ctx context.Context, id string) (*models.ComplianceReport, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM compliance_reports WHERE id = $1`, id)
	rep, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get compliance report %s: %w", id, err)
	}
	return rep, nil
}

// List returns reports newest first.
func (r *ReportRepository) List(ctx context.Context, f ReportFilter) ([]models.ComplianceReport, error) {
	f = f.Normalize()

	var (
		where []string
		args  []interface{}
	)
	if f.TenderID != "" {
		args = append(args, f.TenderID)
		where = append(where, fmt.Sprintf("tender_id = $%d", len(args)))
	}
	if f.CompanyID != "" {
		args = append(args, f.CompanyID)
		where = append(where, fmt.Sprintf("company_id = $%d", len(args)))
	}

	query := `SELECT ` + reportColumns + ` FROM compliance_reports`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Skip)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list compliance reports: %w", err)
	}
	defer rows.Close()

	out := []models.ComplianceReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compliance report: %w", err)
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(s rowScanner) (*models.ComplianceReport, error) {
	var (
		rep                        models.ComplianceReport
		verdict                    string
		gaps, met, recs, breakdown []byte
		createdAt                  time.Time
	)
	if err := s.Scan(&rep.ID, &rep.TenderID, &rep.CompanyID, &rep.Score, &verdict, &gaps, &met, &recs,
		&breakdown, &rep.MSMEBonus, &rep.AIAnalysis, &createdAt); err != nil {
		return nil, err
	}
	rep.Verdict = compliance.Verdict(verdict)
	rep.CreatedAt = formatTime(createdAt)

	for _, f := range []struct {
		raw []byte
		dst interface{}
	}{
		{gaps, &rep.Gaps},
		{met, &rep.MetCriteria},
		{recs, &rep.Recommendations},
		{breakdown, &rep.Breakdown},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	return &rep, nil
}
