package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := repository.NewStore(db, nil, repository.CacheTTLs{})
	return NewHandler(createTestConfig(), store, createTestLogger(t)), mock
}

var created = time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "tender details",
			input: &Input{QueryType: string(models.QueryTypeTenderDetails), TenderID: "tender-1"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "title", "issuing_authority", "sector", "deadline", "estimated_value", "object_key",
					"raw_text", "extracted_data", "page_count", "status", "extraction_error", "created_at", "updated_at",
				}).AddRow("tender-1", "Supply of Desktops", "NIC", "IT", "15-04-2026", 85.0, "tenders/tender-1.pdf",
					"text", []byte(`{"title":"Supply of Desktops"}`), 22, "extracted", nil, created, created)
				mock.ExpectQuery(`SELECT (.+) FROM tenders WHERE id = \$1`).
					WithArgs("tender-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				tender := output.Data.(*models.Tender)
				assert.Equal(t, "Supply of Desktops", tender.Title)
				assert.Equal(t, 22, tender.PageCount)
			},
		},
		{
			name:  "compliance reports with default paging",
			input: &Input{QueryType: string(models.QueryTypeComplianceReports), CompanyID: "company-1"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "tender_id", "company_id", "score", "verdict", "gaps", "met_criteria",
					"recommendations", "breakdown", "msme_bonus", "ai_analysis", "created_at",
				}).
					AddRow("r-2", "tender-2", "company-1", 91.0, "ELIGIBLE", []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`{}`), 0.0, "", created).
					AddRow("r-1", "tender-1", "company-1", 44.0, "CONDITIONALLY INELIGIBLE", []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`{}`), 0.0, "", created)
				mock.ExpectQuery(`FROM compliance_reports WHERE company_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
					WithArgs("company-1", 20, 0).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				reports := output.Data.([]models.ComplianceReport)
				assert.Equal(t, "r-2", reports[0].ID)
			},
		},
		{
			name:  "bid drafts newest first",
			input: &Input{QueryType: string(models.QueryTypeBidDrafts), TenderID: "tender-1", CompanyID: "company-1"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "tender_id", "company_id", "version", "content", "additional_context", "created_at"}).
					AddRow("d-2", "tender-1", "company-1", 2, "# v2", "", created)
				mock.ExpectQuery(`FROM bid_drafts WHERE tender_id = \$1 AND company_id = \$2`).
					WithArgs("tender-1", "company-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				assert.Equal(t, 2, output.Data.([]models.BidDraft)[0].Version)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)
			tt.mockQuery(mock)

			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))
			assert.NoError(t, mock.ExpectationsWereMet())
			tt.validateOutput(t, output)
		})
	}
}

// ==========================
// Error Mapping Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		mockQuery    func(mock sqlmock.Sqlmock)
		expectedErr  error
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "unknown query type",
			input:        &Input{QueryType: "auction_details"},
			expectedErr:  ErrInvalidQueryType,
			expectedCode: apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:         "missing report id",
			input:        &Input{QueryType: string(models.QueryTypeComplianceReport)},
			expectedErr:  ErrQueryExecutionFailed,
			expectedCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:  "report not found",
			input: &Input{QueryType: string(models.QueryTypeComplianceReport), ReportID: "r-404"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM compliance_reports WHERE id = \$1`).
					WithArgs("r-404").
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr:  ErrRecordNotFound,
			expectedCode: apperrors.ErrCodeReportNotFound,
		},
		{
			name:  "company not found",
			input: &Input{QueryType: string(models.QueryTypeCompanyProfile), CompanyID: "c-404"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM company_profiles WHERE id = \$1`).
					WithArgs("c-404").
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr:  ErrRecordNotFound,
			expectedCode: apperrors.ErrCodeCompanyNotFound,
		},
		{
			name:  "database error",
			input: &Input{QueryType: string(models.QueryTypeTenderDetails), TenderID: "tender-1"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM tenders WHERE id = \$1`).
					WillReturnError(errors.New("connection reset"))
			},
			expectedErr:  ErrQueryExecutionFailed,
			expectedCode: apperrors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)
			if tt.mockQuery != nil {
				tt.mockQuery(mock)
			}

			output, err := handler.Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expectedCode, toStandardError(tt.input, err).Code)
		})
	}
}

func TestHandler_Execute_Timeout(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectQuery(`FROM tenders WHERE id = \$1`).
		WithArgs("tender-1").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tender-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	output, err := handler.Execute(ctx, &Input{QueryType: string(models.QueryTypeTenderDetails), TenderID: "tender-1"})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrQueryTimeout)
	assert.Equal(t, apperrors.ErrCodeQueryTimeout, toStandardError(&Input{QueryType: "tender_details"}, err).Code)
}
