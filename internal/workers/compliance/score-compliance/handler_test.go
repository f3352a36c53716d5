package scorecompliance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidbuddy-workers/internal/common/database"
	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/events"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/compliance"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

// ==========================
// Fakes
// ==========================

type fakeLLM struct {
	text  string
	err   error
	calls int
}

func (f *fakeLLM) GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakePublisher struct {
	types []string
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.types = append(f.types, eventType)
	return nil
}

// ==========================
// Fixtures
// ==========================

var (
	fixedTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tenderCols = []string{"id", "title", "issuing_authority", "sector", "deadline", "estimated_value", "object_key",
		"raw_text", "extracted_data", "page_count", "status", "extraction_error", "created_at", "updated_at"}

	companyCols = []string{"id", "owner_id", "name", "registration_number", "pan", "gst", "annual_turnover", "net_worth",
		"years_in_operation", "certifications", "sectors", "past_projects", "max_single_project_value",
		"available_documents", "msme_category", "contact_email", "contact_phone", "created_at", "updated_at"}
)

const extractedJSON = `{
	"title": "Road Construction NH-48",
	"issuing_authority": "NHAI",
	"eligibility": {
		"min_turnover": 100,
		"years_experience": 5,
		"required_certifications": ["ISO 9001", "OHSAS 18001"],
		"msme_preference": true,
		"min_single_project_value": 25
	},
	"documents_required": ["PAN Card", "GST Certificate"]
}`

type fixture struct {
	mock      sqlmock.Sqlmock
	mr        *miniredis.Miniredis
	llm       *fakeLLM
	publisher *fakePublisher
	handler   *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := repository.NewStore(db, rdb, repository.CacheTTLs{Company: time.Hour})
	f := &fixture{
		mock:      mock,
		mr:        mr,
		llm:       &fakeLLM{text: "The company is well placed for this tender."},
		publisher: &fakePublisher{},
	}
	f.handler = NewHandler(LoadConfig(), store.Tenders, store.Companies, store.Reports, f.llm, f.publisher, logger.NewTestLogger(t))
	return f
}

func (f *fixture) expectTender(status string, extracted []byte) {
	f.mock.ExpectQuery("SELECT (.+) FROM tenders WHERE id = \\$1").
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(tenderCols).AddRow(
			"t-1", "Road Construction NH-48", "NHAI", "Infrastructure", "", nil, nil,
			"", extracted, 10, status, nil, fixedTime, fixedTime))
}

func (f *fixture) expectCompany() {
	f.mock.ExpectQuery("SELECT (.+) FROM company_profiles WHERE id = \\$1").
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(companyCols).AddRow(
			"c-1", "u-1", "Acme Infra", "REG1", "ABCDE1234F", "27ABCDE1234F1Z5", 120.0, 40.0,
			6, `{"ISO 9001"}`, "{Infrastructure}", []byte(`[{"name":"Bridge","value":30}]`), 0.0,
			`{"PAN Card","GST Registration Certificate"}`, "Micro", "ops@acme.in", "", fixedTime, fixedTime))
}

func (f *fixture) expectInsert(aiAnalysis interface{}) {
	f.mock.ExpectExec("INSERT INTO compliance_reports").
		WithArgs(sqlmock.AnyArg(), "t-1", "c-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), aiAnalysis, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func expectedResult() compliance.ScoringResult {
	return compliance.Score(
		compliance.TenderEligibility{
			MinTurnover:            100,
			YearsExperience:        5,
			RequiredCertifications: []string{"ISO 9001", "OHSAS 18001"},
			MSMEPreference:         true,
			MinSingleProjectValue:  25,
			RequiredDocuments:      []string{"PAN Card", "GST Certificate"},
		},
		compliance.CompanyProfile{
			AnnualTurnover:     120,
			YearsInOperation:   6,
			Certifications:     []string{"ISO 9001"},
			PastProjects:       []compliance.PastProject{{Name: "Bridge", Value: 30}},
			AvailableDocuments: []string{"PAN Card", "GST Registration Certificate"},
			MSMECategory:       "Micro",
		},
	)
}

func boolPtr(b bool) *bool { return &b }

// ==========================
// Execute
// ==========================

func TestExecute_ScoresAndPersistsReport(t *testing.T) {
	f := newFixture(t)
	f.expectTender("extracted", []byte(extractedJSON))
	f.expectCompany()
	f.expectInsert("The company is well placed for this tender.")

	out, err := f.handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1"})
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())

	want := expectedResult()
	assert.Equal(t, want.Score, out.Score)
	assert.Equal(t, want.Verdict, out.Verdict)
	assert.Len(t, out.Gaps, len(want.Gaps))
	assert.Equal(t, out.ID, out.ReportID)
	assert.NotEmpty(t, out.ReportID)
	assert.Equal(t, "The company is well placed for this tender.", out.AIAnalysis)
	assert.Equal(t, 1, f.llm.calls)
	assert.Equal(t, []string{events.TypeComplianceReportCreated}, f.publisher.types)

	// The profile is now cached under its well-known key.
	assert.True(t, f.mr.Exists(repository.CompanyCacheKey("c-1")))
}

func TestExecute_SkipsNarrativeWhenDisabled(t *testing.T) {
	f := newFixture(t)
	f.expectTender("extracted", []byte(extractedJSON))
	f.expectCompany()
	f.expectInsert("")

	out, err := f.handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1", IncludeAI: boolPtr(false)})
	require.NoError(t, err)
	assert.Empty(t, out.AIAnalysis)
	assert.Zero(t, f.llm.calls)
}

func TestExecute_NarrativeFailureDoesNotFailJob(t *testing.T) {
	f := newFixture(t)
	f.llm.err = errors.New("LLM_TIMEOUT")
	f.expectTender("extracted", []byte(extractedJSON))
	f.expectCompany()
	f.expectInsert("AI analysis failed: LLM_TIMEOUT")

	out, err := f.handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "AI analysis failed: LLM_TIMEOUT", out.AIAnalysis)
}

func TestExecute_UsesCachedCompany(t *testing.T) {
	f := newFixture(t)
	cached := &models.CompanyProfile{ID: "c-1", Name: "Acme Infra", AnnualTurnover: 500, YearsInOperation: 10}
	rdb := redis.NewClient(&redis.Options{Addr: f.mr.Addr()})
	require.NoError(t, database.SetJSON(context.Background(), rdb, repository.CompanyCacheKey("c-1"), cached, time.Hour))

	f.expectTender("extracted", []byte(extractedJSON))
	f.expectInsert(sqlmock.AnyArg())

	out, err := f.handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1"})
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, "c-1", out.CompanyID)
}

func TestExecute_PublishFailureStillCompletes(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker unavailable")
	f.expectTender("extracted", []byte(extractedJSON))
	f.expectCompany()
	f.expectInsert(sqlmock.AnyArg())

	_, err := f.handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1"})
	assert.NoError(t, err)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		setup    func(f *fixture)
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "missing ids",
			input:    &Input{TenderID: "t-1"},
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:  "tender not found",
			input: &Input{TenderID: "t-1", CompanyID: "c-1"},
			setup: func(f *fixture) {
				f.mock.ExpectQuery("SELECT (.+) FROM tenders").WillReturnError(sql.ErrNoRows)
			},
			wantCode: apperrors.ErrCodeTenderNotFound,
		},
		{
			name:  "tender not extracted",
			input: &Input{TenderID: "t-1", CompanyID: "c-1"},
			setup: func(f *fixture) {
				f.expectTender("pending", nil)
			},
			wantCode: apperrors.ErrCodeTenderNotExtracted,
		},
		{
			name:  "company not found",
			input: &Input{TenderID: "t-1", CompanyID: "c-1"},
			setup: func(f *fixture) {
				f.expectTender("extracted", []byte(extractedJSON))
				f.mock.ExpectQuery("SELECT (.+) FROM company_profiles").WillReturnError(sql.ErrNoRows)
			},
			wantCode: apperrors.ErrCodeCompanyNotFound,
		},
		{
			name:  "insert fails",
			input: &Input{TenderID: "t-1", CompanyID: "c-1"},
			setup: func(f *fixture) {
				f.expectTender("extracted", []byte(extractedJSON))
				f.expectCompany()
				f.mock.ExpectExec("INSERT INTO compliance_reports").WillReturnError(errors.New("disk full"))
			},
			wantCode: apperrors.ErrCodeDatabaseInsertFailed,
		},
		{
			name:  "database unreachable",
			input: &Input{TenderID: "t-1", CompanyID: "c-1"},
			setup: func(f *fixture) {
				f.mock.ExpectQuery("SELECT (.+) FROM tenders").WillReturnError(errors.New("connection refused"))
			},
			wantCode: apperrors.ErrCodeDatabaseConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.handler.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, toStandardError(tt.input, err).Code)
			assert.Empty(t, f.publisher.types)
		})
	}
}

func TestInput_WantsAIDefaultsToTrue(t *testing.T) {
	assert.True(t, (&Input{}).WantsAI())
	assert.True(t, (&Input{IncludeAI: boolPtr(true)}).WantsAI())
	assert.False(t, (&Input{IncludeAI: boolPtr(false)}).WantsAI())
}
