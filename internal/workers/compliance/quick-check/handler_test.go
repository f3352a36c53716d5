package quickcheck

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/compliance"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

// ==========================
// Fakes
// ==========================

type fakeTenders struct {
	tender *models.Tender
	err    error
	calls  int
}

func (f *fakeTenders) Get(ctx context.Context, id string) (*models.Tender, error) {
	f.calls++
	return f.tender, f.err
}

type fakeCompanies struct {
	company *models.CompanyProfile
	err     error
}

func (f *fakeCompanies) Get(ctx context.Context, id string) (*models.CompanyProfile, error) {
	return f.company, f.err
}

// ==========================
// Test Helpers
// ==========================

func extractedTender() *models.Tender {
	return &models.Tender{
		ID:     "t-1",
		Status: models.TenderStatusExtracted,
		ExtractedData: &models.ExtractedTender{
			Title: "Hospital Equipment Supply",
			Eligibility: models.EligibilityCriteria{
				MinTurnover:            models.NewFlexFloat(200),
				YearsExperience:        models.NewFlexFloat(3),
				RequiredCertifications: []string{"ISO 13485"},
			},
			DocumentsRequired: []string{"PAN Card"},
		},
	}
}

func company() *models.CompanyProfile {
	return &models.CompanyProfile{
		ID:                 "c-1",
		Name:               "MedSupply Pvt Ltd",
		AnnualTurnover:     150,
		YearsInOperation:   4,
		AvailableDocuments: []string{"PAN Card"},
	}
}

func expectedOutput() *Output {
	result := compliance.Score(extractedTender().ExtractedData.ScoringInput(), company().ScoringProfile())
	return &Output{
		TenderID:    "t-1",
		CompanyID:   "c-1",
		Score:       result.Score,
		Verdict:     result.Verdict,
		GapCount:    len(result.Gaps),
		GapsSummary: models.SummarizeGaps(result.Gaps),
		Note:        Note,
	}
}

// ==========================
// Execute
// ==========================

func TestExecute_CacheMissScoresAndCaches(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	tenders := &fakeTenders{tender: extractedTender()}
	handler := NewHandler(LoadConfig(), tenders, &fakeCompanies{company: company()}, redisClient, logger.NewTestLogger(t))

	want := expectedOutput()
	cached, _ := json.Marshal(want)
	redisMock.ExpectGet(CacheKey("t-1", "c-1")).RedisNil()
	redisMock.ExpectSet(CacheKey("t-1", "c-1"), cached, LoadConfig().CacheTTL).SetVal("OK")

	output, err := handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1"})

	require.NoError(t, err)
	assert.Equal(t, want, output)
	assert.Equal(t, 2, output.GapCount)
	assert.Equal(t, compliance.FieldTurnover, output.GapsSummary[0].Field)
	assert.Equal(t, Note, output.Note)
	assert.False(t, output.Cached)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_CacheHit(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	tenders := &fakeTenders{}
	handler := NewHandler(LoadConfig(), tenders, &fakeCompanies{}, redisClient, logger.NewTestLogger(t))

	cached, _ := json.Marshal(expectedOutput())
	redisMock.ExpectGet(CacheKey("t-1", "c-1")).SetVal(string(cached))

	output, err := handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1"})

	require.NoError(t, err)
	assert.True(t, output.Cached)
	assert.Equal(t, expectedOutput().Score, output.Score)
	assert.Zero(t, tenders.calls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_CacheErrorsAreNotFatal(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	handler := NewHandler(LoadConfig(), &fakeTenders{tender: extractedTender()}, &fakeCompanies{company: company()}, redisClient, logger.NewTestLogger(t))

	cached, _ := json.Marshal(expectedOutput())
	redisMock.ExpectGet(CacheKey("t-1", "c-1")).SetErr(errors.New("READONLY"))
	redisMock.ExpectSet(CacheKey("t-1", "c-1"), cached, LoadConfig().CacheTTL).SetErr(errors.New("READONLY"))

	output, err := handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1"})

	require.NoError(t, err)
	assert.Equal(t, expectedOutput().Verdict, output.Verdict)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_WithoutCache(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeTenders{tender: extractedTender()}, &fakeCompanies{company: company()}, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{TenderID: "t-1", CompanyID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, expectedOutput(), output)
}

func TestExecute_Errors(t *testing.T) {
	pending := extractedTender()
	pending.ExtractedData = nil

	tests := []struct {
		name      string
		input     *Input
		tenders   *fakeTenders
		companies *fakeCompanies
		wantCode  apperrors.ErrorCode
	}{
		{"missing company id", &Input{TenderID: "t-1"}, &fakeTenders{}, &fakeCompanies{}, apperrors.ErrCodeInvalidInput},
		{"tender not found", &Input{TenderID: "t-1", CompanyID: "c-1"}, &fakeTenders{err: repository.ErrNotFound}, &fakeCompanies{}, apperrors.ErrCodeTenderNotFound},
		{"tender not extracted", &Input{TenderID: "t-1", CompanyID: "c-1"}, &fakeTenders{tender: pending}, &fakeCompanies{}, apperrors.ErrCodeTenderNotExtracted},
		{"company not found", &Input{TenderID: "t-1", CompanyID: "c-1"}, &fakeTenders{tender: extractedTender()}, &fakeCompanies{err: repository.ErrNotFound}, apperrors.ErrCodeCompanyNotFound},
		{"database down", &Input{TenderID: "t-1", CompanyID: "c-1"}, &fakeTenders{err: errors.New("connection refused")}, &fakeCompanies{}, apperrors.ErrCodeDatabaseConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(LoadConfig(), tt.tenders, tt.companies, nil, logger.NewTestLogger(t))

			_, err := handler.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, toStandardError(tt.input, err).Code)
		})
	}
}
