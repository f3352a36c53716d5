package validatecompanyprofile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/models"
)

type fakeCompanies struct {
	stored []*models.CompanyProfile
	err    error
}

func (f *fakeCompanies) Upsert(ctx context.Context, c *models.CompanyProfile) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, c)
	return nil
}

func newHandler(t *testing.T, companies *fakeCompanies) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), companies, logger.NewTestLogger(t))
}

const validProfile = `{
	"id": "c-1",
	"name": "  Acme Infra Pvt Ltd ",
	"pan": "abcde1234f",
	"gst": "27ABCDE1234F1Z5",
	"annualTurnover": 250,
	"netWorth": 80,
	"yearsInOperation": 7,
	"certifications": ["ISO 9001", "iso 9001", " GeM Registration "],
	"availableDocuments": ["PAN Card", "pan card", "GST Certificate"],
	"pastProjects": [{"name": " Bridge works ", "value": 40, "year": 2023}],
	"contactEmail": "ops@acme.in"
}`

// ==========================
// Execute
// ==========================

func TestExecute_NormalizesValidProfile(t *testing.T) {
	companies := &fakeCompanies{}
	h := newHandler(t, companies)

	out, err := h.Execute(context.Background(), &Input{Profile: json.RawMessage(validProfile)})
	require.NoError(t, err)

	assert.True(t, out.IsValid)
	assert.Empty(t, out.ValidationErrors)
	assert.Equal(t, "Acme Infra Pvt Ltd", out.Profile.Name)
	assert.Equal(t, "ABCDE1234F", out.Profile.PAN)
	assert.Equal(t, []string{"ISO 9001", "GeM Registration"}, out.Profile.Certifications)
	assert.Equal(t, []string{"PAN Card", "GST Certificate"}, out.Profile.AvailableDocuments)
	assert.Equal(t, "Bridge works", out.Profile.PastProjects[0].Name)
	assert.False(t, out.Persisted)
	assert.Empty(t, companies.stored)
}

func TestExecute_PersistsWhenRequested(t *testing.T) {
	companies := &fakeCompanies{}
	h := newHandler(t, companies)

	profile := `{"name": "New Co", "annualTurnover": 10, "yearsInOperation": 1}`
	out, err := h.Execute(context.Background(), &Input{Profile: json.RawMessage(profile), Persist: true})
	require.NoError(t, err)

	assert.True(t, out.Persisted)
	require.Len(t, companies.stored, 1)
	assert.NotEmpty(t, companies.stored[0].ID)
	assert.Equal(t, []models.PastProject{}, companies.stored[0].PastProjects)
}

func TestExecute_DomainRuleViolations(t *testing.T) {
	h := newHandler(t, &fakeCompanies{})

	profile := `{
		"name": "   ",
		"pan": "ABC",
		"gst": "27ABCDE1234F1Z5XX",
		"annualTurnover": 50,
		"yearsInOperation": 2,
		"pastProjects": [{"name": " ", "value": 10}]
	}`
	out, err := h.Execute(context.Background(), &Input{Profile: json.RawMessage(profile)})
	require.ErrorIs(t, err, ErrProfileValidationFailed)
	require.NotNil(t, out)
	assert.False(t, out.IsValid)

	fields := make([]string, 0, len(out.ValidationErrors))
	for _, ve := range out.ValidationErrors {
		fields = append(fields, ve.Field)
	}
	assert.Equal(t, []string{"gst", "name", "pan", "pastProjects.0.name"}, fields)
	assert.Equal(t, "VALIDATION_LENGTH_INVALID", out.ValidationErrors[0].Code)

	stdErr := toStandardError(out, err)
	assert.Equal(t, apperrors.ErrCodeProfileValidationFailed, stdErr.Code)
	assert.Equal(t, out.ValidationErrors, stdErr.Metadata["validationErrors"])
	assert.Equal(t, false, stdErr.Metadata["isValid"])
}

func TestExecute_SchemaViolations(t *testing.T) {
	h := newHandler(t, &fakeCompanies{})

	profile := `{"name": "Acme", "annualTurnover": -5, "contactEmail": "not-an-email"}`
	out, err := h.Execute(context.Background(), &Input{Profile: json.RawMessage(profile)})
	require.ErrorIs(t, err, ErrProfileValidationFailed)

	fields := make([]string, 0, len(out.ValidationErrors))
	for _, ve := range out.ValidationErrors {
		fields = append(fields, ve.Field)
	}
	assert.Contains(t, fields, "annualTurnover")
	assert.Contains(t, fields, "contactEmail")
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		companies *fakeCompanies
		wantCode  apperrors.ErrorCode
	}{
		{"missing profile", &Input{}, &fakeCompanies{}, apperrors.ErrCodeInvalidInput},
		{"null profile", &Input{Profile: json.RawMessage("null")}, &fakeCompanies{}, apperrors.ErrCodeInvalidInput},
		{"upsert fails", &Input{Profile: json.RawMessage(validProfile), Persist: true}, &fakeCompanies{err: errors.New("unique violation")}, apperrors.ErrCodeDatabaseInsertFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newHandler(t, tt.companies).Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, toStandardError(out, err).Code)
		})
	}
}

// ==========================
// Normalization
// ==========================

func TestDedupeFold(t *testing.T) {
	assert.Equal(t, []string{"ISO 9001", "MSME"}, dedupeFold([]string{" ISO 9001", "", "iso 9001 ", "MSME", "msme"}))
	assert.Equal(t, []string{}, dedupeFold(nil))
}
