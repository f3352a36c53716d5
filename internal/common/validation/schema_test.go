package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedTenderSchema(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{
			name:  "typical",
			raw:   `{"title": "Road works", "eligibility": {"min_turnover": "50 Lakhs", "years_experience": 3, "required_certifications": ["ISO 9001"]}, "documents_required": ["PAN"]}`,
			valid: true,
		},
		{
			name:  "nulls everywhere",
			raw:   `{"title": "X", "issuing_authority": null, "eligibility": {"min_turnover": null, "required_certifications": null}, "key_clauses": null}`,
			valid: true,
		},
		{
			name:  "null title and numeric tender id",
			raw:   `{"tender_id": 4521, "title": null, "eligibility": {"min_turnover": 50}}`,
			valid: true,
		},
		{name: "missing eligibility", raw: `{"title": "X"}`, valid: false},
		{name: "error object", raw: `{"error": "quota exceeded"}`, valid: false},
		{name: "wrong list type", raw: `{"title": "X", "eligibility": {}, "documents_required": "PAN"}`, valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExtractedTenderSchema.ValidateJSON([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, res.GetErrorMessages())
		})
	}
}

func TestCompanyProfileSchema(t *testing.T) {
	doc := map[string]interface{}{
		"name":             "Acme",
		"annualTurnover":   -5.0,
		"yearsInOperation": 2,
		"contactEmail":     "not-an-email",
		"pastProjects":     []interface{}{map[string]interface{}{"name": "Bridge", "value": 10.0}},
	}

	res, err := CompanyProfileSchema.Validate(doc)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	fields := map[string]bool{}
	for _, e := range res.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["annualTurnover"])
	assert.True(t, fields["contactEmail"])

	doc["annualTurnover"] = 5.0
	doc["contactEmail"] = "ops@acme.in"
	res, err = CompanyProfileSchema.Validate(doc)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.GetErrorMessages())
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)
}
