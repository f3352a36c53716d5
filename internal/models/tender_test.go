package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FlexFloat
	}{
		{"number", `50`, NewFlexFloat(50)},
		{"decimal", `12.5`, NewFlexFloat(12.5)},
		{"null", `null`, FlexFloat{}},
		{"numeric string", `"75"`, NewFlexFloat(75)},
		{"string with unit", `"50.5 Lakhs"`, NewFlexFloat(50.5)},
		{"thousands separator", `"1,200"`, NewFlexFloat(1200)},
		{"non numeric string", `"not specified"`, FlexFloat{}},
		{"bool", `true`, FlexFloat{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got FlexFloat
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlexFloat_MarshalNull(t *testing.T) {
	data, err := json.Marshal(struct {
		A FlexFloat `json:"a"`
		B FlexFloat `json:"b"`
	}{A: NewFlexFloat(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(data))
}

func TestExtractedTender_ScoringInput(t *testing.T) {
	raw := `{
		"title": "Supply of Laptops",
		"eligibility": {
			"min_turnover": "100",
			"years_experience": 3,
			"required_certifications": ["ISO 9001"],
			"msme_preference": true,
			"min_single_project_value": null
		},
		"documents_required": ["PAN Card", "GST Certificate"]
	}`

	var et ExtractedTender
	require.NoError(t, json.Unmarshal([]byte(raw), &et))

	in := et.ScoringInput()
	assert.Equal(t, 100.0, in.MinTurnover)
	assert.Equal(t, 3, in.YearsExperience)
	assert.Equal(t, []string{"ISO 9001"}, in.RequiredCertifications)
	assert.True(t, in.MSMEPreference)
	assert.Equal(t, 0.0, in.MinSingleProjectValue)
	assert.Equal(t, []string{"PAN Card", "GST Certificate"}, in.RequiredDocuments)
}

func TestExtractedTender_NilScoringInput(t *testing.T) {
	var et *ExtractedTender
	assert.Equal(t, 0.0, et.ScoringInput().MinTurnover)
}

func TestFlexString_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FlexString
	}{
		{"string", `"NIT-42"`, "NIT-42"},
		{"integer", `4521`, "4521"},
		{"decimal", `12.5`, "12.5"},
		{"null", `null`, ""},
		{"bool", `true`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackExtractedTender(t *testing.T) {
	fb := FallbackExtractedTender("parse error")
	assert.Equal(t, FallbackTitle, fb.Title)
	assert.Equal(t, "Unknown", fb.IssuingAuthority)
	assert.Equal(t, "Unknown", fb.Sector)
	assert.Empty(t, fb.ScoringInput().RequiredDocuments)
}

func TestCopilotSession_RecentMessages(t *testing.T) {
	s := &CopilotSession{}
	for i := 0; i < 9; i++ {
		s.Messages = append(s.Messages, CopilotMessage{Role: RoleUser, Content: string(rune('a' + i))})
	}
	recent := s.RecentMessages(6)
	require.Len(t, recent, 6)
	assert.Equal(t, "d", recent[0].Content)
	assert.Len(t, (&CopilotSession{Messages: s.Messages[:2]}).RecentMessages(6), 2)
}
