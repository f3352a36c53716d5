// internal/models/tender.go
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"bidbuddy-workers/internal/compliance"
)

type TenderStatus string

const (
	TenderStatusPending   TenderStatus = "pending"
	TenderStatusExtracted TenderStatus = "extracted"
	TenderStatusFailed    TenderStatus = "failed"
)

// Tender is a row of the tenders table.
type Tender struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	IssuingAuthority string           `json:"issuingAuthority"`
	Deadline         string           `json:"deadline,omitempty"`
	Sector           string           `json:"sector,omitempty"`
	EstimatedValue   *float64         `json:"estimatedValue,omitempty"`
	ObjectKey        string           `json:"objectKey,omitempty"`
	RawText          string           `json:"-"`
	ExtractedData    *ExtractedTender `json:"extractedData,omitempty"`
	PageCount        int              `json:"pageCount"`
	Status           TenderStatus     `json:"status"`
	ExtractionError  string           `json:"extractionError,omitempty"`
	CreatedAt        string           `json:"createdAt"`
	UpdatedAt        string           `json:"updatedAt"`
}

// ExtractedTender is the structure the language model returns for a tender document.
// Keys are snake_case to match the extraction prompt.
type ExtractedTender struct {
	TenderID          FlexString          `json:"tender_id"`
	Title             string              `json:"title"`
	IssuingAuthority  string              `json:"issuing_authority"`
	Deadline          string              `json:"deadline"`
	EstimatedValue    FlexFloat           `json:"estimated_value"`
	Eligibility       EligibilityCriteria `json:"eligibility"`
	DocumentsRequired []string            `json:"documents_required"`
	KeyClauses        []string            `json:"key_clauses"`
	Sector            string              `json:"sector"`
	BidSecurity       FlexFloat           `json:"bid_security"`
	ContractDuration  string              `json:"contract_duration"`
	Note              string              `json:"_note,omitempty"`
}

type EligibilityCriteria struct {
	MinTurnover            FlexFloat `json:"min_turnover"`
	YearsExperience        FlexFloat `json:"years_experience"`
	RequiredCertifications []string  `json:"required_certifications"`
	MSMEPreference         bool      `json:"msme_preference"`
	PastProjectRequirement string    `json:"past_project_requirement"`
	MinSingleProjectValue  FlexFloat `json:"min_single_project_value"`
	OtherRequirements      []string  `json:"other_requirements"`
}

// FallbackTitle marks tenders whose extraction response could not be parsed.
const FallbackTitle = "Tender (manual review needed)"

// UntitledTender names tenders whose document carries no detectable title.
const UntitledTender = "Untitled tender"

// FallbackExtractedTender is stored when the model reply is not valid JSON.
func FallbackExtractedTender(note string) *ExtractedTender {
	return &ExtractedTender{
		Title:             FallbackTitle,
		IssuingAuthority:  "Unknown",
		Sector:            "Unknown",
		DocumentsRequired: []string{},
		KeyClauses:        []string{},
		Eligibility: EligibilityCriteria{
			RequiredCertifications: []string{},
			OtherRequirements:      []string{},
		},
		Note: note,
	}
}

// ScoringInput converts the extracted tender into scoring input. Absent values
// become "no requirement".
func (t *ExtractedTender) ScoringInput() compliance.TenderEligibility {
	if t == nil {
		return compliance.TenderEligibility{}
	}
	return compliance.TenderEligibility{
		MinTurnover:            t.Eligibility.MinTurnover.Value(),
		YearsExperience:        int(math.Ceil(t.Eligibility.YearsExperience.Value())),
		RequiredCertifications: append([]string(nil), t.Eligibility.RequiredCertifications...),
		MSMEPreference:         t.Eligibility.MSMEPreference,
		MinSingleProjectValue:  t.Eligibility.MinSingleProjectValue.Value(),
		RequiredDocuments:      append([]string(nil), t.DocumentsRequired...),
	}
}

// FlexFloat is a nullable number that also accepts numeric strings such as
// "50", "50.5 Lakhs" or "1,200". Anything unparseable decodes as null.
type FlexFloat struct {
	V     float64
	Valid bool
}

// NewFlexFloat returns a valid FlexFloat.
func NewFlexFloat(v float64) FlexFloat {
	return FlexFloat{V: v, Valid: true}
}

// Value returns the number, or 0 when null.
func (f FlexFloat) Value() float64 {
	if !f.Valid {
		return 0
	}
	return f.V
}

var leadingNumber = regexp.MustCompile(`-?\d+(\.\d+)?`)

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.ReplaceAll(s, ",", "")
		m := leadingNumber.FindString(s)
		if m == "" {
			return nil
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil
		}
		*f = NewFlexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*f = NewFlexFloat(v)
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.V)
}

// FlexString is a string that also accepts a bare number, so a reference
// number such as 4521 decodes as "4521". Null decodes as "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	*s = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	*s = FlexString(n.String())
	return nil
}
