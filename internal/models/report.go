// internal/models/report.go
package models

import "bidbuddy-workers/internal/compliance"

// ComplianceReport persists one scoring run of a company against a tender.
type ComplianceReport struct {
	ID              string                    `json:"id"`
	TenderID        string                    `json:"tenderId"`
	CompanyID       string                    `json:"companyId"`
	Score           float64                   `json:"score"`
	Verdict         compliance.Verdict        `json:"verdict"`
	Gaps            []compliance.Gap          `json:"gaps"`
	MetCriteria     []compliance.MetCriterion `json:"metCriteria"`
	Recommendations []string                  `json:"recommendations"`
	Breakdown       map[string]float64        `json:"breakdown"`
	MSMEBonus       float64                   `json:"msmeBonus"`
	AIAnalysis      string                    `json:"aiAnalysis,omitempty"`
	CreatedAt       string                    `json:"createdAt"`
}

// NewComplianceReport copies a scoring result into a report record.
func NewComplianceReport(id, tenderID, companyID string, r compliance.ScoringResult, createdAt string) *ComplianceReport {
	return &ComplianceReport{
		ID:              id,
		TenderID:        tenderID,
		CompanyID:       companyID,
		Score:           r.Score,
		Verdict:         r.Verdict,
		Gaps:            r.Gaps,
		MetCriteria:     r.MetCriteria,
		Recommendations: r.Recommendations,
		Breakdown:       r.Breakdown,
		MSMEBonus:       r.MSMEBonus,
		CreatedAt:       createdAt,
	}
}

// GapSummary is the compact gap view returned by quick checks.
type GapSummary struct {
	Field    string              `json:"field"`
	Severity compliance.Severity `json:"severity"`
}

func SummarizeGaps(gaps []compliance.Gap) []GapSummary {
	out := make([]GapSummary, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, GapSummary{Field: g.Field, Severity: g.Severity})
	}
	return out
}
