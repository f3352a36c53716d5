// internal/workers/compliance/score-compliance/models.go
package scorecompliance

import "bidbuddy-workers/internal/models"

type Input struct {
	TenderID  string `json:"tenderId"`
	CompanyID string `json:"companyId"`
	IncludeAI *bool  `json:"includeAi,omitempty"`
}

// WantsAI reports whether the narrative was requested. It defaults to true.
func (i *Input) WantsAI() bool {
	return i.IncludeAI == nil || *i.IncludeAI
}

// Output is the persisted report plus its ID under the name downstream tasks use.
type Output struct {
	models.ComplianceReport
	ReportID string `json:"reportId"`
}

type reportCreatedEvent struct {
	ReportID  string  `json:"reportId"`
	TenderID  string  `json:"tenderId"`
	CompanyID string  `json:"companyId"`
	Score     float64 `json:"score"`
	Verdict   string  `json:"verdict"`
	GapCount  int     `json:"gapCount"`
}
