// internal/workers/compliance/quick-check/models.go
package quickcheck

import (
	"bidbuddy-workers/internal/compliance"
	"bidbuddy-workers/internal/models"
)

// Note is attached to every quick check result.
const Note = "Quick check only. Run a full compliance score for AI analysis."

type Input struct {
	TenderID  string `json:"tenderId"`
	CompanyID string `json:"companyId"`
}

type Output struct {
	TenderID    string              `json:"tenderId"`
	CompanyID   string              `json:"companyId"`
	Score       float64             `json:"score"`
	Verdict     compliance.Verdict  `json:"verdict"`
	GapCount    int                 `json:"gapCount"`
	GapsSummary []models.GapSummary `json:"gapsSummary"`
	Note        string              `json:"note"`
	Cached      bool                `json:"cached"`
}

// CacheKey is the Redis key of a quick check result.
func CacheKey(tenderID, companyID string) string {
	return "compliance:quick:" + tenderID + ":" + companyID
}
