// internal/workers/copilot/answer-copilot-question/models.go
package answercopilotquestion

import "bidbuddy-workers/internal/models"

type Input struct {
	TenderID  string `json:"tenderId"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId,omitempty"`
	Question  string `json:"question"`
}

type Output struct {
	SessionID    string `json:"sessionId"`
	Answer       string `json:"answer"`
	MessageCount int    `json:"messageCount"`
}

// tenderContext is what the model sees about the tender.
type tenderContext struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	IssuingAuthority string                  `json:"issuingAuthority,omitempty"`
	Deadline         string                  `json:"deadline,omitempty"`
	Sector           string                  `json:"sector,omitempty"`
	EstimatedValue   *float64                `json:"estimatedValue,omitempty"`
	Status           models.TenderStatus     `json:"status"`
	ExtractedData    *models.ExtractedTender `json:"extractedData,omitempty"`
}

func newTenderContext(t *models.Tender) tenderContext {
	return tenderContext{
		ID:               t.ID,
		Title:            t.Title,
		IssuingAuthority: t.IssuingAuthority,
		Deadline:         t.Deadline,
		Sector:           t.Sector,
		EstimatedValue:   t.EstimatedValue,
		Status:           t.Status,
		ExtractedData:    t.ExtractedData,
	}
}
