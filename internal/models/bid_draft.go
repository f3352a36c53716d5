// internal/models/bid_draft.go
package models

type BidDraft struct {
	ID                string `json:"id"`
	TenderID          string `json:"tenderId"`
	CompanyID         string `json:"companyId"`
	Version           int    `json:"version"`
	Content           string `json:"content"`
	AdditionalContext string `json:"additionalContext,omitempty"`
	CreatedAt         string `json:"createdAt"`
}
