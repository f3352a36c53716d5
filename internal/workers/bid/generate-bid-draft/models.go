// internal/workers/bid/generate-bid-draft/models.go
package generatebiddraft

type Input struct {
	TenderID          string `json:"tenderId"`
	CompanyID         string `json:"companyId"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

type Output struct {
	DraftID   string `json:"draftId"`
	Version   int    `json:"version"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type draftCreatedEvent struct {
	DraftID   string `json:"draftId"`
	TenderID  string `json:"tenderId"`
	CompanyID string `json:"companyId"`
	Version   int    `json:"version"`
}
