// internal/workers/tender/extract-tender-structure/models.go
package extracttenderstructure

import "bidbuddy-workers/internal/models"

// Input names the tender and where its text comes from. When neither
// objectKey nor rawText is given, the values stored on the tender row are used.
type Input struct {
	TenderID  string `json:"tenderId"`
	ObjectKey string `json:"objectKey,omitempty"`
	RawText   string `json:"rawText,omitempty"`
}

type Output struct {
	TenderID      string                  `json:"tenderId"`
	Status        models.TenderStatus     `json:"status"`
	ExtractedData *models.ExtractedTender `json:"extractedData"`
	PageCount     int                     `json:"pageCount"`
	Sections      []string                `json:"sections"`
	UsedFallback  bool                    `json:"usedFallback"`
}

type extractedEvent struct {
	TenderID     string `json:"tenderId"`
	Title        string `json:"title"`
	Sector       string `json:"sector"`
	PageCount    int    `json:"pageCount"`
	UsedFallback bool   `json:"usedFallback"`
}
