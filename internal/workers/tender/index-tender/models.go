// internal/workers/tender/index-tender/models.go
package indextender

import "bidbuddy-workers/internal/models"

type Input struct {
	TenderID string `json:"tenderId"`
}

type Output struct {
	TenderID  string `json:"tenderId"`
	Index     string `json:"index"`
	Result    string `json:"result"` // "created" or "updated"
	IndexedAt string `json:"indexedAt"`
}

// SearchDocument is the tender as stored in the search index.
type SearchDocument struct {
	TenderID               string   `json:"tenderId"`
	Title                  string   `json:"title"`
	IssuingAuthority       string   `json:"issuingAuthority"`
	Sector                 string   `json:"sector"`
	Deadline               string   `json:"deadline,omitempty"`
	EstimatedValue         *float64 `json:"estimatedValue,omitempty"`
	RequiredCertifications []string `json:"requiredCertifications"`
	DocumentsRequired      []string `json:"documentsRequired"`
	KeyClauses             []string `json:"keyClauses"`
	Status                 string   `json:"status"`
	IndexedAt              string   `json:"indexedAt"`
}

// NewSearchDocument flattens an extracted tender. Row columns take precedence;
// the extracted copy fills whatever the row leaves empty.
func NewSearchDocument(t *models.Tender, indexedAt string) SearchDocument {
	et := t.ExtractedData
	doc := SearchDocument{
		TenderID:               t.ID,
		Title:                  firstNonEmpty(t.Title, et.Title),
		IssuingAuthority:       firstNonEmpty(t.IssuingAuthority, et.IssuingAuthority),
		Sector:                 firstNonEmpty(t.Sector, et.Sector),
		Deadline:               firstNonEmpty(t.Deadline, et.Deadline),
		EstimatedValue:         t.EstimatedValue,
		RequiredCertifications: nonNil(et.Eligibility.RequiredCertifications),
		DocumentsRequired:      nonNil(et.DocumentsRequired),
		KeyClauses:             nonNil(et.KeyClauses),
		Status:                 string(t.Status),
		IndexedAt:              indexedAt,
	}
	if doc.EstimatedValue == nil && et.EstimatedValue.Valid {
		v := et.EstimatedValue.V
		doc.EstimatedValue = &v
	}
	return doc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
