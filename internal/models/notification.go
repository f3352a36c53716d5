// internal/models/notification.go
package models

const (
	NotificationComplianceReportReady = "compliance_report_ready"
	NotificationBidDraftReady         = "bid_draft_ready"
)

type NotificationTemplate struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	SMSBody  string `json:"smsBody,omitempty"`
	HTMLBody string `json:"htmlBody,omitempty"`
	Version  string `json:"version"`
}
