// internal/workers/notification/send-notification/models.go
package sendnotification

import "bidbuddy-workers/internal/compliance"

type Input struct {
	CompanyID        string                 `json:"companyId"`
	ReportID         string                 `json:"reportId,omitempty"`
	DraftID          string                 `json:"draftId,omitempty"`
	TenderID         string                 `json:"tenderId,omitempty"`
	NotificationType string                 `json:"notificationType"`
	Verdict          compliance.Verdict     `json:"verdict,omitempty"`
	Score            *float64               `json:"score,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	Channels       []string `json:"channels"`
	FailedChannels []string `json:"failedChannels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
