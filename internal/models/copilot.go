// internal/models/copilot.go
package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type CopilotMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// CopilotSession is a conversation about one tender.
type CopilotSession struct {
	ID        string           `json:"id"`
	TenderID  string           `json:"tenderId"`
	UserID    string           `json:"userId,omitempty"`
	Messages  []CopilotMessage `json:"messages"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

// RecentMessages returns at most the last n messages.
func (s *CopilotSession) RecentMessages(n int) []CopilotMessage {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
