// internal/workers/notification/send-notification/config.go
package sendnotification

import (
	"time"

	"bidbuddy-workers/internal/common/config"
)

type Config struct {
	EmailEnabled     bool
	SMSEnabled       bool
	FromEmail        string
	AWSRegion        string
	TemplateRegistry string
	Timeout          time.Duration
}

func LoadConfig(cfg config.NotificationConfig) *Config {
	return &Config{
		EmailEnabled:     cfg.Email.Enabled,
		SMSEnabled:       cfg.SMS.Enabled,
		FromEmail:        cfg.Email.FromEmail,
		AWSRegion:        cfg.AWS.Region,
		TemplateRegistry: cfg.TemplateRegistry,
		Timeout:          30 * time.Second,
	}
}
