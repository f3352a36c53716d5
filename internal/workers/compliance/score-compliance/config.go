// internal/workers/compliance/score-compliance/config.go
package scorecompliance

import "time"

type Config struct {
	Timeout time.Duration
	// AITimeout bounds the narrative call so a slow model cannot consume the
	// whole job deadline.
	AITimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   90 * time.Second,
		AITimeout: 60 * time.Second,
	}
}
