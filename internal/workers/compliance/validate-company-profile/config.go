// internal/workers/compliance/validate-company-profile/config.go
package validatecompanyprofile

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
