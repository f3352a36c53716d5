// internal/workers/tender/index-tender/config.go
package indextender

import "time"

type Config struct {
	Timeout     time.Duration
	TenderIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     15 * time.Second,
		TenderIndex: "tenders",
	}
}
