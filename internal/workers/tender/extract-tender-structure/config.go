// internal/workers/tender/extract-tender-structure/config.go
package extracttenderstructure

import "time"

type Config struct {
	Timeout         time.Duration
	RelevantTextLen int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         120 * time.Second,
		RelevantTextLen: 6000,
	}
}
