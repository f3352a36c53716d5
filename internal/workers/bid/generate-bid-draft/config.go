// internal/workers/bid/generate-bid-draft/config.go
package generatebiddraft

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 180 * time.Second,
	}
}
