// internal/workers/copilot/answer-copilot-question/config.go
package answercopilotquestion

import "time"

type Config struct {
	Timeout           time.Duration
	MaxQuestionLength int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:           60 * time.Second,
		MaxQuestionLength: 2000,
	}
}
