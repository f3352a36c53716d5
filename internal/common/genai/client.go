// internal/common/genai/client.go
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/config"
	httpclient "bidbuddy-workers/internal/common/http"
	"bidbuddy-workers/internal/common/metrics"
)

var (
	ErrLLMTimeout          = errors.New("LLM_TIMEOUT")
	ErrLLMGenerationFailed = errors.New("LLM_GENERATION_FAILED")
)

// TextGenerator turns a prompt into model text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

type generateRequest struct {
	Prompt      string                 `json:"prompt"`
	Context     map[string]interface{} `json:"context,omitempty"`
	MaxTokens   int                    `json:"max_tokens"`
	Temperature float64                `json:"temperature"`
	Model       string                 `json:"model,omitempty"`
}

type generateResponse struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
}

// Client calls the GenAI gateway's /api/ai/generate endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	purpose string
	http    *httpclient.Client
}

func NewClient(cfg config.GenAIConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		purpose: "generic",
		http:    httpclient.NewClient(0).WithRetries(cfg.MaxRetries),
	}
}

// ForPurpose returns a copy that labels its metrics with purpose.
func (c *Client) ForPurpose(purpose string) *Client {
	cp := *c
	cp.purpose = purpose
	return &cp
}

func (c *Client) GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, prompt, temperature, maxTokens)

	outcome := "success"
	switch {
	case errors.Is(err, ErrLLMTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	metrics.LLMRequests.WithLabelValues(c.purpose, outcome).Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.purpose).Observe(time.Since(start).Seconds())

	return text, err
}

func (c *Client) generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	req := generateRequest{
		Prompt:      prompt,
		Context:     map[string]interface{}{"purpose": c.purpose},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Model:       c.model,
	}

	var resp generateResponse
	if err := c.http.PostJSON(ctx, c.baseURL+"/api/ai/generate", headers, req, &resp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", ErrLLMTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrLLMGenerationFailed, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrLLMGenerationFailed)
	}
	return text, nil
}
