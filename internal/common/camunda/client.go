// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/config"
	"bidbuddy-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client owns the gateway connection shared by every BidBuddy job worker.
type Client struct {
	zeebe  zbc.Client
	policy RetryPolicy
	probe  time.Duration
}

// RetryPolicy bounds how often a gateway command is re-sent on transient failure.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Ceiling  time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts: 3,
	Base:     time.Second,
	Ceiling:  10 * time.Second,
}

const defaultProbeTimeout = 10 * time.Second

// NewClient dials the gateway named in cfg and waits until it reports a
// topology, retrying transient failures under DefaultRetryPolicy.
func NewClient(cfg config.CamundaConfig) (*Client, error) {
	zeebe, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{zeebe: zeebe, policy: DefaultRetryPolicy, probe: defaultProbeTimeout}
	if cfg.RequestTimeout > 0 {
		c.probe = time.Duration(cfg.RequestTimeout) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.probe*time.Duration(c.policy.Attempts+1))
	defer cancel()

	if err := c.withRetry(ctx, "topology", c.topology); err != nil {
		zeebe.Close()
		return nil, fmt.Errorf("gateway %s not reachable: %w", cfg.BrokerAddress, err)
	}
	return c, nil
}

// GetClient exposes the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.zeebe
}

func (c *Client) Close() error {
	return c.zeebe.Close()
}

// HealthCheck sends one topology request; the readiness probe uses it.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.topology(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func (c *Client) topology(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probe)
	defer cancel()
	_, err := c.zeebe.NewTopologyCommand().Send(ctx)
	return err
}

// withRetry runs send with exponential backoff capped at policy.Ceiling.
// Non-transient errors end the loop at once and are classified.
func (c *Client) withRetry(ctx context.Context, op string, send func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = send(ctx); err == nil {
			return nil
		}
		if !isTransient(err) || attempt >= c.policy.Attempts {
			return classify(err, op, attempt)
		}

		delay := c.policy.Base << attempt
		if delay > c.policy.Ceiling {
			delay = c.policy.Ceiling
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", op, attempt+1, ctx.Err())
		}
	}
}

var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// classify turns a gateway failure into a StandardError.
func classify(err error, op string, retries int) error {
	wrapped := fmt.Errorf("zeebe %s failed: %w", op, err)
	if retries > 0 {
		wrapped = fmt.Errorf("zeebe %s failed after %d retries: %w", op, retries, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return errors.NewTimeoutError("zeebe", wrapped)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "already exists"), strings.Contains(msg, "invalid argument"):
		return errors.NewInvalidInputError(wrapped.Error())
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "unauthorized"):
		return errors.NewInternalError(wrapped)
	default:
		return errors.NewExternalServiceError("zeebe", wrapped)
	}
}
