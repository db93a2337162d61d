package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/miradorstack/incident-rca/internal/metrics"
	"github.com/miradorstack/incident-rca/internal/models"
	"github.com/miradorstack/incident-rca/internal/utils"
	"github.com/miradorstack/incident-rca/internal/validator"
)

// ClientConfig bounds how long and how often a provider is tried.
type ClientConfig struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int
	Timeout     time.Duration
	RetryDelay  time.Duration
}

// DefaultClientConfig returns two attempts of 10s each, 500ms apart.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxAttempts: 2,
		Timeout:     10 * time.Second,
		RetryDelay:  500 * time.Millisecond,
	}
}

// Client runs prompts against a Provider and returns schema-checked JSON objects.
type Client struct {
	logger   *slog.Logger
	provider Provider
	cfg      ClientConfig
	sleeper  Sleeper
}

// NewClient constructs a Client. A nil sleeper waits on real timers.
func NewClient(logger *slog.Logger, provider Provider, cfg ClientConfig, sleeper Sleeper) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultClientConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	return &Client{logger: logger, provider: provider, cfg: cfg, sleeper: sleeper}
}

// ProviderName returns the name of the wrapped provider.
func (c *Client) ProviderName() string {
	if c == nil || c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

// Run tries the provider up to MaxAttempts times, one attempt at a time. Provider errors,
// per-attempt timeouts, invalid JSON and schema failures are retried. When ctx is done no
// further attempt is made and the returned error wraps ctx.Err().
func (c *Client) Run(ctx context.Context, prompt string) (models.ProviderResponse, error) {
	if c == nil || c.provider == nil {
		return nil, utils.NewAppError(utils.KindReasoningProvider, "reason", "no reasoning provider configured", nil)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, c.aborted(attempt-1, err)
		}

		resp, outcome, err := c.attempt(ctx, prompt)
		metrics.ObserveReasoningAttempt(outcome)
		if err == nil {
			c.logger.Debug("reasoning attempt succeeded",
				slog.String("provider", c.provider.Name()),
				slog.Int("attempt", attempt))
			return resp, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.aborted(attempt, ctxErr)
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}

		c.logger.Warn("reasoning attempt failed, retrying",
			slog.String("provider", c.provider.Name()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.cfg.MaxAttempts),
			slog.String("outcome", outcome),
			slog.Any("error", err))

		if err := c.sleeper.Sleep(ctx, c.cfg.RetryDelay); err != nil {
			return nil, c.aborted(attempt, err)
		}
	}

	return nil, utils.NewAppError(
		utils.KindReasoningProvider,
		"reason",
		fmt.Sprintf("%s failed after %d attempt(s)", c.provider.Name(), c.cfg.MaxAttempts),
		lastErr,
	)
}

func (c *Client) attempt(ctx context.Context, prompt string) (models.ProviderResponse, string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	text, err := c.provider.Run(attemptCtx, prompt)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, metrics.AttemptTimeout, fmt.Errorf("attempt timed out after %s: %w", c.cfg.Timeout, err)
		}
		return nil, metrics.AttemptProviderError, err
	}

	resp, err := ParseResponse(text)
	if err != nil {
		return nil, metrics.AttemptInvalidJSON, err
	}
	if err := validator.CheckSchema(resp); err != nil {
		return nil, metrics.AttemptSchemaError, err
	}
	return resp, metrics.AttemptSuccess, nil
}

func (c *Client) aborted(attempts int, cause error) error {
	return utils.NewAppError(
		utils.KindReasoningProvider,
		"reason",
		fmt.Sprintf("%s aborted after %d attempt(s)", c.provider.Name(), attempts),
		cause,
	)
}
