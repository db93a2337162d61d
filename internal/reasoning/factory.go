package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miradorstack/incident-rca/internal/cache"
	"github.com/miradorstack/incident-rca/internal/config"
)

// Providers holds the runners selected at process start. Live is nil when no hosted
// provider is configured.
type Providers struct {
	Mock *Client
	Live *Client
}

// NewProviders builds the mock client and, when configured, the live client. Both share the
// retry budget of cfg and the optional response cache.
func NewProviders(ctx context.Context, logger *slog.Logger, cfg config.ReasoningConfig, sleeper Sleeper) (Providers, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := ClientConfig{
		MaxAttempts: cfg.MaxAttempts,
		Timeout:     cfg.Timeout,
		RetryDelay:  cfg.RetryDelay,
	}

	var store cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled {
		lru, err := cache.NewLRUProvider(cache.LRUConfig{Size: cfg.Cache.Size, TTL: cfg.Cache.TTL})
		if err != nil {
			return Providers{}, fmt.Errorf("reasoning cache: %w", err)
		}
		store = lru
	}

	playbook, err := LoadPlaybook(cfg.PlaybookPath, logger)
	if err != nil {
		return Providers{}, fmt.Errorf("load playbook: %w", err)
	}
	mock, err := NewMockProvider(MockMode(cfg.MockMode), playbook)
	if err != nil {
		return Providers{}, err
	}
	out := Providers{Mock: NewClient(logger, mock, clientCfg, sleeper)}

	live, err := newLiveProvider(ctx, cfg)
	if err != nil {
		return Providers{}, err
	}
	if live != nil {
		wrapped := NewCachedProvider(logger, live, store, cfg.Cache.TTL)
		out.Live = NewClient(logger, wrapped, clientCfg, sleeper)
		logger.Info("live reasoning provider configured", slog.String("provider", live.Name()))
	}
	return out, nil
}

func newLiveProvider(ctx context.Context, cfg config.ReasoningConfig) (Provider, error) {
	live := LiveConfig{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		BaseURL:     cfg.BaseURL,
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil
	case "anthropic":
		return NewAnthropicProvider(live)
	case "gemini":
		return NewGeminiProvider(ctx, live)
	default:
		return nil, fmt.Errorf("unknown reasoning provider %q", cfg.Provider)
	}
}
