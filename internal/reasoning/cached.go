package reasoning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/miradorstack/incident-rca/internal/cache"
	"github.com/miradorstack/incident-rca/internal/validator"
)

// CachedProvider memoises provider text by prompt. Only text that parses as a single JSON
// object and passes the schema check is stored, so a retried attempt never replays an
// answer the client rejected. Grounding still runs on every cached answer.
type CachedProvider struct {
	next   Provider
	store  cache.Provider
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider wraps next with store. A nil store disables caching.
func NewCachedProvider(logger *slog.Logger, next Provider, store cache.Provider, ttl time.Duration) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = cache.NoopProvider{}
	}
	return &CachedProvider{next: next, store: store, ttl: ttl, logger: logger}
}

// Name implements Provider.
func (p *CachedProvider) Name() string {
	return p.next.Name()
}

// Run implements Provider.
func (p *CachedProvider) Run(ctx context.Context, prompt string) (string, error) {
	key := p.key(prompt)

	if cached, err := p.store.Get(ctx, key); err == nil {
		p.logger.Debug("reasoning cache hit", slog.String("provider", p.next.Name()))
		return string(cached), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		p.logger.Warn("reasoning cache read failed", slog.Any("error", err))
	}

	text, err := p.next.Run(ctx, prompt)
	if err != nil {
		return "", err
	}
	if cacheable(text) {
		if err := p.store.Set(ctx, key, []byte(text), p.ttl); err != nil {
			p.logger.Warn("reasoning cache write failed", slog.Any("error", err))
		}
	}
	return text, nil
}

func cacheable(text string) bool {
	resp, err := ParseResponse(text)
	if err != nil {
		return false
	}
	return validator.CheckSchema(resp) == nil
}

func (p *CachedProvider) key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "rca:" + p.next.Name() + ":" + hex.EncodeToString(sum[:])
}
