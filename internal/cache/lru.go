package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUConfig sizes the in-process cache.
type LRUConfig struct {
	Size int
	TTL  time.Duration
}

type lruEntry struct {
	value     []byte
	expiresAt time.Time
}

// LRUProvider implements Provider with a bounded, expiring in-process LRU.
type LRUProvider struct {
	lru        *expirable.LRU[string, lruEntry]
	defaultTTL time.Duration
	now        func() time.Time
}

// NewLRUProvider creates an LRUProvider. TTL is the ceiling applied to every entry; a shorter
// per-call ttl is honoured on read.
func NewLRUProvider(cfg LRUConfig) (*LRUProvider, error) {
	if cfg.Size <= 0 {
		return nil, errors.New("cache size must be positive")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &LRUProvider{
		lru:        expirable.NewLRU[string, lruEntry](cfg.Size, nil, cfg.TTL),
		defaultTTL: cfg.TTL,
		now:        time.Now,
	}, nil
}

// Get returns the stored bytes or ErrCacheMiss.
func (p *LRUProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := p.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !p.now().Before(entry.expiresAt) {
		p.lru.Remove(key)
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a copy of value. ttl <= 0 uses the provider TTL.
func (p *LRUProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 || ttl > p.defaultTTL {
		ttl = p.defaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	p.lru.Add(key, lruEntry{value: stored, expiresAt: p.now().Add(ttl)})
	return nil
}

// Del removes key if present.
func (p *LRUProvider) Del(_ context.Context, key string) error {
	p.lru.Remove(key)
	return nil
}

// Len reports the number of live entries.
func (p *LRUProvider) Len() int {
	return p.lru.Len()
}

// Close drops every entry.
func (p *LRUProvider) Close() error {
	p.lru.Purge()
	return nil
}
