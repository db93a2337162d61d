package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLRUProviderRoundTrip(t *testing.T) {
	p, err := NewLRUProvider(LRUConfig{Size: 4, TTL: time.Minute})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	ctx := context.Background()

	if _, err := p.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	value := []byte(`{"root_cause":"x"}`)
	if err := p.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'X'

	got, err := p.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"root_cause":"x"}` {
		t.Fatalf("stored value must not alias caller buffer, got %s", got)
	}

	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestLRUProviderHonoursShorterTTL(t *testing.T) {
	p, err := NewLRUProvider(LRUConfig{Size: 4, TTL: time.Hour})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	ctx := context.Background()
	if err := p.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := p.Get(ctx, "k"); err != nil {
		t.Fatalf("expected hit before expiry: %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
	if p.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", p.Len())
	}
}

func TestLRUProviderEvictsOldest(t *testing.T) {
	p, err := NewLRUProvider(LRUConfig{Size: 2, TTL: time.Minute})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := p.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if _, err := p.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if _, err := p.Get(ctx, "c"); err != nil {
		t.Fatalf("expected newest entry present: %v", err)
	}
}

func TestNewLRUProviderRejectsZeroSize(t *testing.T) {
	if _, err := NewLRUProvider(LRUConfig{}); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestNoopProviderAlwaysMisses(t *testing.T) {
	var p Provider = NoopProvider{}
	ctx := context.Background()
	if err := p.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}
