package reasoning

import (
	"context"
	"testing"
	"time"

	"github.com/miradorstack/incident-rca/internal/cache"
)

func newTestCache(t *testing.T) *cache.LRUProvider {
	t.Helper()
	store, err := cache.NewLRUProvider(cache.LRUConfig{Size: 8, TTL: time.Minute})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return store
}

func TestCachedProviderServesRepeatPrompts(t *testing.T) {
	next := &scriptedProvider{replies: []scriptedReply{{text: validJSON}}}
	provider := NewCachedProvider(nil, next, newTestCache(t), time.Minute)

	for i := 0; i < 3; i++ {
		text, err := provider.Run(context.Background(), "same prompt")
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if text != validJSON {
			t.Fatalf("unexpected text %q", text)
		}
	}
	if next.Calls() != 1 {
		t.Fatalf("expected one upstream call, got %d", next.Calls())
	}
	if provider.Name() != "scripted" {
		t.Fatalf("cached provider must keep the upstream name, got %s", provider.Name())
	}
}

func TestCachedProviderSkipsInvalidJSON(t *testing.T) {
	next := &scriptedProvider{replies: []scriptedReply{{text: "not json"}, {text: validJSON}}}
	store := newTestCache(t)
	provider := NewCachedProvider(nil, next, store, time.Minute)

	if _, err := provider.Run(context.Background(), "p"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("invalid text must not be cached")
	}
	text, err := provider.Run(context.Background(), "p")
	if err != nil || text != validJSON {
		t.Fatalf("expected upstream retry, got %q %v", text, err)
	}
	if next.Calls() != 2 {
		t.Fatalf("expected two upstream calls, got %d", next.Calls())
	}
}

func TestCachedProviderKeysByPrompt(t *testing.T) {
	next := &scriptedProvider{replies: []scriptedReply{{text: validJSON}}}
	provider := NewCachedProvider(nil, next, newTestCache(t), time.Minute)

	_, _ = provider.Run(context.Background(), "a")
	_, _ = provider.Run(context.Background(), "b")
	if next.Calls() != 2 {
		t.Fatalf("distinct prompts must not share entries, got %d calls", next.Calls())
	}
}

func TestCachedProviderSkipsSchemaFailures(t *testing.T) {
	next := &scriptedProvider{replies: []scriptedReply{{text: `{"summary":"missing required fields"}`}, {text: validJSON}}}
	store := newTestCache(t)
	provider := NewCachedProvider(nil, next, store, time.Minute)

	if _, err := provider.Run(context.Background(), "p"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("schema-invalid text must not be cached")
	}
}

func TestClientRetryBypassesCacheAfterSchemaFailure(t *testing.T) {
	next := &scriptedProvider{replies: []scriptedReply{{text: `{"summary":"missing required fields"}`}, {text: validJSON}}}
	store := newTestCache(t)
	cached := NewCachedProvider(nil, next, store, time.Minute)
	client := NewClient(nil, cached, ClientConfig{MaxAttempts: 2, Timeout: time.Second, RetryDelay: time.Millisecond}, &fakeSleeper{})

	resp, err := client.Run(context.Background(), "p")
	if err != nil {
		t.Fatalf("expected the second attempt to succeed, got %v", err)
	}
	if resp["root_cause"] == nil {
		t.Fatalf("unexpected response %v", resp)
	}
	if next.Calls() != 2 {
		t.Fatalf("expected two upstream calls, got %d", next.Calls())
	}
	if store.Len() != 1 {
		t.Fatalf("expected the accepted answer to be cached, got %d entries", store.Len())
	}

	if _, err := client.Run(context.Background(), "p"); err != nil {
		t.Fatalf("cached run: %v", err)
	}
	if next.Calls() != 2 {
		t.Fatalf("expected the accepted answer to be served from cache, got %d calls", next.Calls())
	}
}
