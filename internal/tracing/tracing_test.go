package tracing

import (
	"context"
	"testing"

	"github.com/miradorstack/incident-rca/internal/config"
)

func TestDisabledProvider(t *testing.T) {
	p, err := NewProvider(nil, config.TracingConfig{}, "test")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.Enabled() {
		t.Fatalf("expected disabled provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_, span := Tracer("test").Start(context.Background(), "noop")
	span.End()
}

func TestEnabledProviderRequiresEndpoint(t *testing.T) {
	if _, err := NewProvider(nil, config.TracingConfig{Enabled: true}, "test"); err == nil {
		t.Fatalf("expected missing endpoint error")
	}
}
