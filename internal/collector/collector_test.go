package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/miradorstack/incident-rca/internal/models"
)

type staticSource struct {
	name  string
	batch models.SignalBatch
	err   error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Collect(ctx context.Context, _ Query) (models.SignalBatch, error) {
	if s.err != nil {
		return models.SignalBatch{}, s.err
	}
	return s.batch, ctx.Err()
}

func TestCollectorMergesInSourceOrder(t *testing.T) {
	one := 1.0
	c := New(nil,
		staticSource{name: "a", batch: models.SignalBatch{Events: []models.EventRecord{{Reason: "OOMKilled"}}}},
		staticSource{name: "b", batch: models.SignalBatch{
			Events:  []models.EventRecord{{Reason: "BackOff"}},
			Metrics: []models.MetricRecord{{Name: "error_rate", Value: &one}},
		}},
	)

	batch, err := c.Collect(context.Background(), Query{At: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var reasons []string
	for _, ev := range batch.Events {
		reasons = append(reasons, ev.Reason)
	}
	if diff := cmp.Diff([]string{"OOMKilled", "BackOff"}, reasons); diff != "" {
		t.Fatalf("unexpected merge order (-want +got):\n%s", diff)
	}
	if len(batch.Metrics) != 1 {
		t.Fatalf("expected metrics to be merged")
	}
	if diff := cmp.Diff([]string{"a", "b"}, c.Sources()); diff != "" {
		t.Fatalf("unexpected sources (-want +got):\n%s", diff)
	}
}

func TestCollectorPropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	c := New(nil, staticSource{name: "ok"}, staticSource{name: "broken", err: boom})
	if _, err := c.Collect(context.Background(), Query{}); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestCollectorWithoutSources(t *testing.T) {
	if _, err := New(nil).Collect(context.Background(), Query{}); err == nil {
		t.Fatalf("expected error without sources")
	}
}
