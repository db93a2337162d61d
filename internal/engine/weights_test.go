package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func writeWeights(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	return path
}

func TestLoadWeightsOverlaysDefaults(t *testing.T) {
	path := writeWeights(t, `events:
  Evicted: 0.75
metrics:
  error_rate: 0.95
metric_scale_factor: 10
restart:
  cap: 0.8
`)
	w, err := LoadWeights(path)
	if err != nil {
		t.Fatalf("load weights: %v", err)
	}
	if w.Events["Evicted"] != 0.75 || w.Events["OOMKilled"] != 1.0 {
		t.Fatalf("unexpected event weights %+v", w.Events)
	}
	if w.Metrics["error_rate"] != 0.95 || w.Metrics["latency_p95"] != 0.8 {
		t.Fatalf("unexpected metric weights %+v", w.Metrics)
	}
	if w.MetricScaleFactor != 10 || w.RestartCap != 0.8 || w.RestartBase != 0.4 {
		t.Fatalf("unexpected scalars %+v", w)
	}
}

func TestLoadWeightsEmptyPath(t *testing.T) {
	w, err := LoadWeights("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.DefaultEvent != 0.5 {
		t.Fatalf("expected defaults, got %+v", w)
	}
}

func TestLoadWeightsRejectsOutOfRange(t *testing.T) {
	path := writeWeights(t, "events:\n  OOMKilled: 1.5\n")
	if _, err := LoadWeights(path); err == nil {
		t.Fatalf("expected out-of-range weight to be rejected")
	}
}

func TestWeightsStoreSnapshotIsolation(t *testing.T) {
	w := DefaultWeights()
	store := NewWeightsStore(w)
	w.Events["OOMKilled"] = 0.1

	snap := store.Snapshot()
	if snap.Events["OOMKilled"] != 1.0 {
		t.Fatalf("store must copy tables on write, got %v", snap.Events["OOMKilled"])
	}

	next := DefaultWeights()
	next.DefaultEvent = 0.3
	store.Store(next)
	if snap.DefaultEvent != 0.5 || store.Snapshot().DefaultEvent != 0.3 {
		t.Fatalf("earlier snapshot must not change after Store")
	}
}

func TestNilWeightsStoreReturnsDefaults(t *testing.T) {
	var store *WeightsStore
	if store.Snapshot().RestartCap != 0.9 {
		t.Fatalf("expected defaults from nil store")
	}
}

func TestLoadSampleWeights(t *testing.T) {
	w, err := LoadWeights(filepath.Join("..", "..", "configs", "weights.yaml"))
	if err != nil {
		t.Fatalf("load sample weights: %v", err)
	}
	if w.Events["FailedScheduling"] != 0.6 || w.Events["OOMKilled"] != 1.0 {
		t.Fatalf("unexpected event weights: %v", w.Events)
	}
}
