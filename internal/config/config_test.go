package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INCIDENT_RCA_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Server.Address != ":50051" || cfg.Analysis.TopK != 5 || cfg.Reasoning.MaxAttempts != 2 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Analysis.WindowPadding != 5*time.Minute || cfg.Analysis.Detector != "heuristic" {
		t.Fatalf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`server:
  address: ":6000"
analysis:
  detector: bounds
  topK: 3
reasoning:
  mode: disabled
  retryDelay: 1s
collector:
  prometheus:
    queries:
      error_rate: sum(rate(http_requests_total{code=~"5.."}[5m]))
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("INCIDENT_RCA_TOP_K", "7")
	t.Setenv("INCIDENT_RCA_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":6000" {
		t.Fatalf("expected file address, got %s", cfg.Server.Address)
	}
	if cfg.Server.MetricsAddress != ":2112" {
		t.Fatalf("expected default metrics address to survive, got %s", cfg.Server.MetricsAddress)
	}
	if cfg.Analysis.Detector != "bounds" || cfg.Analysis.TopK != 7 {
		t.Fatalf("unexpected analysis config: %+v", cfg.Analysis)
	}
	if cfg.Reasoning.Mode != "disabled" || cfg.Reasoning.RetryDelay != time.Second {
		t.Fatalf("unexpected reasoning config: %+v", cfg.Reasoning)
	}
	if !cfg.Logging.JSON {
		t.Fatalf("expected json logging from env")
	}
	if !strings.Contains(cfg.Collector.Prometheus.Queries["error_rate"], "http_requests_total") {
		t.Fatalf("unexpected queries: %+v", cfg.Collector.Prometheus.Queries)
	}
}

func TestLoadRejectsInvalidDetector(t *testing.T) {
	t.Setenv("INCIDENT_RCA_DETECTOR", "magic")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected invalid detector to be rejected")
	}
}

func TestLoadRejectsLiveWithoutProvider(t *testing.T) {
	t.Setenv("INCIDENT_RCA_REASONING_MODE", "live")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected live mode without provider to be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestLoadSampleConfig(t *testing.T) {
	t.Setenv("INCIDENT_RCA_CONFIG", "")
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("load sample config: %v", err)
	}
	if cfg.Reasoning.Mode != "mock" || !cfg.Reasoning.Cache.Enabled || cfg.Reasoning.Cache.TTL != 10*time.Minute {
		t.Fatalf("unexpected reasoning config: %+v", cfg.Reasoning)
	}
	if len(cfg.Collector.Prometheus.Queries) != 2 || cfg.Collector.Kubernetes.Lookback != 30*time.Minute {
		t.Fatalf("unexpected collector config: %+v", cfg.Collector)
	}
}
