package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/miradorstack/incident-rca/internal/models"
)

const batchJSON = `{
  "events": [
    {"pod": "api-7c9d", "namespace": "shop", "reason": "OOMKilled", "timestamp": "2024-06-01T12:00:00Z"}
  ],
  "restarts": [
    {"pod": "api-7c9d", "namespace": "shop", "restart_count": 5, "timestamp": "2024-06-01T12:02:00Z"}
  ],
  "metrics": [
    {"name": "error_rate", "value": 0.02, "timestamp": "2024-06-01T12:01:00Z"}
  ]
}`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("INCIDENT_RCA_CONFIG", "")
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestAnalyzeCommandMockReasoning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(batchJSON), 0o600); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	out, err := runCLI(t, "", "analyze", "-f", path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Incident == nil || result.Incident.Trigger != models.TriggerClusterEvent {
		t.Fatalf("unexpected incident %+v", result.Incident)
	}
	if result.RCA == nil || len(result.RCA.SupportingEvidenceIDs) == 0 {
		t.Fatalf("expected grounded rca, got %+v", result.RCA)
	}
}

func TestAnalyzeCommandDisabledFromStdin(t *testing.T) {
	out, err := runCLI(t, batchJSON, "analyze", "-f", "-", "--mode", "disabled", "--top-k", "2")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if result.RCA != nil {
		t.Fatalf("expected no rca, got %+v", result.RCA)
	}
	if len(result.RankedSignals) != 2 {
		t.Fatalf("expected 2 ranked signals, got %d", len(result.RankedSignals))
	}
}

func TestAnalyzeCommandReportsErrorKind(t *testing.T) {
	_, err := runCLI(t, `{"events": [], "restarts": [], "metrics": []}`, "analyze", "-f", "-")
	if err == nil || !strings.HasPrefix(err.Error(), "empty_input") {
		t.Fatalf("expected empty_input error, got %v", err)
	}
}

func TestAnalyzeCommandYAMLBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	body := `events:
  - pod: api-7c9d
    reason: OOMKilled
    timestamp: "2024-06-01T12:00:00Z"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	out, err := runCLI(t, "", "analyze", "-f", path, "--mode", "disabled")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, `"E1"`) {
		t.Fatalf("expected E1 in output, got %s", out)
	}
}

func TestCollectCommandWithoutSources(t *testing.T) {
	t.Setenv("INCIDENT_RCA_K8S_ENABLED", "false")
	t.Setenv("INCIDENT_RCA_PROMETHEUS_URL", "")
	if _, err := runCLI(t, "", "collect"); err == nil {
		t.Fatalf("expected an error without sources")
	}
}
