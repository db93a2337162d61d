package reasoning

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlaybookRecommend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playbook.yaml")
	if err := os.WriteFile(path, []byte(`rules:
  - id: oom
    match:
      category: event
      reason_contains: ["oomkilled"]
    recommendations: ["Raise memory limit", "Profile heap"]
  - id: restarts
    match:
      category: restart
    recommendations: ["Profile heap", "Check probes"]
fallback: ["Escalate"]
`), 0o644); err != nil {
		t.Fatalf("write playbook: %v", err)
	}

	playbook, err := LoadPlaybook(path, slog.New(slog.NewTextHandler(os.Stdout, nil)))
	if err != nil {
		t.Fatalf("load playbook: %v", err)
	}

	recs := playbook.Recommend([]Evidence{
		{Category: "event", ID: "E1", Reason: "Kubernetes event: OOMKilled"},
		{Category: "restart", ID: "R1", Reason: "Pod restarted 3 times"},
	})
	if diff := cmp.Diff([]string{"Raise memory limit", "Profile heap", "Check probes"}, recs); diff != "" {
		t.Fatalf("unexpected recommendations (-want +got):\n%s", diff)
	}

	fallback := playbook.Recommend([]Evidence{{Category: "metric", ID: "M1", Reason: "Metric spike detected: qps"}})
	if diff := cmp.Diff([]string{"Escalate"}, fallback); diff != "" {
		t.Fatalf("unexpected fallback (-want +got):\n%s", diff)
	}
}

func TestLoadPlaybookMissingFileUsesDefaults(t *testing.T) {
	playbook, err := LoadPlaybook(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if playbook == nil || len(playbook.rules) == 0 {
		t.Fatalf("expected built-in playbook")
	}
}

func TestLoadPlaybookRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rules: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPlaybook(path, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadSamplePlaybook(t *testing.T) {
	pb, err := LoadPlaybook(filepath.Join("..", "..", "configs", "playbook.yaml"), slog.Default())
	if err != nil {
		t.Fatalf("load sample playbook: %v", err)
	}
	got := pb.Recommend([]Evidence{{Category: "event", ID: "E1", Reason: "FailedScheduling"}})
	if diff := cmp.Diff([]string{"Check node capacity and pod resource requests"}, got); diff != "" {
		t.Fatalf("unexpected recommendations (-want +got):\n%s", diff)
	}
}
