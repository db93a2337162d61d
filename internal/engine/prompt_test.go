package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/miradorstack/incident-rca/internal/models"
)

func sampleWindowAndRanked() (models.IncidentWindow, []models.RankedSignal) {
	window := models.IncidentWindow{
		Start:           t0.Add(-5 * time.Minute),
		End:             t0.Add(5 * time.Minute),
		DurationMinutes: 10,
		Trigger:         models.TriggerClusterEvent,
		Confidence:      0.5,
	}
	oom := event("E1", "OOMKilled", t0)
	oom.Raw = map[string]any{"pod": "api-7c9d", "namespace": "shop", "reason": "OOMKilled", "id": "E1"}
	restarts := restart("R1", 5, t0.Add(2*time.Minute))
	restarts.Raw = map[string]any{"restart_count": 5, "pod": "api-7c9d"}
	ranked := NewRanker(nil).Rank([]models.Signal{oom, restarts}, 0)
	return window, ranked
}

func TestBuildIsDeterministic(t *testing.T) {
	window, ranked := sampleWindowAndRanked()
	pc := PromptContext{Service: "checkout", Namespace: "shop"}
	first := PromptBuilder{}.Build(window, ranked, pc)
	for i := 0; i < 20; i++ {
		if got := (PromptBuilder{}).Build(window, ranked, pc); got != first {
			t.Fatalf("prompt changed between builds")
		}
	}
}

func TestBuildRendersSections(t *testing.T) {
	window, ranked := sampleWindowAndRanked()
	prompt := PromptBuilder{}.Build(window, ranked, PromptContext{Service: "checkout"})

	for _, want := range []string{
		"insufficient_evidence",
		"- Service: checkout",
		"- Start: 2024-06-01T11:55:00Z",
		"- End: 2024-06-01T12:05:00Z",
		"- Duration: 10 minutes",
		"- Trigger: cluster_event",
		"- Detection confidence: 0.50",
		`1. [EVENT] id=E1 | Kubernetes event: OOMKilled | score=1.00 | at=2024-06-01T12:00:00Z | details={"namespace":"shop","pod":"api-7c9d","reason":"OOMKilled"}`,
		`2. [RESTART] id=R1 | Pod restarted 5 times | score=0.90 | at=2024-06-01T12:02:00Z | details={"pod":"api-7c9d","restart_count":5}`,
		`"supporting_evidence_ids"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "Namespace:") {
		t.Fatalf("empty namespace must not be rendered")
	}
}

func TestBuildRendersIDsOnlyInEvidenceLines(t *testing.T) {
	window, ranked := sampleWindowAndRanked()
	prompt := PromptBuilder{}.Build(window, ranked, PromptContext{})
	if n := strings.Count(prompt, "E1"); n != 1 {
		t.Fatalf("expected id E1 exactly once, found %d", n)
	}
}

func TestBuildWithoutEvidence(t *testing.T) {
	window, _ := sampleWindowAndRanked()
	prompt := PromptBuilder{}.Build(window, nil, PromptContext{})
	if !strings.Contains(prompt, "(none)") {
		t.Fatalf("expected empty evidence marker")
	}
	if strings.Contains(prompt, "Incident Context") {
		t.Fatalf("context section must be omitted when empty")
	}
}
