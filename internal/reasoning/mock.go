package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/miradorstack/incident-rca/internal/models"
)

// MockMode selects the canned behaviour of MockProvider.
type MockMode string

const (
	// MockGood answers with a grounded RCA citing the top evidence.
	MockGood MockMode = "good"
	// MockInsufficient answers with the insufficient_evidence sentinel.
	MockInsufficient MockMode = "insufficient"
	// MockInvalidJSON answers with prose around a JSON object.
	MockInvalidJSON MockMode = "invalid_json"
	// MockHallucination cites an id that is not in the evidence block.
	MockHallucination MockMode = "hallucination"
	// MockIncomplete omits required fields.
	MockIncomplete MockMode = "incomplete"
	// MockTimeout blocks until the attempt context is done.
	MockTimeout MockMode = "timeout"
)

// Valid reports whether m is a known mode.
func (m MockMode) Valid() bool {
	switch m {
	case MockGood, MockInsufficient, MockInvalidJSON, MockHallucination, MockIncomplete, MockTimeout:
		return true
	default:
		return false
	}
}

const mockCitationLimit = 3

var evidenceLine = regexp.MustCompile(`(?m)^\d+\. \[([A-Z]+)\] id=(\S+) \| ([^|]*?) \|`)

// MockProvider is a deterministic offline provider. It reads the evidence ids back out of the
// prompt, so its good answers are grounded in whatever evidence it was shown.
type MockProvider struct {
	mode     MockMode
	playbook *Playbook
}

// NewMockProvider constructs a MockProvider. A nil playbook uses DefaultPlaybook.
func NewMockProvider(mode MockMode, playbook *Playbook) (*MockProvider, error) {
	if mode == "" {
		mode = MockGood
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown mock mode %q", mode)
	}
	if playbook == nil {
		playbook = DefaultPlaybook()
	}
	return &MockProvider{mode: mode, playbook: playbook}, nil
}

// Name implements Provider.
func (m *MockProvider) Name() string {
	return "mock/" + string(m.mode)
}

// Run implements Provider.
func (m *MockProvider) Run(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	evidence := ParseEvidence(prompt)

	switch m.mode {
	case MockTimeout:
		<-ctx.Done()
		return "", ctx.Err()
	case MockInvalidJSON:
		return "Sure! Here is my analysis:\n```json\n{\"root_cause\": \"unknown\"}\n```", nil
	case MockIncomplete:
		return encode(map[string]any{
			"summary": "The service degraded during the incident window.",
		})
	case MockInsufficient:
		return encode(map[string]any{
			"summary":                 "The supplied evidence does not support a conclusion.",
			"root_cause":              models.InsufficientEvidence,
			"causal_chain":            []string{},
			"supporting_evidence_ids": []string{},
			"recommended_actions":     []string{"Collect more signals for the affected workload"},
			"confidence":              0.2,
		})
	case MockHallucination:
		return encode(map[string]any{
			"summary":                 "A node failure caused the outage.",
			"root_cause":              "Node kernel panic",
			"causal_chain":            []string{"node panicked", "pods evicted"},
			"supporting_evidence_ids": []string{unknownID(evidence)},
			"recommended_actions":     []string{"Replace the node"},
			"confidence":              0.9,
		})
	default:
		return m.grounded(evidence)
	}
}

func (m *MockProvider) grounded(evidence []Evidence) (string, error) {
	if len(evidence) == 0 {
		return encode(map[string]any{
			"summary":                 "No evidence was supplied.",
			"root_cause":              models.InsufficientEvidence,
			"supporting_evidence_ids": []string{},
			"confidence":              0.0,
		})
	}

	cited := evidence
	if len(cited) > mockCitationLimit {
		cited = cited[:mockCitationLimit]
	}
	ids := make([]string, 0, len(cited))
	chain := make([]string, 0, len(cited))
	for _, ev := range cited {
		ids = append(ids, ev.ID)
		chain = append(chain, ev.Reason)
	}

	top := evidence[0]
	return encode(map[string]any{
		"summary":                 fmt.Sprintf("The incident is most strongly explained by %s (%s).", strings.ToLower(top.Reason), top.ID),
		"root_cause":              top.Reason,
		"causal_chain":            chain,
		"supporting_evidence_ids": ids,
		"recommended_actions":     m.playbook.Recommend(evidence),
		"confidence":              0.82,
	})
}

// ParseEvidence extracts the enumerated evidence lines from a prompt, in prompt order.
func ParseEvidence(prompt string) []Evidence {
	matches := evidenceLine.FindAllStringSubmatch(prompt, -1)
	out := make([]Evidence, 0, len(matches))
	for _, m := range matches {
		out = append(out, Evidence{
			Category: strings.ToLower(m[1]),
			ID:       m[2],
			Reason:   strings.TrimSpace(m[3]),
		})
	}
	return out
}

func unknownID(evidence []Evidence) string {
	known := make(map[string]struct{}, len(evidence))
	for _, ev := range evidence {
		known[ev.ID] = struct{}{}
	}
	id := "E99"
	for {
		if _, taken := known[id]; !taken {
			return id
		}
		id += "x"
	}
}

func encode(v map[string]any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
