package reasoning

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Playbook maps evidence to canned remediation steps for the mock provider.
type Playbook struct {
	rules    []PlaybookRule
	fallback []string
	logger   *slog.Logger
}

// PlaybookRule represents a single remediation rule.
type PlaybookRule struct {
	ID              string        `yaml:"id"`
	Match           PlaybookMatch `yaml:"match"`
	Recommendations []string      `yaml:"recommendations"`
}

// PlaybookMatch defines optional attributes for rule matching. Empty fields match anything.
type PlaybookMatch struct {
	Category       string   `yaml:"category"`
	ReasonContains []string `yaml:"reason_contains"`
}

// PlaybookFile is the YAML root structure.
type PlaybookFile struct {
	Rules    []PlaybookRule `yaml:"rules"`
	Fallback []string       `yaml:"fallback"`
}

// Evidence is one cited line of the prompt's evidence block.
type Evidence struct {
	Category string
	ID       string
	Reason   string
}

// DefaultPlaybook returns the built-in rules used when no playbook file is configured.
func DefaultPlaybook() *Playbook {
	return &Playbook{
		rules: []PlaybookRule{
			{
				ID:              "oom",
				Match:           PlaybookMatch{Category: "event", ReasonContains: []string{"OOMKilled"}},
				Recommendations: []string{"Increase the container memory limit", "Profile memory usage of the affected workload"},
			},
			{
				ID:              "crashloop",
				Match:           PlaybookMatch{ReasonContains: []string{"CrashLoopBackOff", "BackOff"}},
				Recommendations: []string{"Inspect logs of the previous container instance"},
			},
			{
				ID:              "restarts",
				Match:           PlaybookMatch{Category: "restart"},
				Recommendations: []string{"Check liveness probe thresholds"},
			},
			{
				ID:              "errors",
				Match:           PlaybookMatch{Category: "metric", ReasonContains: []string{"error_rate"}},
				Recommendations: []string{"Roll back the most recent deployment"},
			},
			{
				ID:              "latency",
				Match:           PlaybookMatch{Category: "metric", ReasonContains: []string{"latency"}},
				Recommendations: []string{"Check downstream dependency latency", "Increase replicas"},
			},
		},
		fallback: []string{"Review the cited evidence and recent changes to the service"},
		logger:   slog.Default(),
	}
}

// LoadPlaybook loads rules from path. An empty or missing path returns DefaultPlaybook.
func LoadPlaybook(path string, logger *slog.Logger) (*Playbook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return DefaultPlaybook(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("playbook not found, using built-in rules", slog.String("path", path))
			return DefaultPlaybook(), nil
		}
		return nil, err
	}
	var file PlaybookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &Playbook{rules: file.Rules, fallback: file.Fallback, logger: logger}, nil
}

// Recommend returns the de-duplicated recommendations of every rule matched by evidence,
// in rule order. No match yields the fallback list.
func (p *Playbook) Recommend(evidence []Evidence) []string {
	if p == nil {
		return nil
	}

	matched := make([]string, 0)
	for _, rule := range p.rules {
		if !ruleMatches(rule.Match, evidence) {
			continue
		}
		matched = appendUnique(matched, rule.Recommendations...)
	}
	if len(matched) == 0 {
		return appendUnique(matched, p.fallback...)
	}
	return matched
}

func ruleMatches(match PlaybookMatch, evidence []Evidence) bool {
	for _, ev := range evidence {
		if match.Category != "" && !strings.EqualFold(match.Category, ev.Category) {
			continue
		}
		if reasonContains(match.ReasonContains, ev.Reason) {
			return true
		}
	}
	return false
}

func reasonContains(keywords []string, reason string) bool {
	if len(keywords) == 0 {
		return true
	}
	lowered := strings.ToLower(reason)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec] = struct{}{}
	}
	for _, item := range additions {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		existing = append(existing, item)
		seen[item] = struct{}{}
	}
	return existing
}
