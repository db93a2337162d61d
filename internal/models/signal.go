package models

import "time"

// Category enumerates the kinds of evidence the pipeline understands.
type Category string

const (
	CategoryEvent   Category = "event"
	CategoryRestart Category = "restart"
	CategoryMetric  Category = "metric"
)

// Precedence orders categories when scores tie: events first, then restarts, then metrics.
func (c Category) Precedence() int {
	switch c {
	case CategoryEvent:
		return 0
	case CategoryRestart:
		return 1
	case CategoryMetric:
		return 2
	default:
		return 3
	}
}

// Signal is a single timestamped observation used as evidence.
type Signal struct {
	ID        string         `json:"id"`
	Category  Category       `json:"category"`
	Name      string         `json:"name"`
	Timestamp time.Time      `json:"timestamp"`
	Value     float64        `json:"value"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// RankedSignal is a Signal annotated with its evidentiary score.
type RankedSignal struct {
	Signal
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// EvidenceIDs returns the ids of the ranked set in rank order.
func EvidenceIDs(ranked []RankedSignal) []string {
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	return ids
}
