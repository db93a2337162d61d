package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/miradorstack/incident-rca/internal/models"
)

// DefaultTopK is the number of ranked signals kept when the caller does not ask otherwise.
const DefaultTopK = 5

// Ranker scores signals by evidentiary importance using category weight tables.
type Ranker struct {
	weights *WeightsStore
}

// NewRanker constructs a Ranker reading tables from store; nil uses DefaultWeights.
func NewRanker(store *WeightsStore) *Ranker {
	if store == nil {
		store = NewWeightsStore(DefaultWeights())
	}
	return &Ranker{weights: store}
}

// Rank scores every signal, orders by score descending, then event > restart > metric,
// then input order, and keeps the first topK. topK <= 0 means DefaultTopK.
func (r *Ranker) Rank(signals []models.Signal, topK int) []models.RankedSignal {
	if topK <= 0 {
		topK = DefaultTopK
	}
	w := r.weights.Snapshot()

	ranked := make([]models.RankedSignal, 0, len(signals))
	for _, s := range signals {
		score, reason := Score(w, s)
		ranked = append(ranked, models.RankedSignal{Signal: s, Score: score, Reason: reason})
	}

	slices.SortStableFunc(ranked, func(a, b models.RankedSignal) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Category.Precedence(), b.Category.Precedence())
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// Score returns the rounded score and the human-readable justification for s.
func Score(w Weights, s models.Signal) (float64, string) {
	switch s.Category {
	case models.CategoryEvent:
		weight, ok := w.Events[s.Name]
		if !ok {
			weight = w.DefaultEvent
		}
		return round2(weight), fmt.Sprintf("Kubernetes event: %s", s.Name)
	case models.CategoryMetric:
		weight, ok := w.Metrics[s.Name]
		if !ok {
			weight = w.DefaultMetric
		}
		severity := clamp(s.Value*w.MetricScaleFactor, 0, 1)
		return round2(weight * severity), fmt.Sprintf("Metric spike detected: %s", s.Name)
	case models.CategoryRestart:
		score := math.Min(w.RestartBase+s.Value*w.RestartStep, w.RestartCap)
		return round2(score), fmt.Sprintf("Pod restarted %d times", int(s.Value))
	default:
		return 0, fmt.Sprintf("Unclassified signal: %s", s.Name)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
