// Package normalizer turns collector batches into the uniform Signal shape consumed by the
// correlation engine.
package normalizer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/miradorstack/incident-rca/internal/models"
	"github.com/miradorstack/incident-rca/internal/utils"
)

// Normalizer canonicalizes raw signal records.
type Normalizer struct {
	now func() time.Time
}

// New returns a Normalizer. now anchors human-readable timestamps; nil uses time.Now.
func New(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize converts the batch into signals ordered events, restarts, metrics, each in input
// order. Malformed records are rejected with ErrInvalidSignal.
func (n *Normalizer) Normalize(batch models.SignalBatch) ([]models.Signal, error) {
	ref := n.now()
	signals := make([]models.Signal, 0, batch.Len())

	for i, ev := range batch.Events {
		ts, err := parseTimestamp(ev.Timestamp, ref)
		if err != nil {
			return nil, invalid("events", i, err)
		}
		if ev.Reason == "" {
			return nil, invalid("events", i, fmt.Errorf("reason is required"))
		}
		count := ev.Count
		if count <= 0 {
			count = 1
		}
		raw := map[string]any{
			"reason": ev.Reason,
			"count":  count,
		}
		putNonEmpty(raw, "pod", ev.Pod)
		putNonEmpty(raw, "namespace", ev.Namespace)
		putNonEmpty(raw, "message", ev.Message)
		signals = append(signals, models.Signal{
			ID:        ev.ID,
			Category:  models.CategoryEvent,
			Name:      ev.Reason,
			Timestamp: ts,
			Value:     float64(count),
			Raw:       raw,
		})
	}

	for i, rs := range batch.Restarts {
		ts, err := parseTimestamp(rs.Timestamp, ref)
		if err != nil {
			return nil, invalid("restarts", i, err)
		}
		if rs.RestartCount == nil {
			return nil, invalid("restarts", i, fmt.Errorf("restart_count is required"))
		}
		if *rs.RestartCount < 0 {
			return nil, invalid("restarts", i, fmt.Errorf("restart_count must be non-negative"))
		}
		raw := map[string]any{"restart_count": *rs.RestartCount}
		putNonEmpty(raw, "pod", rs.Pod)
		putNonEmpty(raw, "namespace", rs.Namespace)
		signals = append(signals, models.Signal{
			ID:        rs.ID,
			Category:  models.CategoryRestart,
			Name:      rs.Pod,
			Timestamp: ts,
			Value:     float64(*rs.RestartCount),
			Raw:       raw,
		})
	}

	for i, m := range batch.Metrics {
		ts, err := parseTimestamp(m.Timestamp, ref)
		if err != nil {
			return nil, invalid("metrics", i, err)
		}
		if m.Name == "" {
			return nil, invalid("metrics", i, fmt.Errorf("name is required"))
		}
		if m.Value == nil {
			return nil, invalid("metrics", i, fmt.Errorf("value is required"))
		}
		raw := map[string]any{
			"name":  m.Name,
			"value": *m.Value,
		}
		if len(m.Labels) > 0 {
			labels := make(map[string]any, len(m.Labels))
			for k, v := range m.Labels {
				labels[k] = v
			}
			raw["labels"] = labels
		}
		signals = append(signals, models.Signal{
			ID:        m.ID,
			Category:  models.CategoryMetric,
			Name:      m.Name,
			Timestamp: ts,
			Value:     *m.Value,
			Raw:       raw,
		})
	}

	if err := assignIDs(signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// assignIDs rejects duplicate supplied ids, then fills missing ids with a category prefix
// and per-category position. A generated id that a caller already supplied is skipped in
// favour of the next free number in that category.
func assignIDs(signals []models.Signal) error {
	taken := make(map[string]int, len(signals))
	for i, s := range signals {
		if s.ID == "" {
			continue
		}
		if prev, ok := taken[s.ID]; ok {
			return utils.NewAppError(utils.KindInvalidSignal, "normalize",
				fmt.Sprintf("duplicate signal id %q (positions %d and %d)", s.ID, prev, i), nil)
		}
		taken[s.ID] = i
	}

	positions := make(map[models.Category]int, 3)
	for i := range signals {
		positions[signals[i].Category]++
		if signals[i].ID != "" {
			continue
		}
		n := positions[signals[i].Category]
		id := idPrefix(signals[i].Category) + strconv.Itoa(n)
		for {
			if _, ok := taken[id]; !ok {
				break
			}
			n++
			id = idPrefix(signals[i].Category) + strconv.Itoa(n)
		}
		positions[signals[i].Category] = n
		signals[i].ID = id
		taken[id] = i
	}
	return nil
}

func idPrefix(c models.Category) string {
	switch c {
	case models.CategoryEvent:
		return "E"
	case models.CategoryRestart:
		return "R"
	default:
		return "M"
	}
}

func parseTimestamp(value string, ref time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	return utils.ParseTimestamp(value, ref)
}

func invalid(list string, index int, err error) error {
	return utils.NewAppError(utils.KindInvalidSignal, "normalize", fmt.Sprintf("%s[%d]", list, index), err)
}

func putNonEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
