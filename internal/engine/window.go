package engine

import (
	"fmt"
	"time"

	"github.com/miradorstack/incident-rca/internal/models"
	"github.com/miradorstack/incident-rca/internal/utils"
)

// DetectorProfile selects which incident window contract a deployment uses.
type DetectorProfile string

const (
	// ProfileHeuristic pads around the earliest abnormal signal and infers a trigger.
	// No abnormal signal yields a nil window.
	ProfileHeuristic DetectorProfile = "heuristic"
	// ProfileBounds spans min..max timestamp of an already-relevant batch.
	ProfileBounds DetectorProfile = "bounds"
)

// Detector derives the incident window from a batch of signals. Both profiles fail with
// ErrEmptyInput when signals is empty.
type Detector interface {
	Detect(signals []models.Signal) (*models.IncidentWindow, error)
}

// WindowConfig tunes the heuristic profile.
type WindowConfig struct {
	Padding           time.Duration
	AbnormalThreshold float64
	SpikeThreshold    float64
}

// DefaultWindowConfig returns 5 minute padding, 0.05 abnormal and 0.1 spike thresholds.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Padding:           5 * time.Minute,
		AbnormalThreshold: 0.05,
		SpikeThreshold:    0.1,
	}
}

// NewDetector returns the detector for profile.
func NewDetector(profile DetectorProfile, cfg WindowConfig) (Detector, error) {
	switch profile {
	case ProfileHeuristic, "":
		return &HeuristicDetector{cfg: cfg}, nil
	case ProfileBounds:
		return BoundsDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown detector profile %q", profile)
	}
}

// HeuristicDetector implements the padded, trigger-classifying contract.
type HeuristicDetector struct {
	cfg WindowConfig
}

// NewHeuristicDetector constructs a HeuristicDetector.
func NewHeuristicDetector(cfg WindowConfig) *HeuristicDetector {
	return &HeuristicDetector{cfg: cfg}
}

// Detect returns nil, nil when no signal is abnormal.
func (d *HeuristicDetector) Detect(signals []models.Signal) (*models.IncidentWindow, error) {
	if len(signals) == 0 {
		return nil, utils.NewAppError(utils.KindEmptyInput, "detect", "no signals supplied", nil)
	}

	var incidentStart time.Time
	found := false
	for _, s := range signals {
		if !d.abnormal(s) {
			continue
		}
		if !found || s.Timestamp.Before(incidentStart) {
			incidentStart = s.Timestamp
			found = true
		}
	}
	if !found {
		return nil, nil
	}

	start := incidentStart.Add(-d.cfg.Padding)
	end := incidentStart.Add(d.cfg.Padding)
	return &models.IncidentWindow{
		Start:           start,
		End:             end,
		DurationMinutes: utils.DurationMinutes(start, end),
		Trigger:         d.trigger(signals),
		Confidence:      ConfidenceForCount(len(signals)),
	}, nil
}

func (d *HeuristicDetector) abnormal(s models.Signal) bool {
	switch s.Category {
	case models.CategoryEvent:
		return true
	case models.CategoryMetric:
		return s.Value > d.cfg.AbnormalThreshold
	case models.CategoryRestart:
		return s.Value > 0
	default:
		return false
	}
}

func (d *HeuristicDetector) trigger(signals []models.Signal) models.Trigger {
	var hasEvent, hasRestart bool
	for _, s := range signals {
		switch s.Category {
		case models.CategoryMetric:
			if s.Value > d.cfg.SpikeThreshold {
				return models.TriggerMetricSpike
			}
		case models.CategoryEvent:
			hasEvent = true
		case models.CategoryRestart:
			hasRestart = true
		}
	}
	switch {
	case hasEvent:
		return models.TriggerClusterEvent
	case hasRestart:
		return models.TriggerRestartStorm
	default:
		return models.TriggerUnknown
	}
}

// BoundsDetector implements the min/max contract with no padding or trigger inference.
type BoundsDetector struct{}

// Detect spans the earliest to the latest timestamp in signals.
func (BoundsDetector) Detect(signals []models.Signal) (*models.IncidentWindow, error) {
	if len(signals) == 0 {
		return nil, utils.NewAppError(utils.KindEmptyInput, "detect", "no signals supplied", nil)
	}
	start, end := signals[0].Timestamp, signals[0].Timestamp
	for _, s := range signals[1:] {
		if s.Timestamp.Before(start) {
			start = s.Timestamp
		}
		if s.Timestamp.After(end) {
			end = s.Timestamp
		}
	}
	return &models.IncidentWindow{
		Start:           start,
		End:             end,
		DurationMinutes: utils.DurationMinutes(start, end),
		Trigger:         models.TriggerUnknown,
		Confidence:      ConfidenceForCount(len(signals)),
	}, nil
}

// ConfidenceForCount is a coarse step function of the batch size, not a statistical
// estimate: >=5 signals 0.85, >=3 0.70, >=1 0.50, otherwise 0.
func ConfidenceForCount(n int) float64 {
	switch {
	case n >= 5:
		return 0.85
	case n >= 3:
		return 0.70
	case n >= 1:
		return 0.50
	default:
		return 0
	}
}
