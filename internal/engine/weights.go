package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Weights holds the static importance tables used by the ranker. It is plain data so it
// can be tuned from a file without code changes.
type Weights struct {
	Events            map[string]float64
	Metrics           map[string]float64
	DefaultEvent      float64
	DefaultMetric     float64
	MetricScaleFactor float64
	RestartBase       float64
	RestartStep       float64
	RestartCap        float64
}

// DefaultWeights returns the built-in tables.
func DefaultWeights() Weights {
	return Weights{
		Events: map[string]float64{
			"OOMKilled":        1.0,
			"CrashLoopBackOff": 0.9,
			"Failed":           0.8,
			"BackOff":          0.7,
		},
		Metrics: map[string]float64{
			"error_rate":   0.9,
			"latency_p95":  0.8,
			"cpu_usage":    0.6,
			"memory_usage": 0.6,
		},
		DefaultEvent:      0.5,
		DefaultMetric:     0.5,
		MetricScaleFactor: 5,
		RestartBase:       0.4,
		RestartStep:       0.1,
		RestartCap:        0.9,
	}
}

// weightsFile mirrors the YAML layout; nil fields keep the defaults.
type weightsFile struct {
	Events            map[string]float64 `yaml:"events"`
	Metrics           map[string]float64 `yaml:"metrics"`
	DefaultEvent      *float64           `yaml:"default_event"`
	DefaultMetric     *float64           `yaml:"default_metric"`
	MetricScaleFactor *float64           `yaml:"metric_scale_factor"`
	Restart           struct {
		Base *float64 `yaml:"base"`
		Step *float64 `yaml:"step"`
		Cap  *float64 `yaml:"cap"`
	} `yaml:"restart"`
}

// LoadWeights reads a weights file and overlays it on DefaultWeights. An empty path returns
// the defaults.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Weights{}, fmt.Errorf("load weights from %q: %w", path, err)
	}
	var wf weightsFile
	if err := k.UnmarshalWithConf("", &wf, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return Weights{}, fmt.Errorf("parse weights from %q: %w", path, err)
	}

	maps.Copy(w.Events, wf.Events)
	maps.Copy(w.Metrics, wf.Metrics)
	overlay(&w.DefaultEvent, wf.DefaultEvent)
	overlay(&w.DefaultMetric, wf.DefaultMetric)
	overlay(&w.MetricScaleFactor, wf.MetricScaleFactor)
	overlay(&w.RestartBase, wf.Restart.Base)
	overlay(&w.RestartStep, wf.Restart.Step)
	overlay(&w.RestartCap, wf.Restart.Cap)

	if err := w.validate(); err != nil {
		return Weights{}, fmt.Errorf("weights %q: %w", path, err)
	}
	return w, nil
}

func (w Weights) validate() error {
	for name, v := range w.Events {
		if v < 0 || v > 1 {
			return fmt.Errorf("event weight %s=%v outside [0,1]", name, v)
		}
	}
	for name, v := range w.Metrics {
		if v < 0 || v > 1 {
			return fmt.Errorf("metric weight %s=%v outside [0,1]", name, v)
		}
	}
	if w.MetricScaleFactor <= 0 {
		return fmt.Errorf("metric_scale_factor must be positive")
	}
	if w.RestartCap < 0 || w.RestartCap > 1 {
		return fmt.Errorf("restart cap %v outside [0,1]", w.RestartCap)
	}
	return nil
}

func overlay(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// WeightsStore publishes the current weight tables. Readers get an immutable snapshot, so
// a reload never changes the tables a request already started with.
type WeightsStore struct {
	current atomic.Pointer[Weights]
}

// NewWeightsStore returns a store seeded with w.
func NewWeightsStore(w Weights) *WeightsStore {
	s := &WeightsStore{}
	s.Store(w)
	return s
}

// Snapshot returns the current tables.
func (s *WeightsStore) Snapshot() Weights {
	if s == nil {
		return DefaultWeights()
	}
	if w := s.current.Load(); w != nil {
		return *w
	}
	return DefaultWeights()
}

// Store replaces the current tables. The maps are copied.
func (s *WeightsStore) Store(w Weights) {
	w.Events = maps.Clone(w.Events)
	w.Metrics = maps.Clone(w.Metrics)
	s.current.Store(&w)
}

// WatchWeights reloads path into store whenever the file changes. Invalid files are logged
// and the previous tables stay in place.
func WatchWeights(path string, store *WeightsStore, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	provider := file.Provider(path)
	return provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			logger.Warn("weights watch error", slog.String("path", path), slog.Any("error", err))
			return
		}
		w, err := LoadWeights(path)
		if err != nil {
			logger.Warn("weights reload rejected", slog.String("path", path), slog.Any("error", err))
			return
		}
		store.Store(w)
		logger.Info("weights reloaded", slog.String("path", path))
	})
}
