package models

// SignalBatch is the collector contract: three lists of raw records.
type SignalBatch struct {
	Events   []EventRecord   `json:"events" yaml:"events"`
	Restarts []RestartRecord `json:"restarts" yaml:"restarts"`
	Metrics  []MetricRecord  `json:"metrics" yaml:"metrics"`
}

// Len returns the number of records across all lists.
func (b SignalBatch) Len() int {
	return len(b.Events) + len(b.Restarts) + len(b.Metrics)
}

// EventRecord is a cluster event as reported by the collector.
type EventRecord struct {
	ID        string `json:"id,omitempty" yaml:"id"`
	Pod       string `json:"pod,omitempty" yaml:"pod"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace"`
	Reason    string `json:"reason" yaml:"reason"`
	Message   string `json:"message,omitempty" yaml:"message"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Count     int    `json:"count,omitempty" yaml:"count"`
}

// RestartRecord reports the restart count of a workload.
type RestartRecord struct {
	ID           string `json:"id,omitempty" yaml:"id"`
	Pod          string `json:"pod" yaml:"pod"`
	Namespace    string `json:"namespace,omitempty" yaml:"namespace"`
	RestartCount *int   `json:"restart_count" yaml:"restart_count"`
	Timestamp    string `json:"timestamp" yaml:"timestamp"`
}

// MetricRecord is a single metric observation.
type MetricRecord struct {
	ID        string            `json:"id,omitempty" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Value     *float64          `json:"value" yaml:"value"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels"`
}

// ReasoningMode selects whether and how the pipeline calls a reasoning provider.
type ReasoningMode string

const (
	ReasoningDisabled ReasoningMode = "disabled"
	ReasoningMock     ReasoningMode = "mock"
	ReasoningLive     ReasoningMode = "live"
)

// Valid reports whether m is a known mode.
func (m ReasoningMode) Valid() bool {
	switch m {
	case ReasoningDisabled, ReasoningMock, ReasoningLive:
		return true
	default:
		return false
	}
}

// AnalyzeOptions tunes a single analysis request. Zero values fall back to pipeline defaults.
type AnalyzeOptions struct {
	WindowPaddingMinutes int           `json:"window_padding_minutes,omitempty"`
	TopK                 int           `json:"top_k,omitempty"`
	ReasoningMode        ReasoningMode `json:"reasoning_mode,omitempty"`
	Service              string        `json:"service,omitempty"`
	Namespace            string        `json:"namespace,omitempty"`
}
