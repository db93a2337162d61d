package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// StatusOK labels analyses that returned a result.
	StatusOK = "ok"

	// AttemptSuccess labels a reasoning attempt that produced a schema-valid object.
	AttemptSuccess = "success"
	// AttemptTimeout labels a reasoning attempt that ran out of its per-attempt budget.
	AttemptTimeout = "timeout"
	// AttemptProviderError labels a reasoning attempt the provider failed outright.
	AttemptProviderError = "provider_error"
	// AttemptInvalidJSON labels a reasoning attempt whose text was not a single JSON object.
	AttemptInvalidJSON = "invalid_json"
	// AttemptSchemaError labels a reasoning attempt that failed the minimal schema check.
	AttemptSchemaError = "schema_error"
)

var (
	analyzeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_rca",
			Name:      "analyze_requests_total",
			Help:      "Total number of analyses handled, partitioned by status (ok or error kind).",
		},
		[]string{"status"},
	)

	analyzeDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "incident_rca",
			Name:      "analyze_seconds",
			Help:      "Analysis latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	reasoningAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_rca",
			Name:      "reasoning_attempts_total",
			Help:      "Reasoning provider attempts, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	groundingRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "incident_rca",
			Name:      "grounding_rejections_total",
			Help:      "Schema-valid reasoning responses rejected for citing evidence outside the ranked set.",
		},
	)
)

// Register attaches incident-rca collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analyzeRequestsTotal,
		analyzeDurationSeconds,
		reasoningAttemptsTotal,
		groundingRejectionsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and status label. An empty status counts
// as StatusOK.
func ObserveAnalysis(duration time.Duration, status string) {
	if status == "" {
		status = StatusOK
	}
	analyzeRequestsTotal.WithLabelValues(status).Inc()
	if duration < 0 {
		duration = 0
	}
	analyzeDurationSeconds.Observe(duration.Seconds())
}

// ObserveReasoningAttempt counts one reasoning attempt.
func ObserveReasoningAttempt(outcome string) {
	reasoningAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveGroundingRejection counts one schema-valid response rejected by the grounding check.
func ObserveGroundingRejection() {
	groundingRejectionsTotal.Inc()
}
