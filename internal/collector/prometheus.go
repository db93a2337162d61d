package collector

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/miradorstack/incident-rca/internal/config"
	"github.com/miradorstack/incident-rca/internal/models"
)

// PrometheusSource evaluates named instant queries and turns each sample into a metric record
// named after its query.
type PrometheusSource struct {
	api     promv1.API
	queries map[string]string
	timeout time.Duration
}

// NewPrometheusSource constructs a PrometheusSource against cfg.Address.
func NewPrometheusSource(cfg config.PrometheusConfig) (*PrometheusSource, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("prometheus address is required")
	}
	client, err := api.NewClient(api.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("create prometheus client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PrometheusSource{api: promv1.NewAPI(client), queries: cfg.Queries, timeout: timeout}, nil
}

// Name implements Source.
func (p *PrometheusSource) Name() string { return "prometheus" }

// Collect implements Source. Queries run in name order; NaN and infinite samples are dropped.
func (p *PrometheusSource) Collect(ctx context.Context, q Query) (models.SignalBatch, error) {
	at := q.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	names := make([]string, 0, len(p.queries))
	for name := range p.queries {
		names = append(names, name)
	}
	slices.Sort(names)

	var metrics []models.MetricRecord
	for _, name := range names {
		queryCtx, cancel := context.WithTimeout(ctx, p.timeout)
		value, _, err := p.api.Query(queryCtx, p.queries[name], at)
		cancel()
		if err != nil {
			return models.SignalBatch{}, fmt.Errorf("query %s: %w", name, err)
		}
		metrics = append(metrics, samplesToRecords(name, value)...)
	}
	return models.SignalBatch{Metrics: metrics}, nil
}

func samplesToRecords(name string, value model.Value) []models.MetricRecord {
	var out []models.MetricRecord
	add := func(v model.SampleValue, ts model.Time, labels model.Metric) {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return
		}
		var lbls map[string]string
		if len(labels) > 0 {
			lbls = make(map[string]string, len(labels))
			for k, lv := range labels {
				if k == model.MetricNameLabel {
					continue
				}
				lbls[string(k)] = string(lv)
			}
		}
		out = append(out, models.MetricRecord{
			Name:      name,
			Value:     &f,
			Timestamp: ts.Time().UTC().Format(time.RFC3339Nano),
			Labels:    lbls,
		})
	}

	switch v := value.(type) {
	case model.Vector:
		for _, s := range v {
			add(s.Value, s.Timestamp, s.Metric)
		}
	case *model.Scalar:
		add(v.Value, v.Timestamp, nil)
	}
	return out
}
