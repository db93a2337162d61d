package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/miradorstack/incident-rca/internal/collector"
	"github.com/miradorstack/incident-rca/internal/config"
	"github.com/miradorstack/incident-rca/internal/engine"
	"github.com/miradorstack/incident-rca/internal/models"
	"github.com/miradorstack/incident-rca/internal/normalizer"
	"github.com/miradorstack/incident-rca/internal/reasoning"
)

// buildPipeline assembles the analysis pipeline described by cfg. The returned store holds
// the live weight tables.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Pipeline, *engine.WeightsStore, error) {
	weights, err := engine.LoadWeights(cfg.Analysis.WeightsPath)
	if err != nil {
		return nil, nil, err
	}
	store := engine.NewWeightsStore(weights)

	providers, err := reasoning.NewProviders(ctx, logger, cfg.Reasoning, reasoning.RealSleeper{})
	if err != nil {
		return nil, nil, err
	}

	// A nil *reasoning.Client must not become a non-nil interface.
	var live engine.Reasoner
	if providers.Live != nil {
		live = providers.Live
	}

	pipeline, err := engine.NewPipeline(logger, engine.PipelineConfig{
		Profile: engine.DetectorProfile(cfg.Analysis.Detector),
		Window: engine.WindowConfig{
			Padding:           cfg.Analysis.WindowPadding,
			AbnormalThreshold: cfg.Analysis.AbnormalThreshold,
			SpikeThreshold:    cfg.Analysis.SpikeThreshold,
		},
		TopK:        cfg.Analysis.TopK,
		DefaultMode: models.ReasoningMode(cfg.Reasoning.Mode),
	}, normalizer.New(time.Now), engine.NewRanker(store), providers.Mock, live)
	if err != nil {
		return nil, nil, err
	}
	return pipeline, store, nil
}

// buildCollector returns a collector over the configured sources, or nil when none is
// enabled.
func buildCollector(cfg *config.Config, logger *slog.Logger) (*collector.Collector, error) {
	var sources []collector.Source
	if cfg.Collector.Kubernetes.Enabled {
		client, err := collector.NewKubernetesClient(cfg.Collector.Kubernetes.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("kubernetes client: %w", err)
		}
		sources = append(sources, collector.NewKubernetesSource(client, cfg.Collector.Kubernetes))
	}
	if cfg.Collector.Prometheus.Address != "" {
		src, err := collector.NewPrometheusSource(cfg.Collector.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("prometheus source: %w", err)
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, nil
	}
	c := collector.New(logger, sources...)
	logger.Info("signal collector configured", slog.Any("sources", c.Sources()))
	return c, nil
}
