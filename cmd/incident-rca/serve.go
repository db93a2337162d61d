package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/miradorstack/incident-rca/internal/api"
	"github.com/miradorstack/incident-rca/internal/engine"
	"github.com/miradorstack/incident-rca/internal/metrics"
	"github.com/miradorstack/incident-rca/internal/services"
	"github.com/miradorstack/incident-rca/internal/tracing"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Analyzer gRPC service and the metrics endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			logger.Info("starting incident-rca", slog.String("address", cfg.Server.Address), slog.String("version", Version))

			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return err
			}

			tp, err := tracing.NewProvider(logger, cfg.Tracing, Version)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(ctx)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pipeline, store, err := buildPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if cfg.Analysis.WatchWeights && cfg.Analysis.WeightsPath != "" {
				if err := engine.WatchWeights(cfg.Analysis.WeightsPath, store, logger); err != nil {
					logger.Warn("weights watch unavailable", slog.Any("error", err))
				}
			}

			coll, err := buildCollector(cfg, logger)
			if err != nil {
				return err
			}
			var sc services.SignalCollector
			if coll != nil {
				sc = coll
			}

			service := services.NewAnalyzerService(logger, pipeline, sc)
			server, err := api.NewServer(cfg.Server, service)
			if err != nil {
				return err
			}

			var metricsServer *http.Server
			if cfg.Server.MetricsAddress != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				metricsServer = &http.Server{
					Addr:         cfg.Server.MetricsAddress,
					Handler:      mux,
					ReadTimeout:  5 * time.Second,
					WriteTimeout: 15 * time.Second,
				}
				go func() {
					logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
					if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server exited", slog.Any("error", err))
						stop()
					}
				}()
			}

			go func() {
				logger.Info("gRPC server listening", slog.String("address", server.Address()))
				if serveErr := server.Start(); serveErr != nil {
					logger.Error("gRPC server exited", slog.Any("error", serveErr))
					stop()
				}
			}()

			<-ctx.Done()
			logger.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
			defer cancel()
			server.Shutdown(shutdownCtx)

			if metricsServer != nil {
				metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
				if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Warn("metrics server shutdown", slog.Any("error", err))
				}
				cancelMetrics()
			}

			logger.Info("incident-rca stopped", slog.Duration("p95", service.LatencyP95()))
			return nil
		},
	}
}
