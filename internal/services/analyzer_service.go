package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/incident-rca/internal/api"
	"github.com/miradorstack/incident-rca/internal/collector"
	"github.com/miradorstack/incident-rca/internal/metrics"
	"github.com/miradorstack/incident-rca/internal/models"
	"github.com/miradorstack/incident-rca/internal/utils"
)

// Analyzer runs one analysis over a signal batch.
type Analyzer interface {
	Analyze(ctx context.Context, batch models.SignalBatch, opts models.AnalyzeOptions) (models.AnalysisResult, error)
}

// SignalCollector gathers a batch for a namespace around an instant.
type SignalCollector interface {
	Collect(ctx context.Context, q collector.Query) (models.SignalBatch, error)
}

// AnalyzerService implements the gRPC Analyzer service.
type AnalyzerService struct {
	logger    *slog.Logger
	analyzer  Analyzer
	collector SignalCollector
	latencies *utils.LatencyTracker
	now       func() time.Time
}

var _ api.AnalyzerServer = (*AnalyzerService)(nil)

// NewAnalyzerService constructs the service facade. collector may be nil, in which case
// Investigate fails with FailedPrecondition.
func NewAnalyzerService(logger *slog.Logger, analyzer Analyzer, collector SignalCollector) *AnalyzerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzerService{
		logger:    logger,
		analyzer:  analyzer,
		collector: collector,
		latencies: utils.NewLatencyTracker(1024),
		now:       time.Now,
	}
}

// Analyze runs the pipeline over the supplied batch.
func (s *AnalyzerService) Analyze(ctx context.Context, req *api.AnalyzeRequest) (*models.AnalysisResult, error) {
	batch, opts, err := api.FromAnalyzeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return s.run(ctx, batch, opts)
}

// Investigate collects signals from the configured sources and analyses them.
func (s *AnalyzerService) Investigate(ctx context.Context, req *api.InvestigateRequest) (*models.AnalysisResult, error) {
	namespace, at, opts, err := api.FromInvestigateRequest(req, s.now())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if s.collector == nil {
		return nil, status.Error(codes.FailedPrecondition, "no signal collector configured")
	}

	batch, err := s.collector.Collect(ctx, collector.Query{Namespace: namespace, At: at})
	if err != nil {
		s.logger.Error("signal collection failed", slog.String("namespace", namespace), slog.Any("error", err))
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		return nil, status.Error(codes.Unavailable, fmt.Sprintf("collect signals: %v", err))
	}
	s.logger.Debug("signals collected", slog.String("namespace", namespace), slog.Int("count", batch.Len()))
	return s.run(ctx, batch, opts)
}

func (s *AnalyzerService) run(ctx context.Context, batch models.SignalBatch, opts models.AnalyzeOptions) (*models.AnalysisResult, error) {
	if s.analyzer == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}

	start := time.Now()
	result, err := s.analyzer.Analyze(ctx, batch, opts)
	duration := time.Since(start)
	if err != nil {
		kind := utils.KindOf(err)
		label := string(kind)
		if label == "" {
			label = "internal"
		}
		metrics.ObserveAnalysis(duration, label)
		s.logger.Warn("analysis failed", slog.String("kind", label), slog.Any("error", err))
		return nil, toStatus(ctx, err)
	}

	metrics.ObserveAnalysis(duration, metrics.StatusOK)
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}
	return &result, nil
}

// LatencyP95 returns the current p95 analysis latency.
func (s *AnalyzerService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

// toStatus maps a pipeline error to a gRPC status carrying the error kind and reason.
func toStatus(ctx context.Context, err error) error {
	kind := utils.KindOf(err)
	msg := fmt.Sprintf("%s: %s", kind, utils.ReasonOf(err))

	switch kind {
	case utils.KindEmptyInput, utils.KindInvalidSignal:
		return status.Error(codes.InvalidArgument, msg)
	case utils.KindNoIncident:
		return status.Error(codes.NotFound, msg)
	case utils.KindReasoningProvider:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return status.Error(codes.DeadlineExceeded, msg)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return status.Error(codes.Canceled, msg)
		}
		return status.Error(codes.Unavailable, msg)
	case utils.KindInvalidRCAResponse:
		return status.Error(codes.FailedPrecondition, msg)
	default:
		return status.Error(codes.Internal, fmt.Sprintf("analysis failed: %v", err))
	}
}
