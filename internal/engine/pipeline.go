package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/miradorstack/incident-rca/internal/metrics"
	"github.com/miradorstack/incident-rca/internal/models"
	"github.com/miradorstack/incident-rca/internal/normalizer"
	"github.com/miradorstack/incident-rca/internal/tracing"
	"github.com/miradorstack/incident-rca/internal/utils"
	"github.com/miradorstack/incident-rca/internal/validator"
)

// Reasoner turns a prompt into a schema-checked provider response.
type Reasoner interface {
	Run(ctx context.Context, prompt string) (models.ProviderResponse, error)
	ProviderName() string
}

// PipelineConfig holds process-wide analysis defaults.
type PipelineConfig struct {
	Profile     DetectorProfile
	Window      WindowConfig
	TopK        int
	DefaultMode models.ReasoningMode
}

// Pipeline orchestrates normalization, window detection, ranking, prompting, reasoning and
// validation for a single batch.
type Pipeline struct {
	logger     *slog.Logger
	cfg        PipelineConfig
	normalizer *normalizer.Normalizer
	ranker     *Ranker
	prompts    PromptBuilder
	mock       Reasoner
	live       Reasoner
	tracer     trace.Tracer
}

// NewPipeline constructs a Pipeline. live may be nil; requests in live mode then fail with
// a reasoning provider error.
func NewPipeline(logger *slog.Logger, cfg PipelineConfig, norm *normalizer.Normalizer, ranker *Ranker, mock, live Reasoner) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := NewDetector(cfg.Profile, cfg.Window); err != nil {
		return nil, err
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = models.ReasoningMock
	}
	if !cfg.DefaultMode.Valid() {
		return nil, fmt.Errorf("unknown reasoning mode %q", cfg.DefaultMode)
	}
	if norm == nil {
		norm = normalizer.New(time.Now)
	}
	if ranker == nil {
		ranker = NewRanker(nil)
	}
	return &Pipeline{
		logger:     logger,
		cfg:        cfg,
		normalizer: norm,
		ranker:     ranker,
		mock:       mock,
		live:       live,
		tracer:     tracing.Tracer("github.com/miradorstack/incident-rca/internal/engine"),
	}, nil
}

// Analyze runs the full pipeline. With reasoning disabled the result carries the window
// (possibly nil) and ranked evidence and the provider is never called. Otherwise a missing
// incident is ErrNoIncidentDetected, and an RCA is returned only after it validates against
// the ranked evidence.
func (p *Pipeline) Analyze(ctx context.Context, batch models.SignalBatch, opts models.AnalyzeOptions) (models.AnalysisResult, error) {
	analysisID := uuid.NewString()
	logger := p.logger.With(slog.String("analysis_id", analysisID))

	ctx, span := p.tracer.Start(ctx, "pipeline.analyze", trace.WithAttributes(
		attribute.String("analysis_id", analysisID),
		attribute.Int("batch.size", batch.Len()),
	))
	defer span.End()

	result, err := p.analyze(ctx, logger, batch, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(utils.KindOf(err)))
		return models.AnalysisResult{}, err
	}
	return result, nil
}

func (p *Pipeline) analyze(ctx context.Context, logger *slog.Logger, batch models.SignalBatch, opts models.AnalyzeOptions) (models.AnalysisResult, error) {
	mode := opts.ReasoningMode
	if mode == "" {
		mode = p.cfg.DefaultMode
	}
	if !mode.Valid() {
		return models.AnalysisResult{}, utils.NewAppError(utils.KindInvalidSignal, "analyze", fmt.Sprintf("unknown reasoning mode %q", mode), nil)
	}

	_, stage := p.tracer.Start(ctx, "pipeline.normalize")
	signals, err := p.normalizer.Normalize(batch)
	stage.End()
	if err != nil {
		return models.AnalysisResult{}, err
	}
	if len(signals) == 0 {
		return models.AnalysisResult{}, utils.NewAppError(utils.KindEmptyInput, "analyze", "no signals supplied", nil)
	}
	logger.Debug("signals normalized", slog.Int("count", len(signals)))

	detector, err := p.detector(opts)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	_, stage = p.tracer.Start(ctx, "pipeline.detect")
	window, err := detector.Detect(signals)
	stage.End()
	if err != nil {
		return models.AnalysisResult{}, err
	}
	if window != nil {
		logger.Debug("incident window detected",
			slog.Time("start", window.Start),
			slog.Time("end", window.End),
			slog.String("trigger", string(window.Trigger)))
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = p.cfg.TopK
	}
	_, stage = p.tracer.Start(ctx, "pipeline.rank")
	ranked := p.ranker.Rank(signals, topK)
	stage.End()
	logger.Debug("signals ranked", slog.Int("kept", len(ranked)), slog.Int("top_k", topK))

	result := models.AnalysisResult{Incident: window, RankedSignals: ranked}
	if mode == models.ReasoningDisabled {
		return result, nil
	}
	if window == nil {
		return models.AnalysisResult{}, utils.NewAppError(utils.KindNoIncident, "analyze", "no abnormal signal found", nil)
	}

	prompt := p.prompts.Build(*window, ranked, PromptContext{Service: opts.Service, Namespace: opts.Namespace})

	reasoner := p.mock
	if mode == models.ReasoningLive {
		reasoner = p.live
	}
	if reasoner == nil {
		return models.AnalysisResult{}, utils.NewAppError(utils.KindReasoningProvider, "analyze", fmt.Sprintf("no %s reasoning provider configured", mode), nil)
	}

	reasonCtx, stage := p.tracer.Start(ctx, "pipeline.reason", trace.WithAttributes(
		attribute.String("reasoning.mode", string(mode)),
		attribute.String("reasoning.provider", reasoner.ProviderName()),
	))
	resp, err := reasoner.Run(reasonCtx, prompt)
	stage.End()
	if err != nil {
		logger.Error("reasoning failed", slog.String("mode", string(mode)), slog.Any("error", err))
		return models.AnalysisResult{}, err
	}

	_, stage = p.tracer.Start(ctx, "pipeline.validate")
	rca, err := p.validate(resp, ranked)
	stage.End()
	if err != nil {
		logger.Error("reasoning response rejected",
			slog.String("provider", reasoner.ProviderName()),
			slog.String("reason", utils.ReasonOf(err)))
		return models.AnalysisResult{}, err
	}

	result.RCA = &rca
	logger.Info("analysis complete",
		slog.String("root_cause", rca.RootCause),
		slog.Float64("confidence", rca.Confidence),
		slog.Int("evidence", len(rca.SupportingEvidenceIDs)))
	return result, nil
}

func (p *Pipeline) detector(opts models.AnalyzeOptions) (Detector, error) {
	cfg := p.cfg.Window
	switch {
	case opts.WindowPaddingMinutes < 0:
		return nil, utils.NewAppError(utils.KindInvalidSignal, "analyze", "window_padding_minutes must not be negative", nil)
	case opts.WindowPaddingMinutes > 0:
		cfg.Padding = time.Duration(opts.WindowPaddingMinutes) * time.Minute
	}
	return NewDetector(p.cfg.Profile, cfg)
}

// validate promotes resp to an RCAResult. Only responses that pass the schema check and
// then cite unknown evidence count as grounding rejections.
func (p *Pipeline) validate(resp models.ProviderResponse, ranked []models.RankedSignal) (models.RCAResult, error) {
	if err := validator.CheckSchema(resp); err != nil {
		return models.RCAResult{}, err
	}
	rca, err := validator.Validate(resp, ranked)
	if err != nil {
		metrics.ObserveGroundingRejection()
		return models.RCAResult{}, err
	}
	return rca, nil
}
