package api

import (
	"fmt"
	"time"

	"github.com/miradorstack/incident-rca/internal/models"
)

// FromAnalyzeRequest validates the wire request and returns the batch and options to analyse.
func FromAnalyzeRequest(req *AnalyzeRequest) (models.SignalBatch, models.AnalyzeOptions, error) {
	if req == nil {
		return models.SignalBatch{}, models.AnalyzeOptions{}, fmt.Errorf("request is nil")
	}
	opts, err := validateOptions(req.Options)
	if err != nil {
		return models.SignalBatch{}, models.AnalyzeOptions{}, err
	}
	return req.Signals, opts, nil
}

// FromInvestigateRequest validates the wire request and returns the collection namespace,
// reference instant and options.
func FromInvestigateRequest(req *InvestigateRequest, now time.Time) (string, time.Time, models.AnalyzeOptions, error) {
	if req == nil {
		return "", time.Time{}, models.AnalyzeOptions{}, fmt.Errorf("request is nil")
	}
	opts, err := validateOptions(req.Options)
	if err != nil {
		return "", time.Time{}, models.AnalyzeOptions{}, err
	}

	at := now.UTC()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			return "", time.Time{}, models.AnalyzeOptions{}, fmt.Errorf("at must be RFC3339: %w", err)
		}
		at = parsed.UTC()
	}

	if opts.Namespace == "" {
		opts.Namespace = req.Namespace
	}
	return req.Namespace, at, opts, nil
}

func validateOptions(opts models.AnalyzeOptions) (models.AnalyzeOptions, error) {
	if opts.TopK < 0 {
		return opts, fmt.Errorf("top_k must not be negative")
	}
	if opts.WindowPaddingMinutes < 0 {
		return opts, fmt.Errorf("window_padding_minutes must not be negative")
	}
	if opts.ReasoningMode != "" && !opts.ReasoningMode.Valid() {
		return opts, fmt.Errorf("reasoning_mode must be disabled, mock or live, got %q", opts.ReasoningMode)
	}
	return opts, nil
}
