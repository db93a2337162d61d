package models

import "time"

// Trigger classifies what most likely opened an incident window.
type Trigger string

const (
	TriggerMetricSpike  Trigger = "metric_spike"
	TriggerClusterEvent Trigger = "cluster_event"
	TriggerRestartStorm Trigger = "restart_storm"
	TriggerUnknown      Trigger = "unknown"
)

// InsufficientEvidence is the root cause sentinel a provider returns when the evidence
// does not support a conclusion.
const InsufficientEvidence = "insufficient_evidence"

// IncidentWindow bounds the time interval considered relevant to an incident.
type IncidentWindow struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Trigger         Trigger   `json:"trigger"`
	Confidence      float64   `json:"confidence"`
}

// RCAResult is a reasoning response that passed schema and grounding checks.
type RCAResult struct {
	Summary               string   `json:"summary"`
	RootCause             string   `json:"root_cause"`
	CausalChain           []string `json:"causal_chain"`
	SupportingEvidenceIDs []string `json:"supporting_evidence_ids"`
	RecommendedActions    []string `json:"recommended_actions"`
	Confidence            float64  `json:"confidence"`
}

// AnalysisResult is the single output of an analysis request.
type AnalysisResult struct {
	Incident      *IncidentWindow `json:"incident"`
	RankedSignals []RankedSignal  `json:"ranked_signals"`
	RCA           *RCAResult      `json:"rca"`
}

// ProviderResponse is a reasoning provider reply decoded from strict JSON but not yet
// validated.
type ProviderResponse map[string]any
