package api

import (
	"testing"
	"time"

	"github.com/miradorstack/incident-rca/internal/models"
)

func TestFromAnalyzeRequest(t *testing.T) {
	req := &AnalyzeRequest{
		Signals: models.SignalBatch{Events: []models.EventRecord{{Reason: "OOMKilled", Timestamp: "2024-06-01T12:00:00Z"}}},
		Options: models.AnalyzeOptions{TopK: 3, ReasoningMode: models.ReasoningDisabled},
	}
	batch, opts, err := FromAnalyzeRequest(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if batch.Len() != 1 || opts.TopK != 3 {
		t.Fatalf("unexpected conversion: %+v %+v", batch, opts)
	}
}

func TestFromAnalyzeRequestRejectsBadOptions(t *testing.T) {
	cases := []models.AnalyzeOptions{
		{TopK: -1},
		{WindowPaddingMinutes: -5},
		{ReasoningMode: "psychic"},
	}
	for _, opts := range cases {
		if _, _, err := FromAnalyzeRequest(&AnalyzeRequest{Options: opts}); err == nil {
			t.Fatalf("expected %+v to be rejected", opts)
		}
	}
	if _, _, err := FromAnalyzeRequest(nil); err == nil {
		t.Fatalf("expected nil request to be rejected")
	}
}

func TestFromInvestigateRequest(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	ns, at, opts, err := FromInvestigateRequest(&InvestigateRequest{Namespace: "shop"}, now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ns != "shop" || !at.Equal(now) || opts.Namespace != "shop" {
		t.Fatalf("unexpected conversion: %s %s %+v", ns, at, opts)
	}

	_, at, _, err = FromInvestigateRequest(&InvestigateRequest{At: "2024-05-31T08:00:00Z"}, now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !at.Equal(time.Date(2024, 5, 31, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reference instant %s", at)
	}

	if _, _, _, err := FromInvestigateRequest(&InvestigateRequest{At: "yesterday"}, now); err == nil {
		t.Fatalf("expected invalid instant to be rejected")
	}
}
