package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorMatchesByKind(t *testing.T) {
	err := fmt.Errorf("analyze: %w", NewAppError(KindNoIncident, "detect", "nothing abnormal", nil))
	if !errors.Is(err, ErrNoIncidentDetected) {
		t.Fatalf("expected no-incident error to match sentinel")
	}
	if errors.Is(err, ErrEmptyInput) {
		t.Fatalf("kinds must not cross-match")
	}
	if KindOf(err) != KindNoIncident {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
}

func TestAppErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError(KindReasoningProvider, "run", "attempts exhausted", cause)
	if got := err.Error(); got != "run: reasoning_provider: attempts exhausted: boom" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be unwrappable")
	}
	if ReasonOf(err) != "attempts exhausted: boom" {
		t.Fatalf("unexpected reason %q", ReasonOf(err))
	}
}
