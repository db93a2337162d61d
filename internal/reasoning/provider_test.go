package reasoning

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseResponseAcceptsSingleObject(t *testing.T) {
	resp, err := ParseResponse("  \n" + validJSON + "\n ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp["confidence"] != 0.7 {
		t.Fatalf("unexpected response %v", resp)
	}
}

func TestParseResponseRejectsNonObjects(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"prose":          "The root cause is OOM.",
		"fenced":         "```json\n" + validJSON + "\n```",
		"trailing text":  validJSON + " thanks!",
		"two objects":    validJSON + validJSON,
		"array":          `[{"root_cause":"x"}]`,
		"scalar":         `42`,
		"null":           `null`,
		"truncated":      `{"root_cause": "x"`,
		"leading prose":  "Answer: " + validJSON,
		"string literal": `"{}"`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseResponse(text); !errors.Is(err, ErrInvalidJSON) {
				t.Fatalf("expected ErrInvalidJSON, got %v", err)
			}
		})
	}
}

func TestRealSleeperHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (RealSleeper{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if err := (RealSleeper{}).Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
