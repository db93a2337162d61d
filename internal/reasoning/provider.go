// Package reasoning turns an evidence-bound prompt into a parsed RCA candidate. A Client drives
// one Provider with bounded sequential attempts and strict JSON parsing.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/miradorstack/incident-rca/internal/models"
)

// Provider produces raw response text for a prompt.
type Provider interface {
	Name() string
	Run(ctx context.Context, prompt string) (string, error)
}

// Sleeper pauses between attempts. Tests substitute a fake.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper waits on a timer, returning early when ctx is done.
type RealSleeper struct{}

// Sleep blocks for d or until ctx is done.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ErrInvalidJSON marks provider text that is not exactly one JSON object.
var ErrInvalidJSON = errors.New("provider returned invalid JSON")

// ParseResponse decodes text as exactly one JSON object. Leading or trailing prose, markdown
// fences, arrays and scalars are rejected.
func ParseResponse(text string) (models.ProviderResponse, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidJSON)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var parsed map[string]any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if parsed == nil {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrInvalidJSON)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidJSON)
	}
	return models.ProviderResponse(parsed), nil
}
