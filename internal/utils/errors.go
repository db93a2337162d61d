package utils

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable class of a failure surfaced to callers.
type Kind string

const (
	KindEmptyInput         Kind = "empty_input"
	KindInvalidSignal      Kind = "invalid_signal"
	KindNoIncident         Kind = "no_incident"
	KindReasoningProvider  Kind = "reasoning_provider"
	KindInvalidRCAResponse Kind = "invalid_rca_response"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrEmptyInput         = &AppError{Kind: KindEmptyInput, Msg: "no signals supplied"}
	ErrInvalidSignal      = &AppError{Kind: KindInvalidSignal, Msg: "malformed signal"}
	ErrNoIncidentDetected = &AppError{Kind: KindNoIncident, Msg: "no abnormal signal found"}
	ErrReasoningProvider  = &AppError{Kind: KindReasoningProvider, Msg: "reasoning provider failed"}
	ErrInvalidRCAResponse = &AppError{Kind: KindInvalidRCAResponse, Msg: "reasoning response rejected"}
)

// AppError wraps a failure kind, the operation, a human-facing message and the cause.
type AppError struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	prefix := string(e.Kind)
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewAppError constructs an AppError.
func NewAppError(kind Kind, op, msg string, err error) error {
	return &AppError{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// ReasonOf returns the human-readable message of the first AppError in err's chain,
// falling back to err.Error().
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return appErr.Msg + ": " + appErr.Err.Error()
		}
		return appErr.Msg
	}
	return err.Error()
}
