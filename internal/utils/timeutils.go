package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// ParseTimestamp parses RFC3339 timestamps, Unix seconds, and absolute human-readable dates.
// Human-readable input is resolved against ref so the same string always yields the same
// instant. The result is in UTC.
func ParseTimestamp(value string, ref time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}

	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs < 0 {
			return time.Time{}, fmt.Errorf("unix timestamp must be non-negative: %d", secs)
		}
		return time.Unix(secs, 0).UTC(), nil
	}

	if ref.IsZero() {
		ref = time.Unix(0, 0)
	}
	parser := dps.Parser{}
	parsed, err := parser.Parse(&dps.Configuration{
		CurrentTime:     ref.UTC(),
		DefaultTimezone: time.UTC,
	}, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	if parsed.IsZero() {
		return time.Time{}, fmt.Errorf("parse time %q: no date found", value)
	}
	return parsed.Time.UTC(), nil
}

// DurationMinutes returns the whole minutes between two instants, rounded down.
func DurationMinutes(start, end time.Time) int {
	if end.Before(start) {
		start, end = end, start
	}
	return int(math.Floor(end.Sub(start).Minutes()))
}
