// Package dates converts between the date representations found in stored
// records: native instants, seconds-pairs and YYYY-MM-DD strings.
package dates

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// Layout is the date-only wire format.
	Layout = "2006-01-02"

	// Placeholder is rendered when a date is missing or unreadable.
	Placeholder = "yyyy-mm-dd"
)

var ErrInvalidDate = errors.New("invalid date")

// SecondsPair is the document store serialization of an instant.
type SecondsPair struct {
	Seconds     int64 `json:"seconds" firestore:"seconds"`
	Nanoseconds int32 `json:"nanoseconds" firestore:"nanoseconds"`
}

// ToSecondsPair truncates t to whole seconds.
func ToSecondsPair(t time.Time) SecondsPair {
	return SecondsPair{Seconds: floorDiv(t.UnixMilli(), 1000)}
}

// FromSecondsPair returns the instant in UTC.
func FromSecondsPair(p SecondsPair) time.Time {
	return time.Unix(p.Seconds, int64(p.Nanoseconds)).UTC()
}

// ParseDate parses a YYYY-MM-DD string as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	t, err := time.ParseInLocation(Layout, trimmed, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders any supported representation as a UTC calendar date.
// Missing or unsupported input yields Placeholder.
func FormatDate(v any) string {
	t, ok := FromStored(v)
	if !ok {
		return Placeholder
	}
	return t.UTC().Format(Layout)
}

// FromStored decodes a date the way it may have been persisted by any client
// generation. The boolean is false for nil, zero or unrecognised values.
func FromStored(v any) (time.Time, bool) {
	var t time.Time

	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		t = *val
	case SecondsPair:
		t = FromSecondsPair(val)
	case *SecondsPair:
		if val == nil {
			return time.Time{}, false
		}
		t = FromSecondsPair(*val)
	case map[string]any:
		pair, ok := pairFromMap(val)
		if !ok {
			return time.Time{}, false
		}
		t = FromSecondsPair(pair)
	case string:
		parsed, err := ParseDate(val)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339Nano, strings.TrimSpace(val))
			if err != nil {
				return time.Time{}, false
			}
		}
		t = parsed
	default:
		return time.Time{}, false
	}

	if t.IsZero() {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func pairFromMap(m map[string]any) (SecondsPair, bool) {
	secs, ok := toInt64(m["seconds"])
	if !ok {
		// Some clients serialized with a leading underscore.
		if secs, ok = toInt64(m["_seconds"]); !ok {
			return SecondsPair{}, false
		}
	}

	nanos, ok := toInt64(m["nanoseconds"])
	if !ok {
		nanos, _ = toInt64(m["_nanoseconds"])
	}

	return SecondsPair{Seconds: secs, Nanoseconds: int32(nanos)}, true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(math.Floor(n)), true
	}
	return 0, false
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
