package dataset

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Epoch values at or above this magnitude are treated as milliseconds.
const epochMillisThreshold = 1e12

// IsPlaceholder reports whether a raw cell value is one of the placeholder
// spellings datasets use for "no value".
func IsPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "nan", "none":
		return true
	}
	return false
}

// Number coerces a cell value to a float64. Placeholder strings, NaN and
// infinities report false rather than a value.
func Number(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if IsPlaceholder(s) {
			return 0, false
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Port coerces a cell value to a valid TCP/UDP port in [1, 65535].
func Port(v any) (int, bool) {
	f, ok := Number(v)
	if !ok {
		return 0, false
	}
	p := int(f)
	if float64(p) != f || p < 1 || p > 65535 {
		return 0, false
	}
	return p, true
}

// ParseTime coerces a cell value to a timestamp. Native time values pass
// through, numbers are interpreted as epoch seconds or milliseconds depending
// on magnitude, and strings go through the usual date layouts. Unparsable
// values report false so callers can drop the row from time-based views.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}

	if f, ok := Number(v); ok {
		if f <= 0 {
			return time.Time{}, false
		}
		if f >= epochMillisThreshold {
			return time.UnixMilli(int64(f)).UTC(), true
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), true
	}

	s := strings.TrimSpace(cast.ToString(v))
	if s == "" || IsPlaceholder(s) {
		return time.Time{}, false
	}
	ts, err := cast.StringToDateInDefaultLocation(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
