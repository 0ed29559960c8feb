package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order; layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Numbers up to epochSecondsLimit in magnitude are Unix seconds, larger ones
// Unix milliseconds up to epochMillisLimit.
const (
	epochSecondsLimit = 2e10
	epochMillisLimit  = 8.64e15
)

// ParseTimestamp converts a loosely-typed JSON value into a UTC time.
// Strings are matched against the accepted layouts, then read as numbers.
// Numbers are Unix epoch seconds, or milliseconds once beyond
// epochSecondsLimit. Anything else reports false.
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(f)
		}
		return time.Time{}, false
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case float64:
		return fromEpoch(t)
	case int64:
		return fromEpoch(float64(t))
	case int:
		return fromEpoch(float64(t))
	case time.Time:
		return t.UTC(), true
	}
	return time.Time{}, false
}

func fromEpoch(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if math.Abs(f) <= epochSecondsLimit {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), true
	}
	if math.Abs(f) > epochMillisLimit {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(f)).UTC(), true
}
