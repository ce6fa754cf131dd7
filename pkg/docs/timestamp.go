package docs

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is the server timestamp representation stored in documents.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

// TimestampOf converts t to a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanoseconds: int32(t.Nanosecond())}
}

// Time returns the timestamp as a local time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanoseconds)).Local()
}

// Millis returns milliseconds since the Unix epoch.
func (t Timestamp) Millis() int64 {
	return t.Seconds*1000 + int64(t.Nanoseconds)/int64(time.Millisecond)
}

func (t Timestamp) String() string {
	return t.Time().UTC().Format(time.RFC3339Nano)
}

// ToEpochMillis normalizes the shapes a date field takes in practice (server
// Timestamp, its decoded JSON map, time.Time, numeric millis, RFC3339 or
// YYYY-MM-DD strings) to milliseconds since the epoch. ok is false when v
// carries no usable instant.
func ToEpochMillis(v any) (ms int64, ok bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case Timestamp:
		return t.Millis(), true
	case *Timestamp:
		if t == nil {
			return 0, false
		}
		return t.Millis(), true
	case time.Time:
		if t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		return parseMillis(t)
	case map[string]any:
		return mapMillis(t)
	default:
		return 0, false
	}
}

// ToTime is ToEpochMillis rendered as a local time.
func ToTime(v any) (time.Time, bool) {
	ms, ok := ToEpochMillis(v)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).Local(), true
}

func parseMillis(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t.UnixMilli(), true
	}
	return 0, false
}

func mapMillis(m map[string]any) (int64, bool) {
	secs, ok := m["seconds"]
	if !ok {
		secs, ok = m["_seconds"]
	}
	if !ok {
		return 0, false
	}
	s, ok := number(secs)
	if !ok {
		return 0, false
	}
	nanosRaw, found := m["nanoseconds"]
	if !found {
		nanosRaw = m["_nanoseconds"]
	}
	n, _ := number(nanosRaw)
	return int64(s)*1000 + int64(n)/int64(time.Millisecond), true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
