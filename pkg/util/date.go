package util

import (
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is how timestamps appear on panels.
const DisplayLayout = "2006-01-02 15:04"

// localLayouts covers ISO timestamps without a zone, as emitted by
// Python's datetime.isoformat(). They are read as UTC.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// ParseTime tries RFC3339, RFC3339Nano, zone-less ISO and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// DisplayTime formats a backend timestamp for display in UTC.
// Empty input yields "—"; unparseable input is returned unchanged.
func DisplayTime(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.UTC().Format(DisplayLayout)
}
