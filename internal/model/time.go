package model

import "time"

// TimeLayout is the fixed-width ISO-8601 layout used for every persisted
// timestamp. Values are always UTC, so the text sorts chronologically.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime formats t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a persisted timestamp. Older rows written with other
// RFC 3339 precisions are accepted as well.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
