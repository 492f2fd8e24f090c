// Package biztime centralizes time handling for persistence and tokens.
// All storage and transport use UTC; implicit local timezone is prohibited.
package biztime

import (
	"fmt"
	"time"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time (any timezone) to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// FormatStamp formats a UTC time using RFC3339 for serialized payloads.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseStamp parses an RFC3339 timestamp produced by FormatStamp.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format %q: %w", s, err)
	}
	return t.UTC(), nil
}
