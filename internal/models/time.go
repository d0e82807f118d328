package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// isoDatePattern matches the date-time strings the API emits. The zone suffix is optional.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[-+]\d{2}:\d{2})?$`)

var zoneSuffix = regexp.MustCompile(`(?:Z|[-+]\d{2}:\d{2})$`)

// ISOLayout is the layout used for every date sent to the API (UTC, millisecond precision).
const ISOLayout = "2006-01-02T15:04:05.000Z"

// ErrInvalidTime is returned when a wire value is not an ISO-8601 date-time.
var ErrInvalidTime = errors.New("invalid ISO-8601 date-time")

// Time is a time.Time that travels as an ISO-8601 string. Zero values travel as null.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// IsISODate reports whether s looks like a wire date-time.
func IsISODate(s string) bool {
	return isoDatePattern.MatchString(s)
}

// ParseTime parses a wire date-time. Values without a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	if !IsISODate(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if zoneSuffix.MatchString(s) {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t, nil
}

// FormatTime renders t in the wire layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(FormatTime(t.Time))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTime, data)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
