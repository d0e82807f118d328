// Package dashboard assembles the dashboard view: period summary, chart series and recent expenses.
package dashboard

import (
	"fmt"
	"strings"
	"time"
)

// Range is a dashboard period preset.
type Range string

const (
	Week     Range = "week"
	Month    Range = "month"
	Quarter  Range = "quarter"
	HalfYear Range = "halfYear"
	Year     Range = "year"

	DefaultRange = HalfYear
)

// Ranges lists the presets in display order.
var Ranges = []Range{Week, Month, Quarter, HalfYear, Year}

// ParseRange accepts a preset name case-insensitively. Empty input yields DefaultRange.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRange, nil
	}
	for _, r := range Ranges {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Label is the human readable period, e.g. "Last 6 months".
func (r Range) Label() string {
	switch r {
	case Week:
		return "Last 7 days"
	case Month:
		return "Last 30 days"
	case Quarter:
		return "Last 3 months"
	case Year:
		return "Last 12 months"
	default:
		return "Last 6 months"
	}
}

// Bounds returns the period ending at now.
func (r Range) Bounds(now time.Time) (start, end time.Time) {
	switch r {
	case Week:
		return now.AddDate(0, 0, -7), now
	case Month:
		return now.AddDate(0, 0, -30), now
	case Quarter:
		return now.AddDate(0, -3, 0), now
	case Year:
		return now.AddDate(-1, 0, 0), now
	default:
		return now.AddDate(0, -6, 0), now
	}
}
