package models

import (
	"fmt"
	"time"
)

// Summary is the response of GET /api/reports/summary.
type Summary struct {
	TotalAmount       float64             `json:"totalAmount"`
	TotalCount        int                 `json:"totalCount"`
	AverageAmount     float64             `json:"averageAmount"`
	MonthlyTotals     []MonthlyTotal      `json:"monthlyTotals"`
	CategoryBreakdown []CategoryBreakdown `json:"categoryBreakdown"`
	CategorySummaries []CategorySummary   `json:"categorySummaries"`
	RecentExpenses    []Expense           `json:"recentExpenses"`
}

// Years accepted in monthly totals.
const (
	MinSummaryYear = 1900
	MaxSummaryYear = 2200
)

// Validate rejects impossible months and years.
func (s *Summary) Validate() error {
	for _, m := range s.MonthlyTotals {
		if m.Month < 1 || m.Month > 12 {
			return fmt.Errorf("%w: month %d out of range", ErrInvalidResponse, m.Month)
		}
		if m.Year < MinSummaryYear || m.Year > MaxSummaryYear {
			return fmt.Errorf("%w: year %d out of range", ErrInvalidResponse, m.Year)
		}
	}
	return nil
}

// MonthlyTotal is the amount spent in one calendar month.
type MonthlyTotal struct {
	Month  int     `json:"month"`
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}

// Start returns the first instant of the month in UTC.
func (m MonthlyTotal) Start() time.Time {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
}

// Label renders the month as e.g. "Mar 25".
func (m MonthlyTotal) Label() string {
	return m.Start().Format("Jan 06")
}

// CategoryBreakdown is one slice of the category chart.
type CategoryBreakdown struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Amount       float64 `json:"amount"`
	Percentage   float64 `json:"percentage"`
}

// CategorySummary is the older per-category shape some servers still return.
type CategorySummary struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	TotalAmount  float64 `json:"totalAmount"`
	Count        int     `json:"count"`
	Percentage   float64 `json:"percentage"`
}
