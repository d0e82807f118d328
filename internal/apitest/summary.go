package apitest

import (
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"expense-tracker-client/internal/models"
)

// recentCount is how many recent expenses a summary carries.
const recentCount = 5

type categoryTotal struct {
	id, name string
	total    decimal.Decimal
	count    int
}

// Summary handles GET /api/reports/summary. Income is excluded from every total.
func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	var start, end time.Time
	if v := r.URL.Query().Get("startDate"); v != "" {
		t, err := models.ParseTime(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid startDate")
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		t, err := models.ParseTime(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid endDate")
			return
		}
		end = t
	}

	s.mu.Lock()
	acc := s.accounts[userIDFromContext(r)]
	var expenses []models.Expense
	for _, e := range acc.expenses {
		if e.Type == models.TypeIncome {
			continue
		}
		if !start.IsZero() && e.Date.Before(start) {
			continue
		}
		if !end.IsZero() && e.Date.After(end) {
			continue
		}
		expenses = append(expenses, *e)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, summarize(expenses))
}

// summarize aggregates expenses into totals per month and per category.
func summarize(expenses []models.Expense) models.Summary {
	total := decimal.Zero
	byCategory := make(map[string]*categoryTotal)
	byMonth := make(map[time.Time]decimal.Decimal)

	for _, e := range expenses {
		amount := decimal.NewFromFloat(e.Amount)
		total = total.Add(amount)

		ct, ok := byCategory[e.CategoryID]
		if !ok {
			ct = &categoryTotal{id: e.CategoryID, name: e.CategoryName, total: decimal.Zero}
			byCategory[e.CategoryID] = ct
		}
		ct.total = ct.total.Add(amount)
		ct.count++

		d := e.Date.UTC()
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[month] = byMonth[month].Add(amount)
	}

	summary := models.Summary{
		TotalAmount:       total.InexactFloat64(),
		TotalCount:        len(expenses),
		MonthlyTotals:     []models.MonthlyTotal{},
		CategoryBreakdown: []models.CategoryBreakdown{},
		CategorySummaries: []models.CategorySummary{},
		RecentExpenses:    []models.Expense{},
	}
	if len(expenses) > 0 {
		summary.AverageAmount = total.Div(decimal.NewFromInt(int64(len(expenses)))).Round(2).InexactFloat64()
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	for _, m := range months {
		summary.MonthlyTotals = append(summary.MonthlyTotals, models.MonthlyTotal{
			Month:  int(m.Month()),
			Year:   m.Year(),
			Amount: byMonth[m].InexactFloat64(),
		})
	}

	cats := make([]*categoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		cats = append(cats, ct)
	}
	sort.Slice(cats, func(i, j int) bool {
		if !cats[i].total.Equal(cats[j].total) {
			return cats[i].total.GreaterThan(cats[j].total)
		}
		return cats[i].name < cats[j].name
	})
	hundred := decimal.NewFromInt(100)
	for _, ct := range cats {
		percentage := decimal.Zero
		if total.IsPositive() {
			percentage = ct.total.Div(total).Mul(hundred).Round(2)
		}
		summary.CategoryBreakdown = append(summary.CategoryBreakdown, models.CategoryBreakdown{
			CategoryID:   ct.id,
			CategoryName: ct.name,
			Amount:       ct.total.InexactFloat64(),
			Percentage:   percentage.InexactFloat64(),
		})
		summary.CategorySummaries = append(summary.CategorySummaries, models.CategorySummary{
			CategoryID:   ct.id,
			CategoryName: ct.name,
			TotalAmount:  ct.total.InexactFloat64(),
			Count:        ct.count,
			Percentage:   percentage.InexactFloat64(),
		})
	}

	recent := append([]models.Expense(nil), expenses...)
	sortExpenses(recent, "date", models.SortDesc)
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	summary.RecentExpenses = append(summary.RecentExpenses, recent...)

	return summary
}
