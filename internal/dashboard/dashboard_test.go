package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-tracker-client/internal/models"
)

func TestParseRange(t *testing.T) {
	r, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, HalfYear, r)

	r, err = ParseRange("HALFYEAR")
	require.NoError(t, err)
	assert.Equal(t, HalfYear, r)

	r, err = ParseRange("week")
	require.NoError(t, err)
	assert.Equal(t, Week, r)

	_, err = ParseRange("decade")
	assert.Error(t, err)
}

func TestRangeBounds(t *testing.T) {
	now := time.Date(2025, time.August, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		r     Range
		start time.Time
		label string
	}{
		{Week, time.Date(2025, time.August, 8, 12, 0, 0, 0, time.UTC), "Last 7 days"},
		{Month, time.Date(2025, time.July, 16, 12, 0, 0, 0, time.UTC), "Last 30 days"},
		{Quarter, time.Date(2025, time.May, 15, 12, 0, 0, 0, time.UTC), "Last 3 months"},
		{HalfYear, time.Date(2025, time.February, 15, 12, 0, 0, 0, time.UTC), "Last 6 months"},
		{Year, time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC), "Last 12 months"},
	}
	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			start, end := tt.r.Bounds(now)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, now, end)
			assert.Equal(t, tt.label, tt.r.Label())
		})
	}
}

func TestNormalize(t *testing.T) {
	s := &models.Summary{
		CategorySummaries: []models.CategorySummary{
			{CategoryID: "c1", CategoryName: "Food", TotalAmount: 40, Count: 3, Percentage: 80},
			{CategoryID: "c2", CategoryName: "Fuel", TotalAmount: 10, Count: 1, Percentage: 20},
		},
	}
	Normalize(s)
	assert.Equal(t, []models.CategoryBreakdown{
		{CategoryID: "c1", CategoryName: "Food", Amount: 40, Percentage: 80},
		{CategoryID: "c2", CategoryName: "Fuel", Amount: 10, Percentage: 20},
	}, s.CategoryBreakdown)

	existing := []models.CategoryBreakdown{{CategoryID: "x", CategoryName: "Kept", Amount: 1, Percentage: 100}}
	s = &models.Summary{CategoryBreakdown: existing, CategorySummaries: s.CategorySummaries}
	Normalize(s)
	assert.Equal(t, existing, s.CategoryBreakdown)

	Normalize(nil)
}

func TestFillMissingMonths(t *testing.T) {
	got := FillMissingMonths([]models.MonthlyTotal{
		{Month: 2, Year: 2025, Amount: 20},
		{Month: 11, Year: 2024, Amount: 5},
		{Month: 1, Year: 2025, Amount: 7.5},
		{Month: 1, Year: 2025, Amount: 2.5},
	})
	assert.Equal(t, []models.MonthlyTotal{
		{Month: 11, Year: 2024, Amount: 5},
		{Month: 12, Year: 2024, Amount: 0},
		{Month: 1, Year: 2025, Amount: 10},
		{Month: 2, Year: 2025, Amount: 20},
	}, got)

	assert.Empty(t, FillMissingMonths(nil))
	assert.Len(t, FillMissingMonths([]models.MonthlyTotal{{Month: 3, Year: 2025, Amount: 1}}), 1)
}

func TestFillMissingMonthsWideSpanNotFilled(t *testing.T) {
	got := FillMissingMonths([]models.MonthlyTotal{
		{Month: 12, Year: 9999, Amount: 3},
		{Month: 1, Year: 1, Amount: 1},
		{Month: 6, Year: 2025, Amount: 2},
	})
	assert.Equal(t, []models.MonthlyTotal{
		{Month: 1, Year: 1, Amount: 1},
		{Month: 6, Year: 2025, Amount: 2},
		{Month: 12, Year: 9999, Amount: 3},
	}, got)

	// exactly MaxFilledMonths months still gets filled
	got = FillMissingMonths([]models.MonthlyTotal{
		{Month: 1, Year: 2000, Amount: 1},
		{Month: 12, Year: 2000 + MaxFilledMonths/12 - 1, Amount: 1},
	})
	assert.Len(t, got, MaxFilledMonths)
}

func TestTopCategories(t *testing.T) {
	var breakdown []models.CategoryBreakdown
	for i := 1; i <= 9; i++ {
		breakdown = append(breakdown, models.CategoryBreakdown{
			CategoryID:   fmt.Sprintf("c%d", i),
			CategoryName: fmt.Sprintf("Cat %d", i),
			Amount:       float64(i * 10),
		})
	}
	breakdown[0].CategoryName = ""

	slices := TopCategories(breakdown)
	require.Len(t, slices, TopCategoryCount+1)

	assert.Equal(t, "Cat 9", slices[0].Label)
	assert.Equal(t, 90.0, slices[0].Amount)
	assert.Equal(t, Palette[0], slices[0].Color)
	assert.Equal(t, 20.0, slices[0].Percentage)

	others := slices[TopCategoryCount]
	assert.Equal(t, OthersLabel, others.Label)
	assert.Equal(t, 30.0, others.Amount)
	assert.Equal(t, OthersColor, others.Color)
	assert.Empty(t, others.CategoryID)

	var pct float64
	for _, s := range slices {
		pct += s.Percentage
	}
	assert.InDelta(t, 100, pct, 0.05)
}

func TestTopCategoriesFewAndUncategorized(t *testing.T) {
	slices := TopCategories([]models.CategoryBreakdown{
		{CategoryID: "a", CategoryName: "", Amount: 5},
		{CategoryID: "b", CategoryName: "Rent", Amount: 15},
	})
	require.Len(t, slices, 2)
	assert.Equal(t, "Rent", slices[0].Label)
	assert.Equal(t, UncategorizedLabel, slices[1].Label)
	assert.Equal(t, 25.0, slices[1].Percentage)

	assert.Empty(t, TopCategories(nil))
}

func TestMonthlyAverage(t *testing.T) {
	assert.Equal(t, 0.0, MonthlyAverage(nil))
	assert.Equal(t, 0.3, MonthlyAverage([]models.MonthlyTotal{
		{Month: 1, Year: 2025, Amount: 0.1},
		{Month: 2, Year: 2025, Amount: 0.2},
		{Month: 3, Year: 2025, Amount: 0.6},
	}))
	assert.Equal(t, 33.33, MonthlyAverage([]models.MonthlyTotal{
		{Amount: 100}, {Amount: 0}, {Amount: 0},
	}))
}

func TestMonthBounds(t *testing.T) {
	start, end, err := MonthBounds("Feb 24")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), end)

	label := models.MonthlyTotal{Month: 12, Year: 2023}.Label()
	start, _, err = MonthBounds(label)
	require.NoError(t, err)
	assert.Equal(t, time.December, start.Month())
	assert.Equal(t, 2023, start.Year())

	_, _, err = MonthBounds("Smarch 24")
	assert.Error(t, err)
}

type fakeSource struct {
	mu         sync.Mutex
	summary    *models.Summary
	summaryErr error
	page       *models.Page[models.Expense]
	listErr    error
	start, end time.Time
	filter     models.ExpenseFilter
}

func (f *fakeSource) Summary(_ context.Context, start, end time.Time) (*models.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.start, f.end = start, end
	return f.summary, f.summaryErr
}

func (f *fakeSource) List(_ context.Context, filter models.ExpenseFilter) (*models.Page[models.Expense], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	return f.page, f.listErr
}

func TestLoaderLoad(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{
		summary: &models.Summary{
			TotalAmount: 60,
			MonthlyTotals: []models.MonthlyTotal{
				{Month: 5, Year: 2025, Amount: 40},
				{Month: 3, Year: 2025, Amount: 20},
			},
			CategorySummaries: []models.CategorySummary{
				{CategoryID: "c1", CategoryName: "Food", TotalAmount: 60, Percentage: 100},
			},
		},
		page: &models.Page[models.Expense]{
			Items:      []models.Expense{{ID: "e1", Amount: 12}},
			PageNumber: 1,
			TotalCount: 14,
		},
	}
	l := NewLoader(src, nil)
	l.now = func() time.Time { return now }

	d, err := l.Load(context.Background(), Quarter)
	require.NoError(t, err)

	assert.Equal(t, "Last 3 months", d.Label)
	assert.Equal(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), src.start)
	assert.Equal(t, now, src.end)

	assert.Equal(t, RecentCount, src.filter.PageSize)
	assert.Equal(t, 1, src.filter.Page)
	assert.Equal(t, models.SortDesc, src.filter.SortDirection)
	assert.Equal(t, models.DefaultSortBy, src.filter.SortBy)
	require.NotNil(t, src.filter.StartDate)
	assert.Equal(t, src.start, *src.filter.StartDate)

	assert.Len(t, d.Months, 3)
	assert.Equal(t, 0.0, d.Months[1].Amount)
	assert.Equal(t, 30.0, d.MonthlyAverage)
	require.Len(t, d.Categories, 1)
	assert.Equal(t, "Food", d.Categories[0].Label)
	assert.Equal(t, 14, d.TotalExpenses)
	assert.Len(t, d.Recent, 1)
}

func TestLoaderPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	l := NewLoader(&fakeSource{summaryErr: boom, page: &models.Page[models.Expense]{}}, nil)
	_, err := l.Load(context.Background(), DefaultRange)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "summary")

	l = NewLoader(&fakeSource{summary: &models.Summary{}, listErr: boom}, nil)
	_, err = l.Load(context.Background(), DefaultRange)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "recent expenses")
}
