package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"expense-tracker-client/internal/common"
	"expense-tracker-client/internal/models"
)

// RecentCount is the number of recent expenses shown.
const RecentCount = 5

// ExpenseSource is the part of the expense service the dashboard reads.
type ExpenseSource interface {
	Summary(ctx context.Context, start, end time.Time) (*models.Summary, error)
	List(ctx context.Context, filter models.ExpenseFilter) (*models.Page[models.Expense], error)
}

// Dashboard is everything the dashboard view renders.
type Dashboard struct {
	Range          Range                 `json:"range"`
	Label          string                `json:"label"`
	Start          time.Time             `json:"start"`
	End            time.Time             `json:"end"`
	Summary        *models.Summary       `json:"summary"`
	Months         []models.MonthlyTotal `json:"months"`
	Categories     []Slice               `json:"categories"`
	MonthlyAverage float64               `json:"monthlyAverage"`
	Recent         []models.Expense      `json:"recent"`
	TotalExpenses  int                   `json:"totalExpenses"`
}

// Loader fetches dashboard data.
type Loader struct {
	source ExpenseSource
	logger *common.Logger
	now    func() time.Time
}

// NewLoader creates a loader reading from source.
func NewLoader(source ExpenseSource, logger *common.Logger) *Loader {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Loader{source: source, logger: logger, now: time.Now}
}

// Load fetches the summary and the most recent expenses of the period concurrently.
func (l *Loader) Load(ctx context.Context, r Range) (*Dashboard, error) {
	start, end := r.Bounds(l.now())
	d := &Dashboard{Range: r, Label: r.Label(), Start: start, End: end}

	g, gctx := errgroup.WithContext(ctx)

	var summary *models.Summary
	g.Go(func() error {
		s, err := l.source.Summary(gctx, start, end)
		if err != nil {
			return fmt.Errorf("failed to load summary: %w", err)
		}
		summary = s
		return nil
	})

	var page *models.Page[models.Expense]
	g.Go(func() error {
		p, err := l.source.List(gctx, models.ExpenseFilter{
			StartDate:     &start,
			EndDate:       &end,
			Page:          1,
			PageSize:      RecentCount,
			SortBy:        models.DefaultSortBy,
			SortDirection: models.SortDesc,
		})
		if err != nil {
			return fmt.Errorf("failed to load recent expenses: %w", err)
		}
		page = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if summary == nil {
		summary = &models.Summary{}
	}
	Normalize(summary)
	d.Summary = summary
	d.Months = FillMissingMonths(summary.MonthlyTotals)
	d.Categories = TopCategories(summary.CategoryBreakdown)
	d.MonthlyAverage = MonthlyAverage(summary.MonthlyTotals)
	d.Recent = page.Items
	d.TotalExpenses = page.TotalCount

	l.logger.Debug().
		Str("range", string(r)).
		Int("months", len(d.Months)).
		Int("categories", len(d.Categories)).
		Int("recent", len(d.Recent)).
		Msg("Dashboard loaded")

	return d, nil
}
