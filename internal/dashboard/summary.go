package dashboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"expense-tracker-client/internal/models"
)

const (
	// TopCategoryCount is how many categories get their own chart slice.
	TopCategoryCount = 7

	OthersLabel        = "Others"
	UncategorizedLabel = "Uncategorized"
	OthersColor        = "#9ca3af"

	// MaxFilledMonths bounds the gap filling; wider spans are returned sorted but unfilled.
	MaxFilledMonths = 240
)

// Palette colours category slices in rank order.
var Palette = []string{
	"#6366f1", "#8b5cf6", "#ec4899", "#ef4444", "#f97316", "#eab308",
	"#22c55e", "#14b8a6", "#0ea5e9",
}

// Slice is one entry of the category chart.
type Slice struct {
	CategoryID string  `json:"categoryId,omitempty"`
	Label      string  `json:"label"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// Normalize derives the category breakdown from category summaries when the server
// only sent the latter.
func Normalize(s *models.Summary) {
	if s == nil || len(s.CategoryBreakdown) > 0 || len(s.CategorySummaries) == 0 {
		return
	}
	s.CategoryBreakdown = make([]models.CategoryBreakdown, 0, len(s.CategorySummaries))
	for _, c := range s.CategorySummaries {
		s.CategoryBreakdown = append(s.CategoryBreakdown, models.CategoryBreakdown{
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			Amount:       c.TotalAmount,
			Percentage:   c.Percentage,
		})
	}
}

// FillMissingMonths sorts totals chronologically and inserts zero entries for
// months between the first and last that have no data. Duplicate months are summed.
// Spans longer than MaxFilledMonths are not filled.
func FillMissingMonths(totals []models.MonthlyTotal) []models.MonthlyTotal {
	if len(totals) == 0 {
		return []models.MonthlyTotal{}
	}

	byMonth := make(map[time.Time]decimal.Decimal, len(totals))
	for _, m := range totals {
		byMonth[m.Start()] = byMonth[m.Start()].Add(decimal.NewFromFloat(m.Amount))
	}

	months := make([]time.Time, 0, len(byMonth))
	for k := range byMonth {
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	first, last := months[0], months[len(months)-1]
	if span := (last.Year()-first.Year())*12 + int(last.Month()-first.Month()) + 1; span > MaxFilledMonths {
		result := make([]models.MonthlyTotal, 0, len(months))
		for _, k := range months {
			result = append(result, models.MonthlyTotal{Month: int(k.Month()), Year: k.Year(), Amount: byMonth[k].InexactFloat64()})
		}
		return result
	}

	var result []models.MonthlyTotal
	for cur := first; !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		result = append(result, models.MonthlyTotal{
			Month:  int(cur.Month()),
			Year:   cur.Year(),
			Amount: byMonth[cur].InexactFloat64(),
		})
	}
	return result
}

// TopCategories ranks the breakdown by amount and folds everything past the top
// TopCategoryCount into a single Others slice.
func TopCategories(breakdown []models.CategoryBreakdown) []Slice {
	sorted := make([]models.CategoryBreakdown, len(breakdown))
	copy(sorted, breakdown)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })

	total := decimal.Zero
	for _, c := range sorted {
		total = total.Add(decimal.NewFromFloat(c.Amount))
	}

	slices := make([]Slice, 0, min(len(sorted), TopCategoryCount+1))
	for i, c := range sorted {
		if i == TopCategoryCount {
			break
		}
		label := c.CategoryName
		if label == "" {
			label = UncategorizedLabel
		}
		slices = append(slices, Slice{
			CategoryID: c.CategoryID,
			Label:      label,
			Amount:     c.Amount,
			Percentage: share(decimal.NewFromFloat(c.Amount), total),
			Color:      Palette[i%len(Palette)],
		})
	}

	if len(sorted) > TopCategoryCount {
		others := decimal.Zero
		for _, c := range sorted[TopCategoryCount:] {
			others = others.Add(decimal.NewFromFloat(c.Amount))
		}
		slices = append(slices, Slice{
			Label:      OthersLabel,
			Amount:     others.InexactFloat64(),
			Percentage: share(others, total),
			Color:      OthersColor,
		})
	}
	return slices
}

func share(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// MonthlyAverage is the mean of the monthly totals, 0 when there are none.
func MonthlyAverage(totals []models.MonthlyTotal) float64 {
	if len(totals) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, m := range totals {
		sum = sum.Add(decimal.NewFromFloat(m.Amount))
	}
	return sum.Div(decimal.NewFromInt(int64(len(totals)))).Round(2).InexactFloat64()
}

// MonthBounds parses a chart label such as "Mar 25" into the first and last day of that month.
func MonthBounds(label string) (start, end time.Time, err error) {
	start, err = time.Parse("Jan 06", label)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month label %q: %w", label, err)
	}
	return start, start.AddDate(0, 1, -1), nil
}
