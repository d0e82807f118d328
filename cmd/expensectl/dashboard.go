package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"expense-tracker-client/internal/dashboard"
	"expense-tracker-client/internal/models"
)

const barWidth = 30

func cmdDashboard(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "dashboard")
	jsonFlag(a, fs)
	rangeName := fs.String("range", string(dashboard.DefaultRange), "Period: week, month, quarter, halfYear or year")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := dashboard.ParseRange(*rangeName)
	if err != nil {
		return err
	}

	d, err := a.dashboard.Load(ctx, r)
	if err != nil {
		return err
	}
	if a.json {
		return printJSON(a.stdout, d)
	}

	w := a.stdout
	fmt.Fprintf(w, "%s (%s to %s)\n\n", d.Label, d.Start.Format(dateLayout), d.End.Format(dateLayout))

	tw := newTable(w)
	row(tw, "Total spent:", money(d.Summary.TotalAmount, ""))
	row(tw, "Expenses:", d.Summary.TotalCount)
	row(tw, "Average expense:", money(d.Summary.AverageAmount, ""))
	row(tw, "Monthly average:", money(d.MonthlyAverage, ""))
	tw.Flush()

	if len(d.Months) > 0 {
		fmt.Fprintln(w, "\nMonthly spending")
		printMonths(w, d.Months)
	}

	if len(d.Categories) > 0 {
		fmt.Fprintln(w, "\nBy category")
		tw = newTable(w)
		for _, s := range d.Categories {
			row(tw, s.Label, money(s.Amount, ""), fmt.Sprintf("%.1f%%", s.Percentage))
		}
		tw.Flush()
	}

	fmt.Fprintln(w, "\nRecent expenses")
	if len(d.Recent) == 0 {
		fmt.Fprintln(w, "No expenses in this period")
		return nil
	}
	printExpenses(w, d.Recent)
	if d.TotalExpenses > len(d.Recent) {
		fmt.Fprintf(w, "... and %d more. Run 'expensectl expenses list' to see all.\n", d.TotalExpenses-len(d.Recent))
	}
	return nil
}

// printMonths draws a horizontal bar per month scaled to the largest month.
func printMonths(w io.Writer, months []models.MonthlyTotal) {
	var peak float64
	for _, m := range months {
		peak = max(peak, m.Amount)
	}

	tw := newTable(w)
	for _, m := range months {
		n := 0
		if peak > 0 {
			n = int(m.Amount / peak * barWidth)
		}
		row(tw, m.Label(), money(m.Amount, ""), strings.Repeat("#", n))
	}
	tw.Flush()
}
