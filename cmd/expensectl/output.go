package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"expense-tracker-client/internal/models"
)

const dateLayout = "2006-01-02"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func row(w io.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
}

// money renders an amount with two decimals, e.g. "USD 1234.50".
func money(amount float64, currency string) string {
	s := decimal.NewFromFloat(amount).StringFixed(2)
	if currency == "" {
		return s
	}
	return currency + " " + s
}

func signedMoney(e models.Expense) string {
	if e.IsIncome() {
		return "+" + money(e.Amount, e.Currency)
	}
	return money(e.Amount, e.Currency)
}

func formatDate(t models.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(dateLayout)
}

// parseDate accepts a calendar date or a full ISO timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := models.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return t, nil
}

func printExpenses(w io.Writer, items []models.Expense) {
	tw := newTable(w)
	row(tw, "ID", "DATE", "DESCRIPTION", "CATEGORY", "AMOUNT")
	for _, e := range items {
		row(tw, e.ID, formatDate(e.Date), e.Description, orDash(e.CategoryName), signedMoney(e))
	}
	tw.Flush()
}

func printExpense(w io.Writer, e *models.Expense) {
	tw := newTable(w)
	row(tw, "ID:", e.ID)
	row(tw, "Description:", e.Description)
	row(tw, "Amount:", signedMoney(*e))
	row(tw, "Date:", formatDate(e.Date))
	row(tw, "Type:", e.Type)
	row(tw, "Category:", orDash(e.CategoryName))
	row(tw, "Recurring:", yesNo(e.IsRecurring))
	tw.Flush()
}

func printCategories(w io.Writer, items []models.Category) {
	tw := newTable(w)
	row(tw, "ID", "NAME", "COLOR", "ICON", "DESCRIPTION")
	for _, c := range items {
		row(tw, c.ID, c.Name, orDash(c.Color), orDash(c.Icon), orDash(c.Description))
	}
	tw.Flush()
}

func printUser(w io.Writer, u *models.User) {
	tw := newTable(w)
	row(tw, "ID:", u.ID)
	row(tw, "Username:", orDash(u.Username))
	row(tw, "Email:", orDash(u.Email))
	row(tw, "Name:", orDash(strings.TrimSpace(u.FirstName+" "+u.LastName)))
	if u.Currency != "" {
		row(tw, "Currency:", u.Currency)
	}
	if u.TimeZone != "" {
		row(tw, "Time zone:", u.TimeZone)
	}
	tw.Flush()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
