package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expense-tracker-client/internal/dashboard"
	"expense-tracker-client/internal/models"
)

func cmdExpenses(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "list", "ls":
		return expensesList(ctx, a, args)
	case "get", "show":
		return expensesGet(ctx, a, args)
	case "add", "create":
		return expensesAdd(ctx, a, args)
	case "update", "edit":
		return expensesUpdate(ctx, a, args)
	case "delete", "rm":
		return expensesDelete(ctx, a, args)
	default:
		return fmt.Errorf("unknown expenses command %q (want list, get, add, update or delete)", sub)
	}
}

func expensesList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "expenses list")
	jsonFlag(a, fs)
	from := fs.String("from", "", "Start date (YYYY-MM-DD)")
	to := fs.String("to", "", "End date (YYYY-MM-DD)")
	month := fs.String("month", "", `Month as labelled on the dashboard, e.g. "Mar 25"`)
	category := fs.String("category", "", "Comma separated category names or ids")
	minAmount := fs.Float64("min", 0, "Minimum amount")
	maxAmount := fs.Float64("max", 0, "Maximum amount")
	search := fs.String("search", "", "Search term")
	sortBy := fs.String("sort", models.DefaultSortBy, "Sort field")
	dir := fs.String("dir", models.SortDesc, "Sort direction (asc|desc)")
	page := fs.Int("page", models.DefaultPage, "Page number")
	size := fs.Int("size", models.DefaultPageSize, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := models.ExpenseFilter{
		SearchTerm:    *search,
		SortBy:        *sortBy,
		SortDirection: strings.ToLower(*dir),
		Page:          *page,
		PageSize:      *size,
	}
	set := setFlags(fs)
	if set["month"] {
		if set["from"] || set["to"] {
			return errors.New("expenses list: -month cannot be combined with -from or -to")
		}
		start, end, err := dashboard.MonthBounds(*month)
		if err != nil {
			return err
		}
		end = end.Add(24*time.Hour - time.Millisecond)
		filter.StartDate, filter.EndDate = &start, &end
	}
	if set["from"] {
		t, err := parseDate(*from)
		if err != nil {
			return err
		}
		filter.StartDate = &t
	}
	if set["to"] {
		t, err := parseDate(*to)
		if err != nil {
			return err
		}
		// Include the whole end day
		t = t.Add(24*time.Hour - time.Millisecond)
		filter.EndDate = &t
	}
	if set["min"] {
		filter.MinAmount = minAmount
	}
	if set["max"] {
		filter.MaxAmount = maxAmount
	}
	if *category != "" {
		for _, name := range strings.Split(*category, ",") {
			id, err := resolveCategory(ctx, a, name)
			if err != nil {
				return err
			}
			filter.CategoryIDs = append(filter.CategoryIDs, id)
		}
	}

	result, err := a.expenses.List(ctx, filter)
	if err != nil {
		return err
	}
	if a.json {
		return printJSON(a.stdout, result)
	}
	if len(result.Items) == 0 {
		fmt.Fprintln(a.stdout, "No expenses found")
		return nil
	}
	printExpenses(a.stdout, result.Items)
	fmt.Fprintf(a.stdout, "\nPage %d of %d (%d expenses)\n", result.PageNumber, max(result.TotalPages, 1), result.TotalCount)
	return nil
}

func expensesGet(ctx context.Context, a *app, args []string) error {
	id, args := splitID(args)
	fs := newFlagSet(a, "expenses get")
	jsonFlag(a, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireID(fs, id)
	if err != nil {
		return err
	}

	e, err := a.expenses.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.json {
		return printJSON(a.stdout, e)
	}
	printExpense(a.stdout, e)
	return nil
}

// expenseFlags are shared by add and update.
type expenseFlags struct {
	description *string
	amount      *float64
	date        *string
	category    *string
	kind        *string
	currency    *string
	recurring   *bool
	note        *string
	receipt     *string
}

func bindExpenseFlags(fs *flag.FlagSet) *expenseFlags {
	return &expenseFlags{
		description: fs.String("desc", "", "Description"),
		amount:      fs.Float64("amount", 0, "Amount"),
		date:        fs.String("date", "", "Date (YYYY-MM-DD, default today)"),
		category:    fs.String("category", "", "Category name or id"),
		kind:        fs.String("type", string(models.TypeExpense), "Expense or Income"),
		currency:    fs.String("currency", models.DefaultCurrency, "Currency code"),
		recurring:   fs.Bool("recurring", false, "Mark as recurring"),
		note:        fs.String("note", "", "Note"),
		receipt:     fs.String("receipt", "", "Path to a receipt file to upload"),
	}
}

// apply copies the flags given on the command line onto req.
func (f *expenseFlags) apply(ctx context.Context, a *app, set map[string]bool, req *models.ExpenseRequest) (closeReceipt func(), err error) {
	closeReceipt = func() {}

	if set["desc"] {
		req.Description = *f.description
	}
	if set["amount"] {
		req.Amount = *f.amount
	}
	if set["date"] {
		if req.Date, err = parseDate(*f.date); err != nil {
			return closeReceipt, err
		}
	}
	if set["category"] {
		if req.CategoryID, err = resolveCategory(ctx, a, *f.category); err != nil {
			return closeReceipt, err
		}
	}
	if set["type"] {
		if req.Type, err = models.ParseExpenseType(*f.kind); err != nil {
			return closeReceipt, err
		}
	}
	if set["currency"] {
		req.Currency = *f.currency
	}
	if set["recurring"] {
		req.IsRecurring = *f.recurring
	}
	if set["note"] {
		req.Note = *f.note
	}
	if set["receipt"] {
		file, err := os.Open(*f.receipt)
		if err != nil {
			return closeReceipt, fmt.Errorf("failed to open receipt: %w", err)
		}
		req.Receipt = file
		req.ReceiptFilename = filepath.Base(*f.receipt)
		closeReceipt = func() { file.Close() }
	}
	return closeReceipt, nil
}

func expensesAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "expenses add")
	flags := bindExpenseFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := time.Now().UTC()
	req := models.ExpenseRequest{
		Date:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Type:     models.TypeExpense,
		Currency: models.DefaultCurrency,
	}
	closeReceipt, err := flags.apply(ctx, a, setFlags(fs), &req)
	defer closeReceipt()
	if err != nil {
		return err
	}

	e, err := a.expenses.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	if a.json {
		return printJSON(a.stdout, e)
	}
	fmt.Fprintf(a.stdout, "Created expense %s\n", e.ID)
	return nil
}

func expensesUpdate(ctx context.Context, a *app, args []string) error {
	id, args := splitID(args)
	fs := newFlagSet(a, "expenses update")
	flags := bindExpenseFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireID(fs, id)
	if err != nil {
		return err
	}
	set := setFlags(fs)
	if len(set) == 0 {
		return errors.New("expenses update: nothing to change")
	}

	current, err := a.expenses.Get(ctx, id)
	if err != nil {
		return err
	}
	req := models.ExpenseRequest{
		Description: current.Description,
		Amount:      current.Amount,
		Date:        current.Date.Time,
		CategoryID:  current.CategoryID,
		Type:        current.Type,
		Currency:    current.Currency,
		IsRecurring: current.IsRecurring,
	}
	closeReceipt, err := flags.apply(ctx, a, set, &req)
	defer closeReceipt()
	if err != nil {
		return err
	}

	e, err := a.expenses.Update(ctx, id, req)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if a.json {
		return printJSON(a.stdout, e)
	}
	fmt.Fprintf(a.stdout, "Updated expense %s\n", e.ID)
	return nil
}

func expensesDelete(ctx context.Context, a *app, args []string) error {
	id, args := splitID(args)
	fs := newFlagSet(a, "expenses delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireID(fs, id)
	if err != nil {
		return err
	}

	if err := a.expenses.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	fmt.Fprintf(a.stdout, "Deleted expense %s\n", id)
	return nil
}

// resolveCategory accepts a category id or a case-insensitive name.
func resolveCategory(ctx context.Context, a *app, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", models.ErrEmptyCategory
	}

	categories, err := a.expenses.Categories(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load categories: %w", err)
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c.ID, nil
		}
		names = append(names, c.Name)
	}
	return "", fmt.Errorf("unknown category %q (available: %s)", ref, strings.Join(names, ", "))
}
