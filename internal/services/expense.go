package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"expense-tracker-client/internal/api"
	"expense-tracker-client/internal/models"
)

const (
	expensesPath       = "/api/expenses"
	expenseCreatePath  = "/api/expenses/create"
	reportsSummaryPath = "/api/reports/summary"
)

// ExpenseService manages expenses and their reports.
type ExpenseService struct {
	client Requester
}

// NewExpenseService creates an ExpenseService over an authenticated client.
func NewExpenseService(client Requester) *ExpenseService {
	return &ExpenseService{client: client}
}

// List returns one page of expenses matching filter.
func (s *ExpenseService) List(ctx context.Context, filter models.ExpenseFilter) (*models.Page[models.Expense], error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	var page models.Page[models.Expense]
	if err := s.client.Post(ctx, expensesPath, filter.Query(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Recent returns the n most recent expenses.
func (s *ExpenseService) Recent(ctx context.Context, n int) ([]models.Expense, error) {
	page, err := s.List(ctx, models.ExpenseFilter{
		Page:          1,
		PageSize:      n,
		SortBy:        models.DefaultSortBy,
		SortDirection: models.SortDesc,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Get returns a single expense.
func (s *ExpenseService) Get(ctx context.Context, id string) (*models.Expense, error) {
	path, err := resourcePath(expensesPath, id)
	if err != nil {
		return nil, err
	}
	var e models.Expense
	if err := s.client.Get(ctx, path, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create records a new expense.
func (s *ExpenseService) Create(ctx context.Context, req models.ExpenseRequest) (*models.Expense, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var e models.Expense
	if err := s.client.Multipart(ctx, http.MethodPost, expenseCreatePath, expenseForm(req), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces an expense.
func (s *ExpenseService) Update(ctx context.Context, id string, req models.ExpenseRequest) (*models.Expense, error) {
	path, err := resourcePath(expensesPath, id)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var e models.Expense
	if err := s.client.Multipart(ctx, http.MethodPut, path, expenseForm(req), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes an expense.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	path, err := resourcePath(expensesPath, id)
	if err != nil {
		return err
	}
	return s.client.Delete(ctx, path)
}

// Summary returns aggregates for the optional date range.
func (s *ExpenseService) Summary(ctx context.Context, start, end time.Time) (*models.Summary, error) {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, models.ErrInvalidDateRange
	}
	q := url.Values{}
	if !start.IsZero() {
		q.Set("startDate", models.FormatTime(start))
	}
	if !end.IsZero() {
		q.Set("endDate", models.FormatTime(end))
	}
	var summary models.Summary
	if err := s.client.Get(ctx, reportsSummaryPath, q, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Categories returns every category, for pickers.
func (s *ExpenseService) Categories(ctx context.Context) ([]models.Category, error) {
	var resp categoriesResponse
	if err := s.client.Get(ctx, categoriesPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.list.Categories, nil
}

func expenseForm(req models.ExpenseRequest) *api.Form {
	form := api.NewForm().
		Set("description", req.Description).
		Set("amount", strconv.FormatFloat(req.Amount, 'f', -1, 64)).
		Set("date", models.FormatTime(req.Date)).
		Set("categoryId", req.CategoryID).
		Set("type", string(req.Type)).
		Set("currency", req.Currency).
		Set("isRecurring", strconv.FormatBool(req.IsRecurring))
	if req.Note != "" {
		form.Set("note", req.Note)
	}
	if req.Receipt != nil {
		name := req.ReceiptFilename
		if name == "" {
			name = "receipt"
		}
		form.File("receipt", name, req.Receipt)
	}
	return form
}

// categoriesResponse accepts both a bare array and a {categories, totalCount} object.
type categoriesResponse struct {
	list models.CategoryList
}

func (r *categoriesResponse) UnmarshalJSON(data []byte) error {
	var arr []models.Category
	if err := json.Unmarshal(data, &arr); err == nil {
		r.list = models.CategoryList{Categories: arr, TotalCount: len(arr)}
		return nil
	}
	return json.Unmarshal(data, &r.list)
}

func (r *categoriesResponse) Validate() error {
	return r.list.Validate()
}
