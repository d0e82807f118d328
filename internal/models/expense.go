package models

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExpenseType distinguishes money going out from money coming in.
type ExpenseType string

const (
	TypeExpense ExpenseType = "Expense"
	TypeIncome  ExpenseType = "Income"
)

// ParseExpenseType accepts the wire values case-insensitively.
func ParseExpenseType(s string) (ExpenseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense":
		return TypeExpense, nil
	case "income":
		return TypeIncome, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidExpenseType, s)
}

// MaxDescriptionLength is the longest description the forms accept.
const MaxDescriptionLength = 100

// DefaultCurrency is used when a request leaves the currency empty.
const DefaultCurrency = "USD"

// Expense represents a financial record held by the server.
type Expense struct {
	ID           string      `json:"id"`
	Amount       float64     `json:"amount"`
	Description  string      `json:"description"`
	Date         Time        `json:"date"`
	Type         ExpenseType `json:"type"`
	Currency     string      `json:"currency"`
	CategoryID   string      `json:"categoryId"`
	CategoryName string      `json:"categoryName"`
	IsRecurring  bool        `json:"isRecurring"`
	CreatedAt    Time        `json:"createdAt"`
	UpdatedAt    Time        `json:"updatedAt"`
}

// Validate rejects records without an identity.
func (e *Expense) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: expense without id", ErrInvalidResponse)
	}
	return nil
}

// IsIncome reports whether the record is income.
func (e *Expense) IsIncome() bool {
	return e.Type == TypeIncome
}

// ExpenseRequest carries the fields of a create or update. It travels as a multipart form.
type ExpenseRequest struct {
	Description string
	Amount      float64
	Date        time.Time
	CategoryID  string
	Type        ExpenseType
	Currency    string
	IsRecurring bool
	Note        string

	// Receipt is an optional attachment uploaded with the form.
	Receipt         io.Reader
	ReceiptFilename string
}

// Normalize fills defaults the forms would have pre-selected.
func (r *ExpenseRequest) Normalize() {
	r.Description = strings.TrimSpace(r.Description)
	if r.Type == "" {
		r.Type = TypeExpense
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	r.Currency = strings.ToUpper(r.Currency)
}

// Validate checks the request before it is sent.
func (r ExpenseRequest) Validate() error {
	var errs []error
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		errs = append(errs, ErrEmptyDescription)
	} else if len(desc) > MaxDescriptionLength {
		errs = append(errs, ErrDescriptionTooLong)
	}
	if r.Amount < 0.01 {
		errs = append(errs, ErrInvalidAmount)
	}
	if r.Date.IsZero() {
		errs = append(errs, ErrMissingDate)
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		errs = append(errs, ErrEmptyCategory)
	}
	if r.Type != TypeExpense && r.Type != TypeIncome {
		errs = append(errs, ErrInvalidExpenseType)
	}
	if strings.TrimSpace(r.Currency) == "" {
		errs = append(errs, ErrEmptyCurrency)
	}
	return errors.Join(errs...)
}

// Sort directions accepted by list endpoints.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Defaults applied to expense list queries.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	DefaultSortBy   = "date"
)

// ExpenseFilter is the caller-facing filter for expense lists.
type ExpenseFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	CategoryIDs   []string
	MinAmount     *float64
	MaxAmount     *float64
	Description   string
	SearchTerm    string
	SortBy        string
	SortDirection string
	Page          int
	PageSize      int
}

// Validate checks the filter before it is sent.
func (f ExpenseFilter) Validate() error {
	var errs []error
	if f.Page < 0 || f.PageSize < 0 {
		errs = append(errs, ErrInvalidPage)
	}
	if f.SortDirection != "" && f.SortDirection != SortAsc && f.SortDirection != SortDesc {
		errs = append(errs, ErrInvalidSortDirection)
	}
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		errs = append(errs, ErrInvalidAmountRange)
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		errs = append(errs, ErrInvalidDateRange)
	}
	return errors.Join(errs...)
}

// ExpenseQuery is the wire body of POST /api/expenses.
type ExpenseQuery struct {
	PageNumber    int      `json:"pageNumber"`
	PageSize      int      `json:"pageSize"`
	SortBy        string   `json:"sortBy"`
	SortDirection string   `json:"sortDirection"`
	CategoryIDs   []string `json:"categoryIds"`
	StartDate     *Time    `json:"startDate"`
	EndDate       *Time    `json:"endDate"`
	MinAmount     *float64 `json:"minAmount"`
	MaxAmount     *float64 `json:"maxAmount"`
	SearchTerm    *string  `json:"searchTerm"`
}

// Query maps the filter onto the wire body, applying list defaults.
// Zero amounts are sent as null, matching the server's "no bound" convention.
func (f ExpenseFilter) Query() ExpenseQuery {
	q := ExpenseQuery{
		PageNumber:    f.Page,
		PageSize:      f.PageSize,
		SortBy:        f.SortBy,
		SortDirection: f.SortDirection,
		CategoryIDs:   f.CategoryIDs,
	}
	if q.PageNumber == 0 {
		q.PageNumber = DefaultPage
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.SortDirection == "" {
		q.SortDirection = SortDesc
	}
	if q.CategoryIDs == nil {
		q.CategoryIDs = []string{}
	}
	if f.StartDate != nil {
		q.StartDate = &Time{Time: *f.StartDate}
	}
	if f.EndDate != nil {
		q.EndDate = &Time{Time: *f.EndDate}
	}
	if f.MinAmount != nil && *f.MinAmount != 0 {
		q.MinAmount = f.MinAmount
	}
	if f.MaxAmount != nil && *f.MaxAmount != 0 {
		q.MaxAmount = f.MaxAmount
	}
	term := f.SearchTerm
	if term == "" {
		term = f.Description
	}
	if term != "" {
		q.SearchTerm = &term
	}
	return q
}

// Page is a paginated list response.
type Page[T any] struct {
	Items           []T  `json:"items"`
	PageNumber      int  `json:"pageNumber"`
	TotalPages      int  `json:"totalPages"`
	TotalCount      int  `json:"totalCount"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

// Validate rejects pages that contradict themselves.
func (p *Page[T]) Validate() error {
	if p.TotalCount < 0 || p.TotalPages < 0 {
		return fmt.Errorf("%w: negative page counts", ErrInvalidResponse)
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return nil
}
