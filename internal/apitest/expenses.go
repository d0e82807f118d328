package apitest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"expense-tracker-client/internal/models"
)

// expenseForm is a parsed create or update form.
type expenseForm struct {
	req         models.ExpenseRequest
	receiptSize int64
}

func parseExpenseForm(r *http.Request) (expenseForm, error) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return expenseForm{}, fmt.Errorf("invalid form: %w", err)
	}

	var f expenseForm
	f.req.Description = r.FormValue("description")
	f.req.CategoryID = r.FormValue("categoryId")
	f.req.Currency = r.FormValue("currency")
	f.req.Note = r.FormValue("note")

	amount, err := strconv.ParseFloat(r.FormValue("amount"), 64)
	if err != nil {
		return expenseForm{}, models.ErrInvalidAmount
	}
	f.req.Amount = amount

	dateStr := r.FormValue("date")
	if dateStr == "" {
		return expenseForm{}, models.ErrMissingDate
	}
	date, err := models.ParseTime(dateStr)
	if err != nil {
		return expenseForm{}, err
	}
	f.req.Date = date

	if t := r.FormValue("type"); t != "" {
		typ, err := models.ParseExpenseType(t)
		if err != nil {
			return expenseForm{}, err
		}
		f.req.Type = typ
	}
	if v := r.FormValue("isRecurring"); v != "" {
		f.req.IsRecurring, _ = strconv.ParseBool(v)
	}

	if file, header, err := r.FormFile("receipt"); err == nil {
		n, _ := io.Copy(io.Discard, file)
		file.Close()
		f.receiptSize = n
		f.req.ReceiptFilename = header.Filename
	} else if !errors.Is(err, http.ErrMissingFile) {
		return expenseForm{}, fmt.Errorf("invalid receipt: %w", err)
	}

	f.req.Normalize()
	if err := f.req.Validate(); err != nil {
		return expenseForm{}, err
	}
	return f, nil
}

// ListExpenses handles POST /api/expenses.
func (s *Server) ListExpenses(w http.ResponseWriter, r *http.Request) {
	var q models.ExpenseQuery
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if q.PageNumber < 1 {
		q.PageNumber = models.DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = models.DefaultPageSize
	}

	s.mu.Lock()
	acc := s.accounts[userIDFromContext(r)]
	items := make([]models.Expense, 0, len(acc.expenses))
	for _, e := range acc.expenses {
		if matchesQuery(e, q) {
			items = append(items, *e)
		}
	}
	s.mu.Unlock()

	sortExpenses(items, q.SortBy, q.SortDirection)

	total := len(items)
	totalPages := (total + q.PageSize - 1) / q.PageSize
	start := min((q.PageNumber-1)*q.PageSize, total)
	end := min(start+q.PageSize, total)

	writeJSON(w, http.StatusOK, models.Page[models.Expense]{
		Items:           items[start:end],
		PageNumber:      q.PageNumber,
		TotalPages:      totalPages,
		TotalCount:      total,
		HasPreviousPage: q.PageNumber > 1,
		HasNextPage:     q.PageNumber < totalPages,
	})
}

func matchesQuery(e *models.Expense, q models.ExpenseQuery) bool {
	if len(q.CategoryIDs) > 0 {
		found := false
		for _, id := range q.CategoryIDs {
			if id == e.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.StartDate != nil && e.Date.Before(q.StartDate.Time) {
		return false
	}
	if q.EndDate != nil && e.Date.After(q.EndDate.Time) {
		return false
	}
	if q.MinAmount != nil && e.Amount < *q.MinAmount {
		return false
	}
	if q.MaxAmount != nil && e.Amount > *q.MaxAmount {
		return false
	}
	if q.SearchTerm != nil && *q.SearchTerm != "" &&
		!strings.Contains(strings.ToLower(e.Description), strings.ToLower(*q.SearchTerm)) {
		return false
	}
	return true
}

func sortExpenses(items []models.Expense, sortBy, direction string) {
	desc := !strings.EqualFold(direction, models.SortAsc)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if desc {
			a, b = b, a
		}
		switch strings.ToLower(sortBy) {
		case "amount":
			if a.Amount != b.Amount {
				return a.Amount < b.Amount
			}
		case "description":
			if a.Description != b.Description {
				return strings.ToLower(a.Description) < strings.ToLower(b.Description)
			}
		}
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.CreatedAt.Before(b.CreatedAt.Time)
	})
}

// CreateExpense handles POST /api/expenses/create.
func (s *Server) CreateExpense(w http.ResponseWriter, r *http.Request) {
	f, err := parseExpenseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFromContext(r)]
	cat, ok := acc.categories[f.req.CategoryID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown category")
		return
	}
	now := models.NewTime(s.now())
	e := &models.Expense{
		ID:           uuid.NewString(),
		Amount:       f.req.Amount,
		Description:  f.req.Description,
		Date:         models.NewTime(f.req.Date.UTC()),
		Type:         f.req.Type,
		Currency:     f.req.Currency,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		IsRecurring:  f.req.IsRecurring,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	acc.expenses[e.ID] = e
	s.logger.Debug().Str("id", e.ID).Int64("receipt_bytes", f.receiptSize).Msg("Expense created")
	writeJSON(w, http.StatusCreated, e)
}

// GetExpense handles GET /api/expenses/{id}.
func (s *Server) GetExpense(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.accounts[userIDFromContext(r)].expenses[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Expense not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateExpense handles PUT /api/expenses/{id}.
func (s *Server) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	f, err := parseExpenseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFromContext(r)]
	e, ok := acc.expenses[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Expense not found")
		return
	}
	cat, ok := acc.categories[f.req.CategoryID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown category")
		return
	}
	e.Amount = f.req.Amount
	e.Description = f.req.Description
	e.Date = models.NewTime(f.req.Date.UTC())
	e.Type = f.req.Type
	e.Currency = f.req.Currency
	e.CategoryID = cat.ID
	e.CategoryName = cat.Name
	e.IsRecurring = f.req.IsRecurring
	e.UpdatedAt = models.NewTime(s.now())
	writeJSON(w, http.StatusOK, e)
}

// DeleteExpense handles DELETE /api/expenses/{id}.
func (s *Server) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFromContext(r)]
	id := r.PathValue("id")
	if _, ok := acc.expenses[id]; !ok {
		writeError(w, http.StatusNotFound, "Expense not found")
		return
	}
	delete(acc.expenses, id)
	w.WriteHeader(http.StatusNoContent)
}
