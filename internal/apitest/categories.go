package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"expense-tracker-client/internal/models"
)

// CategoryDef defines a category every new account starts with.
type CategoryDef struct {
	Name  string
	Icon  string
	Color string
}

// DefaultCategories are seeded into every new account.
var DefaultCategories = []CategoryDef{
	{"Food & Dining", "restaurant", "#FF5722"},
	{"Transportation", "directions_car", "#2196F3"},
	{"Shopping", "shopping_cart", "#9C27B0"},
	{"Entertainment", "movie", "#FFC107"},
	{"Utilities", "power", "#4CAF50"},
}

// seedCategories fills a new account. Callers hold s.mu.
func (s *Server) seedCategories(acc *account) {
	now := models.NewTime(s.now())
	for _, def := range DefaultCategories {
		c := &models.Category{
			ID:        uuid.NewString(),
			Name:      def.Name,
			Icon:      def.Icon,
			Color:     def.Color,
			CreatedAt: now,
			UpdatedAt: now,
		}
		acc.categories[c.ID] = c
	}
}

// ListCategories handles GET /api/categories.
func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("searchTerm"))

	s.mu.Lock()
	acc := s.accounts[userIDFromContext(r)]
	cats := make([]models.Category, 0, len(acc.categories))
	for _, c := range acc.categories {
		if search == "" || strings.Contains(strings.ToLower(c.Name), search) {
			cats = append(cats, *c)
		}
	}
	s.mu.Unlock()

	desc := strings.EqualFold(q.Get("sortDirection"), models.SortDesc)
	sortBy := strings.ToLower(q.Get("sortBy"))
	sort.Slice(cats, func(i, j int) bool {
		a, b := cats[i], cats[j]
		if desc {
			a, b = b, a
		}
		if sortBy == "createdat" && !a.CreatedAt.Equal(b.CreatedAt.Time) {
			return a.CreatedAt.Before(b.CreatedAt.Time)
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	total := len(cats)
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	if page > 0 && size > 0 {
		start := min((page-1)*size, total)
		end := min(start+size, total)
		cats = cats[start:end]
	}

	writeJSON(w, http.StatusOK, models.CategoryList{Categories: cats, TotalCount: total})
}

// GetCategory handles GET /api/categories/{id}.
func (s *Server) GetCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.accounts[userIDFromContext(r)].categories[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCategory handles POST /api/categories.
func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFromContext(r)]
	if nameTaken(acc, req.Name, "") {
		writeError(w, http.StatusConflict, "A category with this name already exists")
		return
	}
	now := models.NewTime(s.now())
	c := &models.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	acc.categories[c.ID] = c
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/categories/{id}.
func (s *Server) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")
	if req.ID != "" && req.ID != id {
		writeError(w, http.StatusBadRequest, "Id mismatch")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFromContext(r)]
	c, ok := acc.categories[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	if nameTaken(acc, req.Name, id) {
		writeError(w, http.StatusConflict, "A category with this name already exists")
		return
	}
	c.Name = strings.TrimSpace(req.Name)
	c.Description = req.Description
	c.Color = req.Color
	c.Icon = req.Icon
	c.UpdatedAt = models.NewTime(s.now())
	for _, e := range acc.expenses {
		if e.CategoryID == id {
			e.CategoryName = c.Name
		}
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/categories/{id}.
func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFromContext(r)]
	id := r.PathValue("id")
	if _, ok := acc.categories[id]; !ok {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	for _, e := range acc.expenses {
		if e.CategoryID == id {
			writeError(w, http.StatusConflict, "Category is in use by existing expenses")
			return
		}
	}
	delete(acc.categories, id)
	w.WriteHeader(http.StatusNoContent)
}

func nameTaken(acc *account, name, exceptID string) bool {
	name = strings.TrimSpace(name)
	for id, c := range acc.categories {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
