package models

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Length limits of category fields.
const (
	MaxCategoryNameLength        = 50
	MaxCategoryDescriptionLength = 200
)

// Category groups expenses.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	CreatedAt   Time   `json:"createdAt"`
	UpdatedAt   Time   `json:"updatedAt"`
}

// Validate rejects categories without an identity.
func (c *Category) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: category without id", ErrInvalidResponse)
	}
	return nil
}

// CategoryRequest is the body of category create and update calls.
type CategoryRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Validate checks the request before it is sent.
func (r CategoryRequest) Validate() error {
	var errs []error
	name := strings.TrimSpace(r.Name)
	if name == "" {
		errs = append(errs, ErrEmptyName)
	} else if len(name) > MaxCategoryNameLength {
		errs = append(errs, ErrNameTooLong)
	}
	if len(r.Description) > MaxCategoryDescriptionLength {
		errs = append(errs, ErrDescriptionTooLong)
	}
	if r.Color != "" && !hexColor.MatchString(r.Color) {
		errs = append(errs, ErrInvalidColor)
	}
	return errors.Join(errs...)
}

// CategoryFilter narrows GET /api/categories. Only set fields are sent.
type CategoryFilter struct {
	SearchTerm    string
	Page          *int
	PageSize      *int
	SortBy        string
	SortDirection string
}

// Validate checks the filter before it is sent.
func (f CategoryFilter) Validate() error {
	var errs []error
	if (f.Page != nil && *f.Page < 1) || (f.PageSize != nil && *f.PageSize < 1) {
		errs = append(errs, ErrInvalidPage)
	}
	if f.SortDirection != "" && f.SortDirection != SortAsc && f.SortDirection != SortDesc {
		errs = append(errs, ErrInvalidSortDirection)
	}
	return errors.Join(errs...)
}

// Values renders the filter as query parameters.
func (f CategoryFilter) Values() url.Values {
	v := url.Values{}
	if f.SearchTerm != "" {
		v.Set("searchTerm", f.SearchTerm)
	}
	if f.Page != nil {
		v.Set("page", strconv.Itoa(*f.Page))
	}
	if f.PageSize != nil {
		v.Set("pageSize", strconv.Itoa(*f.PageSize))
	}
	if f.SortBy != "" {
		v.Set("sortBy", f.SortBy)
	}
	if f.SortDirection != "" {
		v.Set("sortDirection", f.SortDirection)
	}
	return v
}

// CategoryList is the response of GET /api/categories.
type CategoryList struct {
	Categories []Category `json:"categories"`
	TotalCount int        `json:"totalCount"`
}

// Validate rejects lists that contain anonymous categories.
func (l *CategoryList) Validate() error {
	for i := range l.Categories {
		if err := l.Categories[i].Validate(); err != nil {
			return err
		}
	}
	if l.Categories == nil {
		l.Categories = []Category{}
	}
	return nil
}
