package services

import (
	"context"

	"expense-tracker-client/internal/models"
)

const categoriesPath = "/api/categories"

// CategoryService manages categories.
type CategoryService struct {
	client Requester
}

// NewCategoryService creates a CategoryService over an authenticated client.
func NewCategoryService(client Requester) *CategoryService {
	return &CategoryService{client: client}
}

// List returns the categories matching filter.
func (s *CategoryService) List(ctx context.Context, filter models.CategoryFilter) (*models.CategoryList, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	var resp categoriesResponse
	if err := s.client.Get(ctx, categoriesPath, filter.Values(), &resp); err != nil {
		return nil, err
	}
	return &resp.list, nil
}

// Get returns a single category.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	path, err := resourcePath(categoriesPath, id)
	if err != nil {
		return nil, err
	}
	var c models.Category
	if err := s.client.Get(ctx, path, nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	req.ID = ""
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var c models.Category
	if err := s.client.Post(ctx, categoriesPath, req, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update replaces a category.
func (s *CategoryService) Update(ctx context.Context, id string, req models.CategoryRequest) (*models.Category, error) {
	path, err := resourcePath(categoriesPath, id)
	if err != nil {
		return nil, err
	}
	req.ID = id
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var c models.Category
	if err := s.client.Put(ctx, path, req, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	path, err := resourcePath(categoriesPath, id)
	if err != nil {
		return err
	}
	return s.client.Delete(ctx, path)
}
