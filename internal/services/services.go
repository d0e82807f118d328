// Package services maps domain operations onto the REST endpoints.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"expense-tracker-client/internal/api"
)

// ErrMissingID is returned when an operation needs a resource id and none was given.
var ErrMissingID = errors.New("id is required")

// Requester is the subset of api.Client used by the services.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, result any) error
	Post(ctx context.Context, path string, body, result any) error
	Put(ctx context.Context, path string, body, result any) error
	Delete(ctx context.Context, path string) error
	Multipart(ctx context.Context, method, path string, form *api.Form, result any) error
}

var _ Requester = (*api.Client)(nil)

func resourcePath(base, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	return base + "/" + url.PathEscape(id), nil
}
