package models

import "errors"

// Validation errors. These are detected client-side and never sent to the server.
var (
	ErrEmptyEmail           = errors.New("email is required")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrEmptyPassword        = errors.New("password is required")
	ErrPasswordTooShort     = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrEmptyUsername        = errors.New("username is required")
	ErrInvalidAmount        = errors.New("amount must be at least 0.01")
	ErrEmptyDescription     = errors.New("description is required")
	ErrDescriptionTooLong   = errors.New("description is too long")
	ErrMissingDate          = errors.New("date is required")
	ErrEmptyCategory        = errors.New("category is required")
	ErrInvalidExpenseType   = errors.New("type must be Income or Expense")
	ErrEmptyCurrency        = errors.New("currency is required")
	ErrEmptyName            = errors.New("name is required")
	ErrNameTooLong          = errors.New("name is too long")
	ErrInvalidColor         = errors.New("color must be a #RRGGBB hex value")
	ErrInvalidSortDirection = errors.New("sort direction must be asc or desc")
	ErrInvalidPage          = errors.New("page and page size must be positive")
	ErrInvalidAmountRange   = errors.New("minimum amount exceeds maximum amount")
	ErrInvalidDateRange     = errors.New("start date is after end date")
)

// ErrInvalidResponse is returned when a server response does not match the expected schema.
var ErrInvalidResponse = errors.New("invalid server response")

// MinPasswordLength mirrors the server's password policy.
const MinPasswordLength = 6
