package models

import (
	"errors"
	"fmt"
	"strings"
)

// User is the authenticated user's profile.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Currency  string `json:"currency,omitempty"`
	TimeZone  string `json:"timeZone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Validate rejects a profile without an identity.
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user without id", ErrInvalidResponse)
	}
	return nil
}

// DisplayName prefers the full name, then the username, then the email.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case full != "":
		return full
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// UpdateProfileRequest is the body of PUT /api/UserProfile.
type UpdateProfileRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Currency  string `json:"currency,omitempty"`
	TimeZone  string `json:"timeZone,omitempty"`
}

// Validate checks the profile update before it is sent.
func (r UpdateProfileRequest) Validate() error {
	var errs []error
	errs = append(errs, validateEmail(r.Email))
	if strings.TrimSpace(r.FirstName) == "" {
		errs = append(errs, fmt.Errorf("first %w", ErrEmptyName))
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs = append(errs, fmt.Errorf("last %w", ErrEmptyName))
	}
	return errors.Join(errs...)
}
