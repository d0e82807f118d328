package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// LoginRequest is the body of POST /api/Auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials before they are sent.
func (r LoginRequest) Validate() error {
	return errors.Join(validateEmail(r.Email), validatePassword(r.Password))
}

// RegisterRequest is the body of POST /api/Auth/register.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the registration details before they are sent.
func (r RegisterRequest) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Username) == "" {
		errs = append(errs, ErrEmptyUsername)
	}
	errs = append(errs, validateEmail(r.Email), validatePassword(r.Password))
	if r.Password != r.ConfirmPassword {
		errs = append(errs, ErrPasswordMismatch)
	}
	return errors.Join(errs...)
}

// RefreshRequest is the body of POST /api/Auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is the body of POST /api/Auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the password change before it is sent.
func (r ChangePasswordRequest) Validate() error {
	var errs []error
	if r.CurrentPassword == "" {
		errs = append(errs, fmt.Errorf("current %w", ErrEmptyPassword))
	}
	errs = append(errs, validatePassword(r.NewPassword))
	if r.NewPassword != r.ConfirmPassword {
		errs = append(errs, ErrPasswordMismatch)
	}
	return errors.Join(errs...)
}

// AuthResponse is returned by login, register and refresh-token.
type AuthResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

// Validate rejects responses that cannot establish a session.
func (r *AuthResponse) Validate() error {
	switch {
	case r.Token == "":
		return fmt.Errorf("%w: missing token", ErrInvalidResponse)
	case r.RefreshToken == "":
		return fmt.Errorf("%w: missing refresh token", ErrInvalidResponse)
	case r.UserID == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidResponse)
	}
	return nil
}

// User returns the profile carried by the response.
func (r *AuthResponse) User() *User {
	return &User{
		ID:       r.UserID,
		Username: r.Username,
		Email:    r.Email,
	}
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
