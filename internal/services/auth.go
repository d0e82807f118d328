package services

import (
	"context"

	"expense-tracker-client/internal/api"
	"expense-tracker-client/internal/models"
)

const (
	authRefreshPath        = "/api/Auth/refresh-token"
	authChangePasswordPath = "/api/Auth/change-password"
)

// AuthService calls the /api/Auth endpoints. Login, register and refresh go
// through public; change-password needs the authenticated pipeline.
type AuthService struct {
	public Requester
	authed Requester
}

// NewAuthService creates an AuthService. authed may be nil when password changes are not needed.
func NewAuthService(public, authed Requester) *AuthService {
	return &AuthService{public: public, authed: authed}
}

// Login posts credentials.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.public.Post(ctx, api.LoginPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.public.Post(ctx, api.RegisterPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshToken exchanges a refresh token for a new session.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.public.Post(ctx, authRefreshPath, models.RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChangePassword changes the signed-in user's password.
func (s *AuthService) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if s.authed == nil {
		return api.ErrAuthenticationRequired
	}
	return s.authed.Post(ctx, authChangePasswordPath, req, nil)
}
