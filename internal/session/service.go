// Package session owns the authenticated user and the persisted tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"expense-tracker-client/internal/api"
	"expense-tracker-client/internal/common"
	"expense-tracker-client/internal/models"
	"expense-tracker-client/internal/tokenstore"
)

// ErrNoRefreshToken is returned when a refresh is attempted without a stored refresh token.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// Authenticator performs the unauthenticated auth calls.
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
}

// Service tracks the current user. Subscriber callbacks run synchronously
// and must not change the session.
type Service struct {
	store  *tokenstore.Store
	auth   Authenticator
	logger *common.Logger

	// pub serialises state changes with their notifications.
	pub  sync.Mutex
	mu   sync.RWMutex
	user *models.User

	users   subscribers[*models.User]
	expired subscribers[error]
}

var _ api.Credentials = (*Service)(nil)

// NewService creates a session service. Call Restore to load a persisted session.
func NewService(store *tokenstore.Store, auth Authenticator, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		store:  store,
		auth:   auth,
		logger: logger,
	}
}

// Restore loads the persisted user. A malformed user forces a logout.
func (s *Service) Restore() error {
	user, err := s.store.User()
	if errors.Is(err, tokenstore.ErrMalformedUser) {
		s.logger.Warn().Err(err).Msg("Discarding unreadable session")
		return s.Logout()
	}
	if err != nil {
		return err
	}

	s.pub.Lock()
	defer s.pub.Unlock()
	s.setUser(user)
	s.users.notify(cloneUser(user))
	return nil
}

// Login authenticates and stores the new session.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := s.auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// Register creates an account and stores the new session.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// Refresh exchanges refreshToken for a new session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.User, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	resp, err := s.auth.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// RefreshSession refreshes using the stored refresh token.
func (s *Service) RefreshSession(ctx context.Context) (*models.User, error) {
	refreshToken, err := s.store.RefreshToken()
	if err != nil {
		return nil, err
	}
	return s.Refresh(ctx, refreshToken)
}

// RefreshAccessToken implements api.Credentials.
func (s *Service) RefreshAccessToken(ctx context.Context) (string, error) {
	if _, err := s.RefreshSession(ctx); err != nil {
		return "", err
	}
	return s.store.Token()
}

// AccessToken implements api.Credentials.
func (s *Service) AccessToken() (string, error) {
	return s.store.Token()
}

// Expire ends the session after an unrecoverable 401 and notifies OnExpired subscribers.
func (s *Service) Expire(cause error) {
	if err := s.Logout(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear expired session")
	}
	s.logger.Info().Err(cause).Msg("Session expired")
	s.expired.notify(cause)
}

// Logout clears the stored session and publishes nil.
func (s *Service) Logout() error {
	s.pub.Lock()
	defer s.pub.Unlock()

	err := s.store.Clear()
	s.setUser(nil)
	s.users.notify(nil)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether an access token is stored.
func (s *Service) IsAuthenticated() bool {
	token, err := s.store.Token()
	return err == nil && token != ""
}

// CurrentUser returns a copy of the current user, or nil.
func (s *Service) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

// UpdateUser replaces the stored profile, keeping the tokens. A profile without
// an id takes the id of the current user and is rejected when there is none.
// It returns the stored copy.
func (s *Service) UpdateUser(user *models.User) (*models.User, error) {
	if user == nil {
		return s.CurrentUser(), nil
	}
	s.pub.Lock()
	defer s.pub.Unlock()

	u := cloneUser(user)
	if u.ID == "" {
		current := s.CurrentUser()
		if current == nil {
			return nil, fmt.Errorf("%w: user without id", models.ErrInvalidResponse)
		}
		u.ID = current.ID
	}
	if err := s.store.SaveUser(u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	s.setUser(u)
	s.users.notify(cloneUser(u))
	return cloneUser(u), nil
}

// Subscribe calls fn with the current user now and on every change.
func (s *Service) Subscribe(fn func(*models.User)) (unsubscribe func()) {
	s.pub.Lock()
	defer s.pub.Unlock()
	unsubscribe = s.users.add(fn)
	fn(s.CurrentUser())
	return unsubscribe
}

// OnExpired calls fn each time the session is expired by the pipeline.
func (s *Service) OnExpired(fn func(error)) (unsubscribe func()) {
	return s.expired.add(fn)
}

// TokenExpiry reads the exp claim of the stored access token without verifying it.
func (s *Service) TokenExpiry() (time.Time, bool) {
	token, err := s.store.Token()
	if err != nil || token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(token)
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (s *Service) establish(resp *models.AuthResponse) (*models.User, error) {
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	user := resp.User()

	s.pub.Lock()
	defer s.pub.Unlock()

	if err := s.store.Save(resp.Token, resp.RefreshToken, user); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.setUser(user)
	s.logger.Debug().Str("user_id", user.ID).Msg("Session established")
	s.users.notify(cloneUser(user))
	return cloneUser(user), nil
}

func (s *Service) setUser(u *models.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
