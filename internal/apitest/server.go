// Package apitest is an in-memory implementation of the expense tracker REST API
// for tests and offline development.
package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"expense-tracker-client/internal/common"
	"expense-tracker-client/internal/models"
)

// Context key type to avoid collisions.
type contextKey string

// UserContextKey is the context key for the authenticated user id.
const UserContextKey contextKey = "user"

// DefaultAccessTTL is how long issued access tokens are valid.
const DefaultAccessTTL = 15 * time.Minute

type account struct {
	user         models.User
	passwordHash []byte
	expenses     map[string]*models.Expense
	categories   map[string]*models.Category
}

// Server holds the fake API state.
type Server struct {
	logger    *common.Logger
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time

	mu            sync.Mutex
	accounts      map[string]*account // by user id
	emails        map[string]string   // lower-case email to user id
	accessTokens  map[string]string   // jti to user id
	refreshTokens map[string]string   // refresh token to user id

	failRefresh  bool
	refreshCalls int
	authHeaders  []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAccessTTL sets the lifetime of issued access tokens.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

// WithSecret sets the HS256 signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates an empty fake API.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:        common.NewSilentLogger(),
		secret:        []byte(uuid.NewString()),
		accessTTL:     DefaultAccessTTL,
		now:           time.Now,
		accounts:      make(map[string]*account),
		emails:        make(map[string]string),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/Auth/login", s.Login)
	mux.HandleFunc("POST /api/Auth/register", s.Register)
	mux.HandleFunc("POST /api/Auth/refresh-token", s.RefreshToken)
	mux.Handle("POST /api/Auth/change-password", s.AuthMiddleware(http.HandlerFunc(s.ChangePassword)))

	mux.Handle("POST /api/expenses", s.AuthMiddleware(http.HandlerFunc(s.ListExpenses)))
	mux.Handle("POST /api/expenses/create", s.AuthMiddleware(http.HandlerFunc(s.CreateExpense)))
	mux.Handle("GET /api/expenses/{id}", s.AuthMiddleware(http.HandlerFunc(s.GetExpense)))
	mux.Handle("PUT /api/expenses/{id}", s.AuthMiddleware(http.HandlerFunc(s.UpdateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", s.AuthMiddleware(http.HandlerFunc(s.DeleteExpense)))
	mux.Handle("GET /api/reports/summary", s.AuthMiddleware(http.HandlerFunc(s.Summary)))

	mux.Handle("GET /api/categories", s.AuthMiddleware(http.HandlerFunc(s.ListCategories)))
	mux.Handle("POST /api/categories", s.AuthMiddleware(http.HandlerFunc(s.CreateCategory)))
	mux.Handle("GET /api/categories/{id}", s.AuthMiddleware(http.HandlerFunc(s.GetCategory)))
	mux.Handle("PUT /api/categories/{id}", s.AuthMiddleware(http.HandlerFunc(s.UpdateCategory)))
	mux.Handle("DELETE /api/categories/{id}", s.AuthMiddleware(http.HandlerFunc(s.DeleteCategory)))

	mux.Handle("GET /api/UserProfile", s.AuthMiddleware(http.HandlerFunc(s.GetProfile)))
	mux.Handle("PUT /api/UserProfile", s.AuthMiddleware(http.HandlerFunc(s.UpdateProfile)))

	return s.record(mux)
}

// record keeps the Authorization header of every request.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		s.mu.Unlock()
		s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("Fake API request")
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware rejects requests without a live access token.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		userID, err := s.verifyAccessToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(r *http.Request) string {
	id, _ := r.Context().Value(UserContextKey).(string)
	return id
}

// AddUser creates an account directly, bypassing the HTTP API.
func (s *Server) AddUser(username, email, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := s.emails[key]; exists {
		return models.User{}, errEmailTaken
	}
	acc := &account{
		user: models.User{
			ID:       uuid.NewString(),
			Username: username,
			Email:    email,
			Currency: models.DefaultCurrency,
		},
		passwordHash: hash,
		expenses:     make(map[string]*models.Expense),
		categories:   make(map[string]*models.Category),
	}
	s.seedCategories(acc)
	s.accounts[acc.user.ID] = acc
	s.emails[key] = acc.user.ID
	return acc.user, nil
}

var errEmailTaken = errors.New("email is already registered")

// issue creates a token pair for userID. Callers hold s.mu.
func (s *Server) issue(userID string) (models.AuthResponse, error) {
	now := s.now()
	jti := uuid.NewString()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}).SignedString(s.secret)
	if err != nil {
		return models.AuthResponse{}, err
	}
	refresh := uuid.NewString()
	s.accessTokens[jti] = userID
	s.refreshTokens[refresh] = userID

	acc := s.accounts[userID]
	return models.AuthResponse{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		UserID:       userID,
		Username:     acc.user.Username,
		Email:        acc.user.Email,
	}, nil
}

func (s *Server) verifyAccessToken(raw string) (string, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.accessTokens[claims.ID]
	if !ok || userID != claims.Subject {
		return "", errors.New("token revoked")
	}
	return userID, nil
}

// ExpireAccessTokens revokes every issued access token. Refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens = make(map[string]string)
}

// FailRefresh makes refresh-token calls fail with 401 while set.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// RefreshCalls returns how many refresh-token calls were received.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// AuthHeaders returns the Authorization header of every request received, in order.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

// ResetRecording forgets recorded headers and refresh calls.
func (s *Server) ResetRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authHeaders = nil
	s.refreshCalls = 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"title":   http.StatusText(status),
		"status":  status,
		"message": message,
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}
