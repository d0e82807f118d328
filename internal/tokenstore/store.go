// Package tokenstore persists the session triple: access token, refresh token and user.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"expense-tracker-client/internal/models"
	"expense-tracker-client/internal/storage"
)

// Storage keys.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// ErrMalformedUser is returned when the persisted user cannot be decoded.
var ErrMalformedUser = errors.New("malformed persisted user")

// KV is the subset of storage.DB the store needs.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	SetMany(values map[string]string) error
	Delete(keys ...string) error
}

// Store reads and writes the session keys.
type Store struct {
	kv KV
}

// New creates a Store over kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) get(key string) (string, error) {
	v, err := s.kv.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// Token returns the access token, or "" when none is stored.
func (s *Store) Token() (string, error) {
	return s.get(KeyToken)
}

// RefreshToken returns the refresh token, or "" when none is stored.
func (s *Store) RefreshToken() (string, error) {
	return s.get(KeyRefreshToken)
}

// User returns the persisted user, or nil when none is stored.
func (s *Store) User() (*models.User, error) {
	raw, err := s.get(KeyUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedUser, err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedUser, err)
	}
	return &u, nil
}

// Save writes all three keys in one transaction.
func (s *Store) Save(token, refreshToken string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.kv.SetMany(map[string]string{
		KeyToken:        token,
		KeyRefreshToken: refreshToken,
		KeyUser:         string(data),
	})
}

// SaveUser replaces the persisted user, leaving the tokens alone.
func (s *Store) SaveUser(user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.kv.Set(KeyUser, string(data))
}

// Clear removes all three keys.
func (s *Store) Clear() error {
	return s.kv.Delete(KeyToken, KeyRefreshToken, KeyUser)
}
