package apitest

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"expense-tracker-client/internal/models"
)

// Login handles POST /api/Auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[s.emails[strings.ToLower(strings.TrimSpace(req.Email))]]
	if acc == nil || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	resp, err := s.issue(acc.user.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue tokens")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Register handles POST /api/Auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.AddUser(strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password)
	if errors.Is(err, errEmailTaken) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	resp, err := s.issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefreshToken handles POST /api/Auth/refresh-token. Refresh tokens are single use.
func (s *Server) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++

	userID, ok := s.refreshTokens[req.RefreshToken]
	if s.failRefresh || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refreshTokens, req.RefreshToken)

	resp, err := s.issue(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ChangePassword handles POST /api/Auth/change-password.
func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	acc := s.accounts[userIDFromContext(r)]
	if acc == nil || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.CurrentPassword)) != nil {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	s.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.mu.Lock()
	acc.passwordHash = hash
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /api/UserProfile.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFromContext(r)]
	if acc == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}

// UpdateProfile handles PUT /api/UserProfile.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFromContext(r)]
	if acc == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	newKey := strings.ToLower(req.Email)
	oldKey := strings.ToLower(acc.user.Email)
	if newKey != oldKey {
		if _, taken := s.emails[newKey]; taken {
			writeError(w, http.StatusConflict, errEmailTaken.Error())
			return
		}
		delete(s.emails, oldKey)
		s.emails[newKey] = acc.user.ID
	}

	acc.user.Email = req.Email
	acc.user.FirstName = req.FirstName
	acc.user.LastName = req.LastName
	if req.Currency != "" {
		acc.user.Currency = strings.ToUpper(req.Currency)
	}
	if req.TimeZone != "" {
		acc.user.TimeZone = req.TimeZone
	}
	writeJSON(w, http.StatusOK, acc.user)
}
