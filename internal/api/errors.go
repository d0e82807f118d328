package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthenticationRequired is returned when a protected request is attempted without a stored token.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrSessionExpired is returned when a 401 could not be recovered by refreshing the session.
	ErrSessionExpired = errors.New("session expired")
)

// APIError represents a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: %s %s returned %d %s", e.Method, e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("API error: %s (status: %d, endpoint: %s %s)", e.Message, e.StatusCode, e.Method, e.Endpoint)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// errorMessage pulls a human readable message out of an error body.
// JSON bodies are searched for the usual fields; anything else is returned trimmed.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		if len(text) > 512 {
			text = text[:512]
		}
		return text
	}
	for _, key := range []string{"error", "message", "title", "detail"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	// ASP.NET style validation problems: {"errors": {"Field": ["msg"]}}
	if errs, ok := fields["errors"].(map[string]any); ok {
		var parts []string
		for field, v := range errs {
			if msgs, ok := v.([]any); ok {
				for _, m := range msgs {
					parts = append(parts, fmt.Sprintf("%s: %v", field, m))
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return text
}
