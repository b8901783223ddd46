package providers

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error is returned when a provider request fails for a reason other than
// authentication or rate limiting: unexpected status codes, timeouts,
// transport failures, unusable response bodies.
type Error struct {
	Provider string
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Provider '%s' error: %s", e.Provider, e.Message)
}

// AuthError is returned when a provider rejects the API key, or when no key
// was supplied at all.
type AuthError struct {
	Provider string
}

func (e *AuthError) Error() string {
	return "Invalid or missing API key"
}

// RateLimitError is returned when a provider answers with HTTP 429.
type RateLimitError struct {
	Provider string
}

func (e *RateLimitError) Error() string {
	return "Rate limit exceeded"
}

// classifyStatus maps a non-200 vendor response to the error taxonomy.
func classifyStatus(provider string, status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return &AuthError{Provider: provider}
	case http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider}
	default:
		return &Error{Provider: provider, Message: fmt.Sprintf("HTTP %d: %s", status, body)}
	}
}

// requestError wraps a transport-level failure, distinguishing timeouts for
// readability of the resulting message.
func requestError(provider string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Provider: provider, Message: fmt.Sprintf("Request timed out: %v", err)}
	}
	return &Error{Provider: provider, Message: fmt.Sprintf("Unexpected error: %v", err)}
}
