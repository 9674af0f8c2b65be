package auth

import "fmt"

// AuthenticationError means the browser redirect did not carry a usable
// authorization code (consent denied, state mismatch, or nothing recognizable).
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authorization failed: " + e.Reason
}

// TokenExchangeError is returned when the token endpoint rejects the code.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.StatusCode, e.Body)
}
