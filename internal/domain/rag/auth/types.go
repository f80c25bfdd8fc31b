// Package auth implements registration and API-key authentication for the
// rag service. There is no login/session flow: a caller registers once,
// receives an API key in the response, and authenticates every subsequent
// request by presenting that key (§6 of the external interface contract).
package auth

import "github.com/google/uuid"

// Config holds tunables for the auth workflow.
type Config struct {
	// APIKeyBytes is the number of random bytes used to generate an API
	// key before hex-encoding. 32 bytes yields 64 hex characters, which
	// follow the "rag_" prefix for a 68-character key.
	APIKeyBytes int
}

// DefaultConfig returns the zero-value-safe defaults.
func DefaultConfig() Config {
	return Config{APIKeyBytes: 32}
}

// RegisterRequest is the normalized input to Register.
type RegisterRequest struct {
	Email    string
	Password string
}

// RegisterResult is returned from a successful registration. APIKey is the
// plaintext key; it is never stored and never retrievable again.
type RegisterResult struct {
	UserID uuid.UUID
	Email  string
	APIKey string
}
