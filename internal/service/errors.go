package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for
// with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with context via fmt.Errorf and %w
// 3. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrGroupNotFound indicates the requested group id decodes to a key
	// that matches none of the caller's tasks, or to a different module
	// than the one addressed by the request path.
	// API layer should map this to HTTP 404 Not Found.
	ErrGroupNotFound = errors.New("task group not found")

	// ErrNoCredentials indicates the user has not configured provider
	// credentials, which every provider-facing operation requires.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrNoCredentials = errors.New("no provider credentials configured")
)
