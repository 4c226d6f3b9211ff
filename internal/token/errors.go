package token

import "errors"

// Domain-specific errors for token storage.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidURL is returned when a URL has no scheme or host.
	ErrInvalidURL = errors.New("token: invalid url")

	// ErrStorage is returned when the underlying key-value store fails.
	ErrStorage = errors.New("token: storage failure")
)
