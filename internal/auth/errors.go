package auth

import "errors"

// Domain-specific errors for authentication.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrHostRequired is the distinguished signal from the auth flow that
	// it cannot proceed without an explicit hub host (no stored token to
	// recover one from). The Manager handles it by retrying once with the
	// host supplied; it is never surfaced to callers.
	ErrHostRequired = errors.New("auth: hub host required")

	// ErrAuthFailed wraps any authentication failure other than the
	// host-required signal. The caller must not proceed to connect.
	ErrAuthFailed = errors.New("auth: authentication failed")
)
