package hub

import "errors"

// Domain-specific errors for the hub transport.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDialFailed is returned when the WebSocket connection cannot be
	// established or the auth handshake fails.
	ErrDialFailed = errors.New("hub: dial failed")

	// ErrAuthRejected is returned when the hub rejects the access token
	// during the WebSocket handshake.
	ErrAuthRejected = errors.New("hub: auth rejected")

	// ErrConnectionClosed is returned by operations on a closed connection.
	ErrConnectionClosed = errors.New("hub: connection closed")

	// ErrNoConnection is returned by fetches when no connection exists.
	ErrNoConnection = errors.New("hub: no connection")

	// ErrRequestFailed wraps an error result reported by the hub.
	ErrRequestFailed = errors.New("hub: request failed")

	// ErrLoginFailed is returned when the hub rejects the panel credentials.
	ErrLoginFailed = errors.New("hub: login failed")

	// ErrRefreshFailed is returned when the hub rejects a token refresh.
	ErrRefreshFailed = errors.New("hub: token refresh failed")
)
