package panel

import "errors"

// Domain-specific errors for the panel session.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDisposed is returned when using a session after Dispose.
	ErrDisposed = errors.New("panel: session disposed")

	// ErrConnectFailed wraps any failure building a connection from an
	// authenticated session. It halts progress for the current host.
	ErrConnectFailed = errors.New("panel: connect failed")
)
