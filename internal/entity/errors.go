package entity

import "errors"

// Domain-specific errors for entity access.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound is returned when an entity identifier is absent from the
	// current snapshot.
	ErrNotFound = errors.New("entity: not found")

	// ErrStreamClosed is returned when applying updates to a closed stream.
	ErrStreamClosed = errors.New("entity: stream closed")
)
