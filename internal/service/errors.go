package service

import "errors"

// Validation errors for service calls. These are caller programming errors,
// returned synchronously before any dispatch is attempted.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidDomain is returned when the domain is empty or not a valid identifier.
	ErrInvalidDomain = errors.New("service: invalid domain identifier")

	// ErrInvalidService is returned when the service is empty or not a valid identifier.
	ErrInvalidService = errors.New("service: invalid service identifier")

	// ErrInvalidTarget is returned when the target is not a string, string
	// slice, or structured target map.
	ErrInvalidTarget = errors.New("service: invalid target")
)
