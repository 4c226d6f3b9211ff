// Package logging provides structured logging for Gray Logic Panel.
//
// It wraps log/slog with configuration-driven format and level selection,
// plus default service/version attributes attached to every record.
package logging
