package token

import (
	"context"
	"encoding/json"
	"fmt"
)

// slotKey is the single well-known storage slot for the persisted token.
// One token is stored at a time; saving overwrites any prior token
// regardless of which hub issued it.
const slotKey = "hub_token"

// KV is the minimal key-value persistence interface the Store requires.
// Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the value for key, with found=false if the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores the value under key, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error
}

// Logger is the logging interface used by the Store.
type Logger interface {
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Store persists and validates hub auth tokens.
//
// Load applies the origin check: a stored token is only returned when its
// recorded hub URL shares an origin with the requested host. Missing,
// malformed, or origin-mismatched tokens all read as absent — corruption is
// logged, never surfaced to the caller, because the auth flow can always
// fall back to a fresh login.
type Store struct {
	kv     KV
	logger Logger
}

// NewStore creates a token store over the given key-value backend.
func NewStore(kv KV) *Store {
	return &Store{
		kv:     kv,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used to report soft failures (parse errors).
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Load returns the stored token if one exists and is usable for hostURL.
//
// A token reads as absent (nil, nil) when:
//   - no token has been stored
//   - the stored blob cannot be parsed (reported via the logger)
//   - the token's recorded hub URL has a different origin than hostURL
//
// Only storage-layer failures are returned as errors.
func (s *Store) Load(ctx context.Context, hostURL string) (*Token, error) {
	data, found, err := s.kv.Get(ctx, slotKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if !found {
		return nil, nil
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		s.logger.Warn("discarding malformed stored token", "error", err)
		return nil, nil
	}

	if !SameOrigin(hostURL, tok.HubURL) {
		return nil, nil
	}

	return &tok, nil
}

// Save persists the token into the single storage slot, overwriting any
// previously stored token.
func (s *Store) Save(ctx context.Context, tok *Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := s.kv.Set(ctx, slotKey, data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}
