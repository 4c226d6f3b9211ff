package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/token"
)

// Refresher exchanges an expired token pair for a fresh one.
// The hub transport provides the concrete implementation.
type Refresher interface {
	Refresh(ctx context.Context, tok *token.Token) (*token.Token, error)
}

// Session is an authenticated handle on the hub.
//
// It wraps the (possibly refreshed) token together with the means to
// refresh it again. A session is created by the auth flow, owned by the
// Manager's caller, and handed to the connection layer to dial — it is
// never persisted itself; only its token is.
type Session struct {
	mu        sync.Mutex
	tok       *token.Token
	refresher Refresher
	save      SaveFunc
}

// NewSession creates a session around an issued token.
//
// Parameters:
//   - tok: The issued (or loaded) token
//   - refresher: Used to renew the token when it expires
//   - save: Persists renewed tokens; may be nil
func NewSession(tok *token.Token, refresher Refresher, save SaveFunc) *Session {
	return &Session{
		tok:       tok,
		refresher: refresher,
		save:      save,
	}
}

// Token returns the session's current token.
func (s *Session) Token() *token.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok
}

// Expired reports whether the session's token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok.Expired(now)
}

// Refresh renews the session's token pair and persists the replacement.
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//
// Returns:
//   - error: If the hub rejects the refresh or persistence fails
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	current := s.tok
	s.mu.Unlock()

	renewed, err := s.refresher.Refresh(ctx, current)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}

	s.mu.Lock()
	s.tok = renewed
	s.mu.Unlock()

	if s.save != nil {
		if err := s.save(ctx, renewed); err != nil {
			return fmt.Errorf("persisting refreshed token: %w", err)
		}
	}

	return nil
}
