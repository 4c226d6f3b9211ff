package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/token"
)

// LoadFunc loads a stored token, returning (nil, nil) when none is usable.
type LoadFunc func(ctx context.Context) (*token.Token, error)

// SaveFunc persists an issued token.
type SaveFunc func(ctx context.Context, tok *token.Token) error

// FlowOptions parameterises a single auth flow attempt.
type FlowOptions struct {
	// Host is the explicit hub URL. Left empty on the first attempt; the
	// flow signals ErrHostRequired when it cannot proceed without one
	// (no stored token to recover the hub from), and the Manager retries
	// with Host populated.
	Host string

	// LoadToken supplies the stored token, already origin-validated.
	LoadToken LoadFunc

	// SaveToken persists tokens on issuance and refresh.
	SaveToken SaveFunc
}

// Flow performs the hub's auth exchange. The hub transport provides the
// concrete implementation; tests substitute fakes.
type Flow interface {
	Obtain(ctx context.Context, opts FlowOptions) (*Session, error)
}

// Logger is the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Manager orchestrates obtaining an authenticated session for a hub.
//
// The algorithm per attempt:
//  1. Run the auth flow with token load/save strategies backed by the Store.
//  2. On the distinguished host-required signal, retry once with the host
//     supplied explicitly. No other failure is retried.
//  3. If the resulting session's token is already expired, refresh before
//     returning.
//
// Concurrent Authenticate calls for the same host are single-flighted:
// later callers wait for and share the in-flight attempt's outcome rather
// than racing a second flow against the hub.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Manager struct {
	flow   Flow
	store  *token.Store
	logger Logger

	mu       sync.Mutex
	inflight map[string]*attempt
}

// attempt is a single-flight slot for one host.
type attempt struct {
	done chan struct{}
	sess *Session
	err  error
}

// NewManager creates an auth manager over the given flow and token store.
func NewManager(flow Flow, store *token.Store) *Manager {
	return &Manager{
		flow:     flow,
		store:    store,
		logger:   noopLogger{},
		inflight: make(map[string]*attempt),
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Authenticate obtains an authenticated session for the given hub URL.
//
// It blocks until the flow completes, the context is cancelled, or an
// in-flight attempt for the same host finishes (whose outcome is shared).
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//   - hostURL: The hub base URL to authenticate against
//
// Returns:
//   - *Session: Authenticated session ready for dialling
//   - error: ErrAuthFailed-wrapped cause; the caller must not connect
func (m *Manager) Authenticate(ctx context.Context, hostURL string) (*Session, error) {
	m.mu.Lock()
	if a, ok := m.inflight[hostURL]; ok {
		m.mu.Unlock()
		m.logger.Debug("joining in-flight authentication", "host", hostURL)
		select {
		case <-a.done:
			return a.sess, a.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	a := &attempt{done: make(chan struct{})}
	m.inflight[hostURL] = a
	m.mu.Unlock()

	a.sess, a.err = m.authenticate(ctx, hostURL)

	m.mu.Lock()
	delete(m.inflight, hostURL)
	m.mu.Unlock()
	close(a.done)

	return a.sess, a.err
}

// authenticate runs one full authentication sequence for hostURL.
func (m *Manager) authenticate(ctx context.Context, hostURL string) (*Session, error) {
	opts := FlowOptions{
		LoadToken: func(ctx context.Context) (*token.Token, error) {
			return m.store.Load(ctx, hostURL)
		},
		SaveToken: func(ctx context.Context, tok *token.Token) error {
			return m.store.Save(ctx, tok)
		},
	}

	sess, err := m.flow.Obtain(ctx, opts)
	if errors.Is(err, ErrHostRequired) {
		// The only automatic retry: same attempt, host supplied explicitly.
		m.logger.Debug("auth flow requires explicit host, retrying", "host", hostURL)
		opts.Host = hostURL
		sess, err = m.flow.Obtain(ctx, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	if sess.Expired(time.Now()) {
		m.logger.Debug("session token expired, refreshing", "host", hostURL)
		if err := sess.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
		}
	}

	return sess, nil
}
