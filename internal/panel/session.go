package panel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/auth"
	"github.com/nerrad567/gray-logic-panel/internal/entity"
	"github.com/nerrad567/gray-logic-panel/internal/hub"
	"github.com/nerrad567/gray-logic-panel/internal/service"
)

// State is the session's connection lifecycle state.
type State string

// Session states. The only transitions are Idle → Authenticating →
// Connected, plus the reset edge back to Idle on any host change.
const (
	StateIdle           State = "idle"
	StateAuthenticating State = "authenticating"
	StateConnected      State = "connected"
)

// Conn is the live hub connection as the session consumes it.
// *hub.Conn is the production implementation; tests substitute fakes.
type Conn interface {
	SubscribeEntities(ctx context.Context, handler func(entity.Collection)) (func(), error)
	CallService(ctx context.Context, domain, service string, data, target map[string]any) error
	FetchStates(ctx context.Context) ([]entity.Entity, error)
	FetchServices(ctx context.Context) (map[string]any, error)
	FetchConfig(ctx context.Context) (map[string]any, error)
	FetchUser(ctx context.Context) (*hub.User, error)
	Close() error
}

// DialFunc opens a connection from an authenticated session.
type DialFunc func(ctx context.Context, sess *auth.Session) (Conn, error)

// Authenticator obtains authenticated sessions. *auth.Manager is the
// production implementation.
type Authenticator interface {
	Authenticate(ctx context.Context, hostURL string) (*auth.Session, error)
}

// Logger is the logging interface used by the session.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Session.
type Options struct {
	// Auth obtains authenticated hub sessions. Required.
	Auth Authenticator

	// Dial opens a hub connection from an authenticated session. Required.
	Dial DialFunc

	// Debounce is the entity update coalescing window.
	// Zero or negative selects entity.DefaultDebounce.
	Debounce time.Duration

	// Logger for session events; nil for none.
	Logger Logger
}

// Session owns the panel's live relationship with one hub at a time.
//
// It drives the Idle → Authenticating → Connected state machine, holds at
// most one connection and one entity subscription, and exposes the
// consumer surface: debounced entity snapshots with a monotonic readiness
// flag, service invocation, and on-demand fetches.
//
// A host change (SetHost) always tears the previous connection, its
// subscription, the entity collection, readiness, and the stored auth
// session down synchronously before the new host's connect attempt starts.
// Completions belonging to a superseded host are discarded via an epoch
// counter bumped by every reset, so a slow authenticate or dial for an old
// host can never clobber the new one's state.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Session struct {
	authenticator Authenticator
	dial          DialFunc
	window        time.Duration
	logger        Logger

	mu          sync.Mutex
	state       State
	hostURL     string
	sess        *auth.Session
	conn        Conn
	unsubscribe func()
	stream      *entity.Stream
	lastErr     error
	epoch       uint64
	disposed    bool
	onSnapshot  []entity.SnapshotFunc
}

// New creates a session with the given collaborators.
//
// Returns:
//   - *Session: Idle session; call SetHost to connect
//   - error: If a required collaborator is missing
func New(opts Options) (*Session, error) {
	if opts.Auth == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if opts.Dial == nil {
		return nil, fmt.Errorf("dial function is required")
	}

	window := opts.Debounce
	if window <= 0 {
		window = entity.DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Session{
		authenticator: opts.Auth,
		dial:          opts.Dial,
		window:        window,
		logger:        logger,
		state:         StateIdle,
		stream:        entity.NewStream(window),
	}, nil
}

// OnSnapshot registers a callback invoked with every delivered
// (post-debounce) snapshot, across host changes. Used by mirror sinks.
// Must be called before SetHost.
func (s *Session) OnSnapshot(fn entity.SnapshotFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSnapshot = append(s.onSnapshot, fn)
	s.stream.OnFlush(fn)
}

// SetHost points the session at a hub, replacing any current connection.
//
// The reset — discarding the connection, cancelling the subscription,
// clearing the entity collection and readiness, dropping the stored auth
// session — completes synchronously before the connect attempt for the
// new host begins. The call then blocks through authenticate, dial, and
// subscribe.
//
// Parameters:
//   - ctx: Context for the connect attempt
//   - hostURL: The hub base URL
//
// Returns:
//   - error: The failure that left the session in its error state, if any.
//     A stale completion (another SetHost superseded this one) returns nil.
func (s *Session) SetHost(ctx context.Context, hostURL string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.resetLocked()
	s.hostURL = hostURL
	s.state = StateAuthenticating
	epoch := s.epoch
	s.mu.Unlock()

	s.logger.Info("connecting to hub", "host", hostURL)
	return s.connect(ctx, hostURL, epoch)
}

// connect runs the authenticate → dial → subscribe sequence for one epoch.
func (s *Session) connect(ctx context.Context, hostURL string, epoch uint64) error {
	sess, err := s.authenticator.Authenticate(ctx, hostURL)
	if err != nil {
		s.fail(epoch, err)
		return err
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return nil // superseded by a newer host
	}
	s.sess = sess
	s.mu.Unlock()

	conn, err := s.dial(ctx, sess)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConnectFailed, err)
		s.fail(epoch, err)
		return err
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		conn.Close() //nolint:errcheck // stale connection, best effort
		return nil
	}
	s.conn = conn
	s.state = StateConnected
	stream := s.stream
	s.mu.Unlock()

	// Exactly one subscription per connection; raw batches feed the
	// debounced stream captured for this epoch.
	unsubscribe, err := conn.SubscribeEntities(ctx, func(batch entity.Collection) {
		if applyErr := stream.Apply(batch); applyErr != nil {
			s.logger.Debug("dropping update for closed stream")
		}
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConnectFailed, err)
		s.fail(epoch, err)
		conn.Close() //nolint:errcheck // tearing down failed connection
		return err
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		unsubscribe()
		conn.Close() //nolint:errcheck // stale connection, best effort
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	s.logger.Info("hub session established", "host", hostURL)
	return nil
}

// fail records an auth/connect failure for the given epoch. The error
// state suppresses consumption until the next host change.
func (s *Session) fail(epoch uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return // a newer host superseded this attempt
	}
	s.lastErr = err
	s.state = StateIdle
	s.logger.Error("hub session failed", "host", s.hostURL, "error", err)
}

// resetLocked tears down all per-host state. Caller holds s.mu.
//
// Closing the connection first makes the unsubscribe callback a pure
// local cleanup (no network write), so the whole reset is synchronous.
func (s *Session) resetLocked() {
	s.epoch++

	if s.conn != nil {
		s.conn.Close() //nolint:errcheck // discarding superseded connection
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.conn = nil
	s.sess = nil
	s.lastErr = nil
	s.state = StateIdle

	// Replace the stream: readiness and the collection reset together,
	// and any late debounce fire hits the closed, orphaned stream.
	s.stream.Close()
	s.stream = entity.NewStream(s.window)
	for _, fn := range s.onSnapshot {
		s.stream.OnFlush(fn)
	}
}

// Dispose permanently tears the session down. Idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.resetLocked()
	s.disposed = true
	s.logger.Info("session disposed")
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Host returns the current hub URL ("" before the first SetHost).
func (s *Session) Host() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostURL
}

// Err returns the auth/connection error that halted the current host's
// session, or nil. It clears on the next host change.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Ready reports whether the first debounced snapshot for the current host
// has been delivered. It is monotonic per connection lifetime and resets
// to false on every host change.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr == nil && s.stream.Ready()
}

// LastUpdated returns the delivery time of the most recent snapshot,
// or the zero time if none has been delivered for the current host.
func (s *Session) LastUpdated() time.Time {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	return stream.LastUpdated()
}

// GetEntity returns the entity with the given identifier from the current
// snapshot. After a host change clears the collection, this fails with
// entity.ErrNotFound until the new host's first snapshot arrives.
func (s *Session) GetEntity(id string) (entity.Entity, error) {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	return stream.Get(id)
}

// AllEntities returns a copy of the current full snapshot.
func (s *Session) AllEntities() entity.Collection {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	return stream.All()
}

// CallService normalises and dispatches a remote service call.
//
// Validation failures (bad domain/service/target) are returned
// synchronously regardless of connection state — they are caller errors.
// If the session is not connected and ready, the call is a no-op that
// reports (false, nil): "not yet connected" is an expected transient
// condition, not an error.
//
// Returns:
//   - bool: true if the call was dispatched and acknowledged
//   - error: validation or dispatch failure
func (s *Session) CallService(ctx context.Context, call service.Call) (bool, error) {
	domain, svc, target, err := call.Normalize()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	conn := s.conn
	ready := s.lastErr == nil && s.stream.Ready()
	s.mu.Unlock()

	if conn == nil || !ready {
		return false, nil
	}

	if err := conn.CallService(ctx, domain, svc, call.Data, target); err != nil {
		return false, fmt.Errorf("dispatching %s.%s: %w", domain, svc, err)
	}
	return true, nil
}

// States fetches the hub's current entity states over the connection.
// Returns hub.ErrNoConnection when no connection exists.
func (s *Session) States(ctx context.Context) ([]entity.Entity, error) {
	conn := s.currentConn()
	if conn == nil {
		return nil, hub.ErrNoConnection
	}
	return conn.FetchStates(ctx)
}

// Services fetches the hub's service registry.
// Returns hub.ErrNoConnection when no connection exists.
func (s *Session) Services(ctx context.Context) (map[string]any, error) {
	conn := s.currentConn()
	if conn == nil {
		return nil, hub.ErrNoConnection
	}
	return conn.FetchServices(ctx)
}

// HubConfig fetches the hub's configuration summary.
// Returns hub.ErrNoConnection when no connection exists.
func (s *Session) HubConfig(ctx context.Context) (map[string]any, error) {
	conn := s.currentConn()
	if conn == nil {
		return nil, hub.ErrNoConnection
	}
	return conn.FetchConfig(ctx)
}

// User fetches the authenticated principal.
// Returns hub.ErrNoConnection when no connection exists.
func (s *Session) User(ctx context.Context) (*hub.User, error) {
	conn := s.currentConn()
	if conn == nil {
		return nil, hub.ErrNoConnection
	}
	return conn.FetchUser(ctx)
}

// currentConn returns the live connection, or nil.
func (s *Session) currentConn() Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}
