package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-panel/internal/entity"
)

// Connection constants.
const (
	// defaultHandshakeTimeout bounds the dial plus auth handshake.
	defaultHandshakeTimeout = 10 * time.Second

	// defaultWriteTimeout bounds a single frame write.
	defaultWriteTimeout = 5 * time.Second

	// wsPath is the hub's WebSocket endpoint.
	wsPath = "/api/v1/ws"
)

// Logger is the logging interface used by the connection.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Conn is a live WebSocket channel to the hub.
//
// It correlates request/response pairs by message ID, dispatches pushed
// entity events to the registered subscription handler, and shuts down
// cleanly when either side closes.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Conn struct {
	ws     *websocket.Conn
	logger Logger

	// writeMu serialises frame writes; gorilla/websocket permits only
	// one concurrent writer.
	writeMu sync.Mutex

	mu            sync.Mutex
	pending       map[string]chan Message
	entityHandler func(entity.Collection)
	closed        bool

	// done is closed when the read pump exits, failing all waiters.
	done chan struct{}
}

// Dial connects and authenticates a WebSocket session against the hub.
//
// The handshake follows the hub's WS API: the server opens with
// auth_required, the client answers with the access token, and the server
// confirms with auth_ok (or auth_invalid, surfaced as ErrAuthRejected).
//
// Parameters:
//   - ctx: Context for dial cancellation
//   - hostURL: The hub base URL (http/https; converted to ws/wss)
//   - accessToken: The session's current access token
//   - logger: Logger for connection events; nil for none
//
// Returns:
//   - *Conn: Established connection with its read pump running
//   - error: ErrDialFailed or ErrAuthRejected wrapped causes
func Dial(ctx context.Context, hostURL, accessToken string, logger Logger) (*Conn, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	endpoint, err := wsEndpoint(hostURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDialFailed, err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDialFailed, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck // handshake response body is drained by gorilla
	}

	c := &Conn{
		ws:      ws,
		logger:  logger,
		pending: make(map[string]chan Message),
		done:    make(chan struct{}),
	}

	if err := c.handshake(accessToken); err != nil {
		ws.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, err
	}

	go c.readPump()

	logger.Debug("hub connection established", "endpoint", endpoint)
	return c, nil
}

// handshake performs the auth_required/auth/auth_ok exchange.
// Runs before the read pump starts, so it reads frames directly.
func (c *Conn) handshake(accessToken string) error {
	deadline := time.Now().Add(defaultHandshakeTimeout)
	if err := c.ws.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %w", ErrDialFailed, err)
	}

	var challenge Message
	if err := c.ws.ReadJSON(&challenge); err != nil {
		return fmt.Errorf("%w: reading auth challenge: %w", ErrDialFailed, err)
	}
	if challenge.Type != TypeAuthRequired {
		return fmt.Errorf("%w: unexpected handshake message %q", ErrDialFailed, challenge.Type)
	}

	payload, err := json.Marshal(authPayload{AccessToken: accessToken})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDialFailed, err)
	}
	if err := c.write(Message{Type: TypeAuth, Payload: payload}); err != nil {
		return fmt.Errorf("%w: sending auth: %w", ErrDialFailed, err)
	}

	var verdict Message
	if err := c.ws.ReadJSON(&verdict); err != nil {
		return fmt.Errorf("%w: reading auth verdict: %w", ErrDialFailed, err)
	}
	switch verdict.Type {
	case TypeAuthOK:
	case TypeAuthInvalid:
		return ErrAuthRejected
	default:
		return fmt.Errorf("%w: unexpected handshake message %q", ErrDialFailed, verdict.Type)
	}

	// Handshake done; subsequent reads have no deadline (push feed).
	return c.ws.SetReadDeadline(time.Time{})
}

// readPump reads frames until the connection fails or closes, dispatching
// results to waiting requests and events to the subscription handler.
func (c *Conn) readPump() {
	defer c.teardown()

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Warn("hub connection read failed", "error", err)
			}
			return
		}

		switch msg.Type {
		case TypeResult:
			c.dispatchResult(msg)
		case TypeEvent:
			c.dispatchEvent(msg)
		default:
			c.logger.Debug("ignoring unexpected hub message", "type", msg.Type)
		}
	}
}

// dispatchResult hands a result message to the request waiting on its ID.
func (c *Conn) dispatchResult(msg Message) {
	c.mu.Lock()
	ch, ok := c.pending[msg.ID]
	if ok {
		delete(c.pending, msg.ID)
	}
	c.mu.Unlock()

	if ok {
		ch <- msg
	}
}

// dispatchEvent decodes an entity push and invokes the handler.
// Each push carries a complete replacement collection.
func (c *Conn) dispatchEvent(msg Message) {
	if msg.EventType != ChannelEntities {
		return
	}

	c.mu.Lock()
	handler := c.entityHandler
	c.mu.Unlock()
	if handler == nil {
		return
	}

	var batch entity.Collection
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		c.logger.Error("malformed entity event payload", "error", err)
		return
	}

	handler(batch)
}

// teardown marks the connection closed and releases the socket.
func (c *Conn) teardown() {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	c.entityHandler = nil
	c.mu.Unlock()

	if !alreadyClosed {
		close(c.done)
	}
	c.ws.Close() //nolint:errcheck // socket may already be gone
}

// write serialises a frame write with a bounded deadline.
func (c *Conn) write(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(msg)
}

// request sends a correlated command and waits for its result.
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//   - msgType: The command type (e.g., get_states)
//   - payload: Command payload; nil for none
//
// Returns:
//   - json.RawMessage: The result payload
//   - error: ErrConnectionClosed, ErrRequestFailed, or a context error
func (c *Conn) request(ctx context.Context, msgType string, payload any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	id := uuid.NewString()
	ch := make(chan Message, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	msg := Message{Type: msgType, ID: id}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.abandon(id)
			return nil, fmt.Errorf("encoding %s payload: %w", msgType, err)
		}
		msg.Payload = data
	}

	if err := c.write(msg); err != nil {
		c.abandon(id)
		return nil, fmt.Errorf("sending %s: %w", msgType, err)
	}

	select {
	case result := <-ch:
		if result.Error != nil {
			return nil, fmt.Errorf("%w: %s (%s)", ErrRequestFailed, result.Error.Message, result.Error.Code)
		}
		return result.Payload, nil
	case <-c.done:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		c.abandon(id)
		return nil, ctx.Err()
	}
}

// abandon drops a pending request slot.
func (c *Conn) abandon(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// SubscribeEntities registers for the hub's entity push feed.
//
// At most one entity subscription exists per connection; a second call
// replaces the handler. The returned unsubscribe function is idempotent
// and guarantees the handler is never invoked after it returns.
//
// Parameters:
//   - ctx: Context for the subscribe command
//   - handler: Invoked with each complete raw update batch
//
// Returns:
//   - func(): Idempotent unsubscribe
//   - error: If the subscribe command fails
func (c *Conn) SubscribeEntities(ctx context.Context, handler func(entity.Collection)) (func(), error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	c.entityHandler = handler
	c.mu.Unlock()

	_, err := c.request(ctx, TypeSubscribe, subscribePayload{Channels: []string{ChannelEntities}})
	if err != nil {
		c.mu.Lock()
		c.entityHandler = nil
		c.mu.Unlock()
		return nil, err
	}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.mu.Lock()
			c.entityHandler = nil
			stillOpen := !c.closed
			c.mu.Unlock()

			if stillOpen {
				// Best effort: the hub drops the subscription with the
				// connection anyway if this command never arrives.
				unsubCtx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
				defer cancel()
				if _, err := c.request(unsubCtx, TypeUnsubscribe, subscribePayload{Channels: []string{ChannelEntities}}); err != nil {
					c.logger.Debug("unsubscribe command failed", "error", err)
				}
			}
		})
	}

	return unsubscribe, nil
}

// Close shuts the connection down. It is idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.entityHandler = nil
	c.mu.Unlock()

	close(c.done)

	// Attempt a clean close frame before dropping the socket.
	deadline := time.Now().Add(defaultWriteTimeout)
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage, //nolint:errcheck // best effort
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()

	return c.ws.Close()
}

// wsEndpoint converts a hub base URL into its WebSocket endpoint.
func wsEndpoint(hostURL string) (string, error) {
	u, err := url.Parse(hostURL)
	if err != nil {
		return "", fmt.Errorf("parsing hub url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported hub url scheme %q", u.Scheme)
	}

	u.Path = wsPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
