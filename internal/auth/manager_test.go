package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/token"
)

// fakeFlow scripts the auth flow's behaviour per Obtain call.
type fakeFlow struct {
	mu      sync.Mutex
	calls   []FlowOptions
	obtain  func(ctx context.Context, opts FlowOptions) (*Session, error)
	started chan struct{} // closed-ish: receives one value per Obtain entry
	release chan struct{} // Obtain blocks on this when non-nil
}

func (f *fakeFlow) Obtain(ctx context.Context, opts FlowOptions) (*Session, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.obtain(ctx, opts)
}

func (f *fakeFlow) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeRefresher scripts token refresh.
type fakeRefresher struct {
	mu     sync.Mutex
	calls  int
	result *token.Token
	err    error
}

func (r *fakeRefresher) Refresh(_ context.Context, _ *token.Token) (*token.Token, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.result, r.err
}

func (r *fakeRefresher) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func validToken(host string) *token.Token {
	return &token.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		HubURL:       host,
	}
}

func newTestStore() *token.Store {
	return token.NewStore(&memKV{data: make(map[string][]byte)})
}

// memKV is a minimal in-memory token.KV.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestManager_AuthenticateSuccess(t *testing.T) {
	flow := &fakeFlow{
		obtain: func(_ context.Context, _ FlowOptions) (*Session, error) {
			return NewSession(validToken("https://hub.local"), nil, nil), nil
		},
	}
	m := NewManager(flow, newTestStore())

	sess, err := m.Authenticate(context.Background(), "https://hub.local")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if sess == nil {
		t.Fatal("Authenticate() returned nil session")
	}
	if flow.callCount() != 1 {
		t.Errorf("flow called %d times, want 1", flow.callCount())
	}
}

func TestManager_HostRequiredRetry(t *testing.T) {
	flow := &fakeFlow{}
	flow.obtain = func(_ context.Context, opts FlowOptions) (*Session, error) {
		// First attempt carries no host and cannot proceed; the retry
		// must supply it explicitly.
		if opts.Host == "" {
			return nil, ErrHostRequired
		}
		return NewSession(validToken(opts.Host), nil, nil), nil
	}
	m := NewManager(flow, newTestStore())

	sess, err := m.Authenticate(context.Background(), "https://hub.local")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if sess == nil {
		t.Fatal("Authenticate() returned nil session")
	}
	if flow.callCount() != 2 {
		t.Fatalf("flow called %d times, want 2 (initial + host retry)", flow.callCount())
	}
	if flow.calls[0].Host != "" {
		t.Errorf("first attempt Host = %q, want empty", flow.calls[0].Host)
	}
	if flow.calls[1].Host != "https://hub.local" {
		t.Errorf("retry Host = %q, want https://hub.local", flow.calls[1].Host)
	}
}

func TestManager_HostRequiredRetriesOnlyOnce(t *testing.T) {
	flow := &fakeFlow{}
	flow.obtain = func(_ context.Context, _ FlowOptions) (*Session, error) {
		return nil, ErrHostRequired
	}
	m := NewManager(flow, newTestStore())

	_, err := m.Authenticate(context.Background(), "https://hub.local")
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Authenticate() error = %v, want ErrAuthFailed", err)
	}
	if flow.callCount() != 2 {
		t.Errorf("flow called %d times, want exactly 2", flow.callCount())
	}
}

func TestManager_NoRetryOnOtherFailures(t *testing.T) {
	cause := errors.New("invalid credentials")
	flow := &fakeFlow{}
	flow.obtain = func(_ context.Context, _ FlowOptions) (*Session, error) {
		return nil, cause
	}
	m := NewManager(flow, newTestStore())

	_, err := m.Authenticate(context.Background(), "https://hub.local")
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Authenticate() error = %v, want ErrAuthFailed wrap", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Authenticate() error = %v, want wrapped cause", err)
	}
	if flow.callCount() != 1 {
		t.Errorf("flow called %d times, want 1 (no retry)", flow.callCount())
	}
}

func TestManager_RefreshesExpiredToken(t *testing.T) {
	refresher := &fakeRefresher{result: validToken("https://hub.local")}

	expired := validToken("https://hub.local")
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	flow := &fakeFlow{}
	flow.obtain = func(_ context.Context, _ FlowOptions) (*Session, error) {
		return NewSession(expired, refresher, nil), nil
	}
	m := NewManager(flow, newTestStore())

	sess, err := m.Authenticate(context.Background(), "https://hub.local")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if refresher.callCount() != 1 {
		t.Errorf("refresher called %d times, want 1", refresher.callCount())
	}
	if sess.Expired(time.Now()) {
		t.Error("session still expired after refresh")
	}
}

func TestManager_RefreshFailureFailsAuthentication(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("refresh rejected")}

	expired := validToken("https://hub.local")
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	flow := &fakeFlow{}
	flow.obtain = func(_ context.Context, _ FlowOptions) (*Session, error) {
		return NewSession(expired, refresher, nil), nil
	}
	m := NewManager(flow, newTestStore())

	_, err := m.Authenticate(context.Background(), "https://hub.local")
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Authenticate() error = %v, want ErrAuthFailed", err)
	}
}

func TestManager_SingleFlightSharesOutcome(t *testing.T) {
	flow := &fakeFlow{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	flow.obtain = func(_ context.Context, _ FlowOptions) (*Session, error) {
		return NewSession(validToken("https://hub.local"), nil, nil), nil
	}
	m := NewManager(flow, newTestStore())

	type result struct {
		sess *Session
		err  error
	}
	results := make(chan result, 2)

	go func() {
		sess, err := m.Authenticate(context.Background(), "https://hub.local")
		results <- result{sess, err}
	}()

	// Wait for the first attempt to enter the flow, then start a second
	// caller for the same host. It must join, not start its own flow.
	<-flow.started
	go func() {
		sess, err := m.Authenticate(context.Background(), "https://hub.local")
		results <- result{sess, err}
	}()

	// Give the joiner a moment to register, then let the flow finish.
	time.Sleep(20 * time.Millisecond)
	close(flow.release)

	first := <-results
	second := <-results
	if first.err != nil || second.err != nil {
		t.Fatalf("Authenticate() errors = %v, %v", first.err, second.err)
	}
	if first.sess != second.sess {
		t.Error("concurrent callers got different sessions, want shared outcome")
	}
	if flow.callCount() != 1 {
		t.Errorf("flow called %d times, want 1 (single flight)", flow.callCount())
	}
}

func TestManager_DifferentHostsNotSingleFlighted(t *testing.T) {
	flow := &fakeFlow{}
	flow.obtain = func(_ context.Context, opts FlowOptions) (*Session, error) {
		return NewSession(validToken(opts.Host), nil, nil), nil
	}
	m := NewManager(flow, newTestStore())

	if _, err := m.Authenticate(context.Background(), "https://hub-a.local"); err != nil {
		t.Fatalf("Authenticate(hub-a) error = %v", err)
	}
	if _, err := m.Authenticate(context.Background(), "https://hub-b.local"); err != nil {
		t.Fatalf("Authenticate(hub-b) error = %v", err)
	}
	if flow.callCount() != 2 {
		t.Errorf("flow called %d times, want 2", flow.callCount())
	}
}

func TestSession_RefreshPersists(t *testing.T) {
	refresher := &fakeRefresher{result: validToken("https://hub.local")}

	var saved *token.Token
	save := func(_ context.Context, tok *token.Token) error {
		saved = tok
		return nil
	}

	sess := NewSession(validToken("https://hub.local"), refresher, save)
	if err := sess.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if saved == nil {
		t.Fatal("refreshed token was not persisted")
	}
	if sess.Token() != refresher.result {
		t.Error("session token was not replaced by the refreshed token")
	}
}
