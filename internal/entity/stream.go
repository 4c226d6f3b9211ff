package entity

import (
	"sync"
	"time"
)

// DefaultDebounce is the update coalescing window used when none is configured.
const DefaultDebounce = 150 * time.Millisecond

// SnapshotFunc is invoked with each delivered (post-debounce) snapshot.
// The collection passed in is a private copy; callbacks may retain it.
type SnapshotFunc func(Collection)

// Stream converts the hub's raw entity push feed into debounced snapshots.
//
// Raw update batches arriving within one debounce window are coalesced:
// each batch replaces the pending one and re-arms the delivery timer, so
// only the most recent batch in a window is delivered. Each raw batch is a
// complete replacement collection, never a diff, which keeps the delivered
// snapshot internally consistent.
//
// Readiness is monotonic per stream: it starts false and flips to true on
// the first delivered snapshot, once. A host change creates a fresh Stream,
// which is what resets readiness.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Stream struct {
	mu          sync.Mutex
	window      time.Duration
	pending     Collection
	current     Collection
	timer       *time.Timer
	armGen      uint64 // incremented per re-arm; stale timer fires are ignored
	ready       bool
	lastUpdated time.Time
	closed      bool
	onFlush     []SnapshotFunc
}

// NewStream creates a stream with the given debounce window.
// A non-positive window delivers every batch immediately (no coalescing).
func NewStream(window time.Duration) *Stream {
	return &Stream{
		window:  window,
		current: Collection{},
	}
}

// OnFlush registers a callback invoked after each delivered snapshot.
// Callbacks run outside the stream's lock and receive a private copy.
func (s *Stream) OnFlush(fn SnapshotFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFlush = append(s.onFlush, fn)
}

// Apply ingests a raw update batch from the hub's push feed.
//
// The batch replaces any batch still pending in the current debounce
// window and re-arms the delivery timer. Returns ErrStreamClosed after
// Close; a closed stream never mutates state again.
func (s *Stream) Apply(batch Collection) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}

	s.pending = batch

	if s.window <= 0 {
		s.flushLocked()
		return nil // flushLocked unlocks
	}

	// Re-arm: only the latest timer generation is allowed to flush, so a
	// fire that lost the race against Stop cannot deliver a stale batch.
	s.armGen++
	gen := s.armGen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, func() {
		s.deliver(gen)
	})
	s.mu.Unlock()
	return nil
}

// deliver is the timer callback: it flushes the pending batch if this
// timer generation is still current and the stream is still open.
func (s *Stream) deliver(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.armGen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.flushLocked()
}

// flushLocked promotes the pending batch to the current snapshot and
// notifies callbacks. Called with the lock held; unlocks before invoking
// callbacks so they may call back into the stream.
func (s *Stream) flushLocked() {
	s.current = s.pending
	s.pending = nil
	s.ready = true
	s.lastUpdated = time.Now().UTC()

	callbacks := s.onFlush
	var snapshot Collection
	if len(callbacks) > 0 {
		snapshot = s.current.Clone()
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(snapshot)
	}
}

// Get returns the entity with the given identifier from the current
// snapshot, or ErrNotFound if it is absent.
func (s *Stream) Get(id string) (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.current[id]
	if !ok {
		return Entity{}, ErrNotFound
	}
	return e.Clone(), nil
}

// All returns a copy of the current full snapshot.
func (s *Stream) All() Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Ready reports whether at least one snapshot has been delivered.
func (s *Stream) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// LastUpdated returns the delivery time of the most recent snapshot,
// or the zero time if none has been delivered.
func (s *Stream) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

// Close tears the stream down. It is idempotent, and after it returns no
// late-arriving debounce fire can mutate state or invoke callbacks.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
