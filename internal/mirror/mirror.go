package mirror

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/entity"
)

// Sink receives delivered entity snapshots.
//
// Implementations must tolerate being called with snapshots in quick
// succession; the mirror already coalesces to the latest pending snapshot,
// so a slow sink sees fewer, newer snapshots rather than a backlog.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Write records one snapshot. Errors are logged, not retried; the
	// next snapshot supersedes this one anyway.
	Write(snapshot entity.Collection, at time.Time) error

	// Close releases the sink's resources.
	Close() error
}

// Logger is the logging interface used by the mirror.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Mirror fans delivered entity snapshots out to external sinks.
//
// Snapshot delivery from the session must never block on sink I/O, so the
// mirror decouples with a latest-wins handoff: the session's callback
// stores the snapshot and returns immediately, and a single worker
// goroutine writes whatever is newest to every sink.
//
// Thread Safety:
//   - Apply is safe to call concurrently; Close must be called once.
type Mirror struct {
	sinks  []Sink
	logger Logger

	mu      sync.Mutex
	pending entity.Collection
	at      time.Time

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a mirror over the given sinks and starts its worker.
// A mirror with no sinks is valid and discards snapshots.
func New(logger Logger, sinks ...Sink) *Mirror {
	m := &Mirror{
		sinks:  sinks,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// Apply hands a snapshot to the mirror. It never blocks: if the worker is
// busy, the snapshot replaces any still-pending one.
//
// Apply matches entity.SnapshotFunc so it can be registered directly with
// the session's OnSnapshot.
func (m *Mirror) Apply(snapshot entity.Collection) {
	m.mu.Lock()
	m.pending = snapshot
	m.at = time.Now()
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default: // worker already has a wakeup queued
	}
}

// run is the worker loop writing pending snapshots to all sinks.
func (m *Mirror) run() {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		}

		m.mu.Lock()
		snapshot := m.pending
		at := m.at
		m.pending = nil
		m.mu.Unlock()

		if snapshot == nil {
			continue
		}

		for _, sink := range m.sinks {
			if err := sink.Write(snapshot, at); err != nil {
				m.logger.Warn("mirror sink write failed",
					"sink", sink.Name(),
					"entities", len(snapshot),
					"error", err,
				)
			}
		}
	}
}

// Close stops the worker and closes every sink. Pending snapshots that
// have not been written yet are dropped.
func (m *Mirror) Close() {
	close(m.done)
	m.wg.Wait()

	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			m.logger.Warn("mirror sink close failed", "sink", sink.Name(), "error", err)
		}
	}
}
