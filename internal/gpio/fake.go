package gpio

import (
	"io"
	"sync"
	"time"
)

// FakeWatcher is a test double that lets callers inject edge and timeout
// events. It doubles as the no-hardware backend for simulation.
type FakeWatcher struct {
	mu      sync.Mutex
	watches map[int]*FakeWatch

	// WatchError, if set, will be returned by Watch.
	WatchError error
}

// NewFakeWatcher creates a FakeWatcher with no lines watched.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{watches: make(map[int]*FakeWatch)}
}

// Watch registers h for the line. A second Watch on the same offset
// replaces the first.
func (f *FakeWatcher) Watch(cfg WatchConfig, h Handler) (io.Closer, error) {
	if f.WatchError != nil {
		return nil, f.WatchError
	}
	w := &FakeWatch{cfg: cfg, handler: h}
	f.mu.Lock()
	f.watches[cfg.Offset] = w
	f.mu.Unlock()
	return w, nil
}

// Line returns the most recent watch for offset, or nil.
func (f *FakeWatcher) Line(offset int) *FakeWatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watches[offset]
}

// FakeWatch is one registered fake line.
type FakeWatch struct {
	mu      sync.Mutex
	cfg     WatchConfig
	handler Handler
	level   bool
	closed  bool

	// Delivered counts handler invocations.
	Delivered int
}

// Config returns the WatchConfig the line was registered with.
func (w *FakeWatch) Config() WatchConfig {
	return w.cfg
}

// Edge delivers an edge at ts, alternating polarity starting with falling.
// Returns false if the watch is closed.
func (w *FakeWatch) Edge(ts time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.level = !w.level
	w.Delivered++
	w.handler(Event{Kind: EventEdge, Rising: !w.level, Timestamp: ts})
	return true
}

// Timeout delivers an idle timeout. Returns false if the watch is closed.
func (w *FakeWatch) Timeout() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.Delivered++
	w.handler(Event{Kind: EventTimeout})
	return true
}

// Frame delivers an edge at start, one edge after each interval, then a
// timeout. It returns the timestamp of the last edge.
func (w *FakeWatch) Frame(start time.Duration, intervals []time.Duration) time.Duration {
	ts := start
	w.Edge(ts)
	for _, d := range intervals {
		ts += d
		w.Edge(ts)
	}
	w.Timeout()
	return ts
}

// Close marks the watch closed. It waits for an in-flight delivery.
func (w *FakeWatch) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (w *FakeWatch) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// FakeEmitter records emitted pulse trains for test assertions.
type FakeEmitter struct {
	mu sync.Mutex

	// Emissions contains every pulse train passed to EmitPulses.
	Emissions [][]Pulse

	// EmitError, if set, will be returned by EmitPulses.
	EmitError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeEmitter creates a FakeEmitter.
func NewFakeEmitter() *FakeEmitter {
	return &FakeEmitter{}
}

// EmitPulses records a copy of pulses.
func (e *FakeEmitter) EmitPulses(pulses []Pulse) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Closed {
		return ErrClosed
	}
	if e.EmitError != nil {
		return e.EmitError
	}
	e.Emissions = append(e.Emissions, append([]Pulse(nil), pulses...))
	return nil
}

// Count returns the number of recorded emissions.
func (e *FakeEmitter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Emissions)
}

// Close marks the emitter as closed.
func (e *FakeEmitter) Close() error {
	e.mu.Lock()
	e.Closed = true
	e.mu.Unlock()
	return nil
}
