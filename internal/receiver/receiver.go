// Package receiver turns IR edge events into debounced, looked-up actions.
package receiver

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sweeney/screen-remote/internal/codebook"
	"github.com/sweeney/screen-remote/internal/gpio"
	"github.com/sweeney/screen-remote/internal/logic"
)

// Config controls the receiver pipeline.
type Config struct {
	Offset       int
	GlitchFilter time.Duration
	IdleTimeout  time.Duration
	Debounce     time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns a Config for the default IR pin.
func DefaultConfig() Config {
	return Config{
		Offset:       gpio.DefaultPinIR,
		GlitchFilter: logic.DefaultGlitchFilter,
		IdleTimeout:  logic.DefaultIdleTimeout,
		Debounce:     logic.DefaultDebounce,
	}
}

// Counts is a snapshot of pipeline counters.
type Counts struct {
	Edges        uint64
	Glitches     uint64
	Noise        uint64 // frames too short or too sparse to fingerprint
	Frames       uint64 // frames fingerprinted
	Suppressed   uint64 // repeats dropped by the debouncer
	Surfaced     uint64 // fingerprints placed in the mailbox
	Overwritten  uint64 // surfaced fingerprints replaced before being read
	Unrecognized uint64 // fingerprints read by Check with no action
}

// present marks a full mailbox; the low 32 bits hold the fingerprint.
const present = uint64(1) << 32

// Receiver owns one IR line. The watch handler runs the framing,
// classification and debounce steps and leaves at most one fingerprint in
// a single-slot mailbox for the poll loop.
type Receiver struct {
	book  *codebook.Book
	now   func() time.Time
	watch io.Closer

	// Handler-goroutine state.
	framer    *logic.Framer
	debouncer *logic.Debouncer

	mailbox atomic.Uint64
	closed  atomic.Bool

	edges        atomic.Uint64
	glitches     atomic.Uint64
	noise        atomic.Uint64
	frames       atomic.Uint64
	suppressed   atomic.Uint64
	surfaced     atomic.Uint64
	overwritten  atomic.Uint64
	unrecognized atomic.Uint64
}

// New registers the IR line with w. The line is live when New returns.
func New(w gpio.Watcher, cfg Config, book *codebook.Book) (*Receiver, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = logic.DefaultIdleTimeout
	}
	if book == nil {
		book = codebook.New()
	}
	r := &Receiver{
		book:      book,
		now:       cfg.Now,
		framer:    logic.NewFramer(cfg.GlitchFilter),
		debouncer: logic.NewDebouncer(cfg.Debounce),
	}
	watch, err := w.Watch(gpio.WatchConfig{Offset: cfg.Offset, IdleTimeout: cfg.IdleTimeout}, r.handle)
	if err != nil {
		return nil, fmt.Errorf("watch ir receiver on line %d: %w", cfg.Offset, err)
	}
	r.watch = watch
	return r, nil
}

func (r *Receiver) handle(e gpio.Event) {
	if r.closed.Load() {
		return
	}
	switch e.Kind {
	case gpio.EventEdge:
		r.edges.Add(1)
		if !r.framer.Edge(e.Timestamp) {
			r.glitches.Add(1)
		}
	case gpio.EventTimeout:
		r.frameDone()
	}
}

func (r *Receiver) frameDone() {
	frame, ok := r.framer.Timeout()
	if !ok {
		r.noise.Add(1)
		return
	}
	fp, ok := logic.Classify(frame)
	if !ok {
		r.noise.Add(1)
		return
	}
	r.frames.Add(1)
	if !r.debouncer.Accept(fp, r.now()) {
		r.suppressed.Add(1)
		return
	}
	r.surfaced.Add(1)
	r.post(fp)
}

// post stores fp in the mailbox, replacing any unread value.
func (r *Receiver) post(fp logic.Fingerprint) {
	if prev := r.mailbox.Swap(present | uint64(fp)); prev&present != 0 {
		r.overwritten.Add(1)
	}
}

func (r *Receiver) take() (logic.Fingerprint, bool) {
	v := r.mailbox.Swap(0)
	if v&present == 0 {
		return 0, false
	}
	return logic.Fingerprint(uint32(v)), true
}

// Check drains the mailbox and returns the action for its fingerprint.
// Unknown fingerprints are consumed and reported as no action.
func (r *Receiver) Check() (string, bool) {
	fp, ok := r.take()
	if !ok {
		return "", false
	}
	action, ok := r.book.Lookup(fp)
	if !ok {
		r.unrecognized.Add(1)
		return "", false
	}
	return action, true
}

// RawHash drains the mailbox without lookup.
func (r *Receiver) RawHash() (logic.Fingerprint, bool) {
	return r.take()
}

// Book returns the code book used by Check.
func (r *Receiver) Book() *codebook.Book {
	return r.book
}

// Counts returns the current counters.
func (r *Receiver) Counts() Counts {
	return Counts{
		Edges:        r.edges.Load(),
		Glitches:     r.glitches.Load(),
		Noise:        r.noise.Load(),
		Frames:       r.frames.Load(),
		Suppressed:   r.suppressed.Load(),
		Surfaced:     r.surfaced.Load(),
		Overwritten:  r.overwritten.Load(),
		Unrecognized: r.unrecognized.Load(),
	}
}

// Close releases the line. No handler runs after Close returns.
func (r *Receiver) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if err := r.watch.Close(); err != nil {
		return fmt.Errorf("close ir receiver: %w", err)
	}
	return nil
}
