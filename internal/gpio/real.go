//go:build linux

package gpio

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "screen-remote"

// RealWatcher watches input lines using the Linux GPIO character device.
type RealWatcher struct {
	chip string
}

// NewRealWatcher creates a watcher for lines on the named chip.
func NewRealWatcher(chip string) *RealWatcher {
	if chip == "" {
		chip = DefaultChip
	}
	return &RealWatcher{chip: chip}
}

// realWatch owns one requested input line and its dispatcher.
type realWatch struct {
	line *gpiocdev.Line
	d    *dispatcher
	once sync.Once
	err  error
}

// Watch requests the line as an input reporting both edges.
// Kernel edge timestamps are monotonic, so intervals are unaffected by
// wall clock adjustments.
func (w *RealWatcher) Watch(cfg WatchConfig, h Handler) (io.Closer, error) {
	d := newDispatcher(cfg.IdleTimeout, h)

	line, err := gpiocdev.RequestLine(w.chip, cfg.Offset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			d.push(Event{
				Kind:      EventEdge,
				Rising:    evt.Type == gpiocdev.LineEventRisingEdge,
				Timestamp: evt.Timestamp,
			})
		}))
	if err != nil {
		d.close()
		return nil, fmt.Errorf("request input line %s:%d: %w", w.chip, cfg.Offset, err)
	}

	return &realWatch{line: line, d: d}, nil
}

// Close releases the line first, which waits for the kernel event handler
// to return, then stops the dispatcher and its watchdog.
func (rw *realWatch) Close() error {
	rw.once.Do(func() {
		if err := rw.line.Close(); err != nil {
			rw.err = fmt.Errorf("close input line: %w", err)
		}
		rw.d.close()
	})
	return rw.err
}

// RealEmitter drives an output line using the Linux GPIO character device.
type RealEmitter struct {
	mu   sync.Mutex
	line *gpiocdev.Line
}

// NewRealEmitter requests the line as an output, initially low.
func NewRealEmitter(chip string, offset int) (*RealEmitter, error) {
	if chip == "" {
		chip = DefaultChip
	}
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("request output line %s:%d: %w", chip, offset, err)
	}
	return &RealEmitter{line: line}, nil
}

// EmitPulses bit-bangs the pulse train. Timing uses a spin wait on a
// locked OS thread because sleeps overshoot the few hundred microsecond
// pulses the RF protocols need.
func (e *RealEmitter) EmitPulses(pulses []Pulse) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.line == nil {
		return ErrClosed
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	deadline := time.Now()
	for _, p := range pulses {
		v := 0
		if p.High {
			v = 1
		}
		if err := e.line.SetValue(v); err != nil {
			e.line.SetValue(0)
			return fmt.Errorf("set output: %w", err)
		}
		deadline = deadline.Add(p.Duration)
		for time.Now().Before(deadline) {
		}
	}

	if err := e.line.SetValue(0); err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return nil
}

// Close releases the output line.
// Reconfigures it as an input with pull-down (matching Pi boot defaults) so
// the transmitter is not left keyed.
func (e *RealEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.line == nil {
		return nil
	}

	var errs []error
	if err := e.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure output line: %w", err))
	}
	if err := e.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close output line: %w", err))
	}
	e.line = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
