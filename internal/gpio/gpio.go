// Package gpio provides edge-event input and waveform output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing and simulation without hardware.
package gpio

import (
	"errors"
	"io"
	"time"
)

// Default line offsets (BCM numbering) and chip.
const (
	DefaultChip    = "gpiochip0"
	DefaultPinIR   = 18 // TSOP38238 data
	DefaultPinRFRx = 27 // MX-RM-5V data
	DefaultPinRFTx = 17 // FS1000A data
)

// ErrClosed is returned when using a watch or emitter after Close.
var ErrClosed = errors.New("gpio: closed")

// EventKind distinguishes edge events from idle timeouts.
type EventKind int

const (
	// EventEdge is a level transition on the watched line.
	EventEdge EventKind = iota
	// EventTimeout fires once when no edge has been seen for the idle timeout.
	EventTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventEdge:
		return "EDGE"
	case EventTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Event is delivered to a Handler. Timestamp is monotonic and only
// meaningful for EventEdge.
type Event struct {
	Kind      EventKind
	Rising    bool
	Timestamp time.Duration
}

// Handler receives events for one watched line. Calls are serialized:
// a handler is never invoked concurrently with itself.
type Handler func(Event)

// WatchConfig describes the line to watch.
type WatchConfig struct {
	// Offset is the line offset on the chip (BCM pin number on a Pi).
	Offset int
	// IdleTimeout arms a watchdog on every edge. When it expires a single
	// EventTimeout is delivered and the watchdog stays disarmed until the
	// next edge. Zero disables the watchdog.
	IdleTimeout time.Duration
}

// Watcher registers edge callbacks on input lines.
type Watcher interface {
	// Watch starts delivering events for the line to h. Closing the
	// returned Closer deregisters the callback and disarms the watchdog;
	// once Close returns, h is never called again.
	Watch(cfg WatchConfig, h Handler) (io.Closer, error)
}

// Pulse is one level held for a duration.
type Pulse struct {
	High     bool
	Duration time.Duration
}

// Emitter drives an output line through a pulse sequence.
type Emitter interface {
	// EmitPulses drives the line through pulses in order and leaves it low.
	EmitPulses(pulses []Pulse) error

	// Close releases the output line.
	Close() error
}
