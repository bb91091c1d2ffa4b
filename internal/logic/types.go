// Package logic contains the pure decode logic for remote-control frames.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time or time.Duration parameters.
package logic

import (
	"fmt"
	"time"
)

// Symbol is the ternary class of one mark/space pair.
type Symbol uint32

const (
	SymbolShort Symbol = 0 // mark/space < 0.5
	SymbolEqual Symbol = 1 // 0.5 <= mark/space < 1.5
	SymbolLong  Symbol = 2 // mark/space >= 1.5
)

func (s Symbol) String() string {
	switch s {
	case SymbolShort:
		return "S"
	case SymbolEqual:
		return "E"
	case SymbolLong:
		return "L"
	default:
		return fmt.Sprintf("[bad Symbol=%d]", uint32(s))
	}
}

// Fingerprint identifies a frame by its mark/space ratio pattern.
type Fingerprint uint32

// Frame is the sequence of intervals between accepted edges of one
// transmission.
type Frame []time.Duration

// Decoder defaults.
const (
	DefaultGlitchFilter = 150 * time.Microsecond
	DefaultIdleTimeout  = 50 * time.Millisecond
	DefaultDebounce     = 300 * time.Millisecond

	// MinFrameEdges is the count a frame must exceed to be classified.
	MinFrameEdges = 10

	// MaxFrameEdges bounds the per-frame buffer. Edges past this are
	// dropped until the frame times out.
	MaxFrameEdges = 512
)
