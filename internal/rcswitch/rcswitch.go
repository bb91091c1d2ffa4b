// Package rcswitch encodes and decodes the fixed-code OOK protocols used by
// cheap 433MHz remotes (the rc-switch protocol family).
package rcswitch

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/sweeney/screen-remote/internal/gpio"
)

// Signal is one captured RF button code.
type Signal struct {
	Code        uint64 `yaml:"code" json:"code"`
	Protocol    int    `yaml:"protocol" json:"protocol"`
	PulseLength int    `yaml:"pulse_length" json:"pulse_length"` // microseconds
}

// IsZero reports whether no code has been captured.
func (s Signal) IsZero() bool {
	return s.Code == 0
}

func (s Signal) String() string {
	return fmt.Sprintf("code=%d protocol=%d pulse_length=%d", s.Code, s.Protocol, s.PulseLength)
}

// Protocol describes one waveform family. Highs and lows are in units of
// PulseLength.
type Protocol struct {
	PulseLength int
	SyncHigh    int
	SyncLow     int
	ZeroHigh    int
	ZeroLow     int
	OneHigh     int
	OneLow      int
}

// protocols is indexed by protocol number; entry 0 is unused.
var protocols = []Protocol{
	{},
	{350, 1, 31, 1, 3, 3, 1},
	{650, 1, 10, 1, 2, 2, 1},
	{100, 30, 71, 4, 11, 9, 6},
	{380, 1, 6, 1, 3, 3, 1},
	{500, 6, 14, 1, 2, 2, 1},
	{200, 1, 10, 1, 5, 1, 1},
}

// Defaults applied when a Signal leaves fields unset.
const (
	DefaultProtocol  = 1
	DefaultBitLength = 24
	DefaultRepeats   = 10
)

// NumProtocols is the highest valid protocol number.
func NumProtocols() int {
	return len(protocols) - 1
}

// LookupProtocol returns the protocol table entry for n.
func LookupProtocol(n int) (Protocol, error) {
	if n < 1 || n >= len(protocols) {
		return Protocol{}, fmt.Errorf("rcswitch: unknown protocol %d", n)
	}
	return protocols[n], nil
}

// Normalize fills an unset protocol and pulse length with defaults.
func (s Signal) Normalize() Signal {
	if s.Protocol == 0 {
		s.Protocol = DefaultProtocol
	}
	if s.PulseLength == 0 {
		if p, err := LookupProtocol(s.Protocol); err == nil {
			s.PulseLength = p.PulseLength
		}
	}
	return s
}

// Encode returns one frame of the signal: the code MSB first, then the
// sync pair. Codes wider than DefaultBitLength bits use as many bits as
// they need.
func Encode(sig Signal) ([]gpio.Pulse, error) {
	sig = sig.Normalize()
	p, err := LookupProtocol(sig.Protocol)
	if err != nil {
		return nil, err
	}
	if sig.PulseLength <= 0 {
		return nil, fmt.Errorf("rcswitch: invalid pulse length %d", sig.PulseLength)
	}

	n := bits.Len64(sig.Code)
	if n < DefaultBitLength {
		n = DefaultBitLength
	}

	unit := time.Duration(sig.PulseLength) * time.Microsecond
	pair := func(high, low int) []gpio.Pulse {
		return []gpio.Pulse{
			{High: true, Duration: time.Duration(high) * unit},
			{High: false, Duration: time.Duration(low) * unit},
		}
	}

	pulses := make([]gpio.Pulse, 0, 2*n+2)
	for i := n - 1; i >= 0; i-- {
		if sig.Code&(1<<uint(i)) != 0 {
			pulses = append(pulses, pair(p.OneHigh, p.OneLow)...)
		} else {
			pulses = append(pulses, pair(p.ZeroHigh, p.ZeroLow)...)
		}
	}
	pulses = append(pulses, pair(p.SyncHigh, p.SyncLow)...)
	return pulses, nil
}

// Transmitter sends signals through an Emitter.
type Transmitter struct {
	emitter gpio.Emitter

	// Repeats is the number of frames per transmission. Receivers need to
	// see at least two consecutive frames to lock on.
	Repeats int
}

// NewTransmitter creates a Transmitter sending DefaultRepeats frames.
func NewTransmitter(e gpio.Emitter) *Transmitter {
	return &Transmitter{emitter: e, Repeats: DefaultRepeats}
}

// Transmit emits the signal's frame Repeats times back to back.
func (t *Transmitter) Transmit(sig Signal) error {
	frame, err := Encode(sig)
	if err != nil {
		return err
	}
	repeats := t.Repeats
	if repeats <= 0 {
		repeats = 1
	}
	pulses := make([]gpio.Pulse, 0, len(frame)*repeats)
	for i := 0; i < repeats; i++ {
		pulses = append(pulses, frame...)
	}
	if err := t.emitter.EmitPulses(pulses); err != nil {
		return fmt.Errorf("emit %s: %w", sig, err)
	}
	return nil
}
