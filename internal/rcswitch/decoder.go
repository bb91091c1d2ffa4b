package rcswitch

import "time"

const (
	// maxChanges bounds the edges buffered per frame (32 bits + sync).
	maxChanges = 67
	// syncGapMin is the shortest gap, in microseconds, treated as a sync.
	syncGapMin = 5000
	// syncMatch is how close, in microseconds, consecutive sync gaps must be
	// to count as a repeated frame.
	syncMatch = 200
	// tolerancePercent is the allowed deviation of a pulse from its
	// nominal width, as a percentage of the pulse length.
	tolerancePercent = 80
)

// Decoder recovers codes from edge timestamps. A code is reported only
// after the same-length sync gap is seen twice more, so a single noisy
// frame never produces a reading.
//
// Not safe for concurrent use.
type Decoder struct {
	timings [maxChanges]int
	changes int
	repeats int
	last    time.Duration
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Edge records an edge at the monotonic timestamp ts. It returns a signal
// when the edge completes a decodable frame.
func (d *Decoder) Edge(ts time.Duration) (Signal, bool) {
	dur := int((ts - d.last) / time.Microsecond)
	d.last = ts

	var sig Signal
	var ok bool

	if dur > syncGapMin {
		if abs(dur-d.timings[0]) < syncMatch {
			d.repeats++
			// Drop the sync high pulse that preceded this gap.
			d.changes--
			if d.repeats == 2 {
				for p := 1; p < len(protocols); p++ {
					if s, good := d.decode(p, d.changes); good {
						sig, ok = s, true
						break
					}
				}
				d.repeats = 0
			}
		}
		d.changes = 0
	}

	if d.changes >= maxChanges {
		d.changes = 0
		d.repeats = 0
	}
	d.timings[d.changes] = dur
	d.changes++

	return sig, ok
}

// decode tries to read timings[1:changes] as data bits of protocol p, with
// the pulse length derived from the sync gap in timings[0].
func (d *Decoder) decode(p, changes int) (Signal, bool) {
	proto := protocols[p]
	delay := d.timings[0] / proto.SyncLow
	tolerance := delay * tolerancePercent / 100

	match := func(got, units int) bool {
		return abs(got-delay*units) < tolerance
	}

	var code uint64
	for i := 1; i < changes && i+1 < maxChanges; i += 2 {
		high, low := d.timings[i], d.timings[i+1]
		switch {
		case match(high, proto.ZeroHigh) && match(low, proto.ZeroLow):
			code <<= 1
		case match(high, proto.OneHigh) && match(low, proto.OneLow):
			code = code<<1 | 1
		default:
			return Signal{}, false
		}
	}

	if changes <= 6 || code == 0 {
		return Signal{}, false
	}
	return Signal{Code: code, Protocol: p, PulseLength: delay}, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
