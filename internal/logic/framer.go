package logic

import "time"

// Framer assembles edge timestamps into frames. It is the software half of
// the edge timestamper: the watcher delivers edges and idle timeouts, the
// Framer filters glitches and measures intervals.
//
// Not safe for concurrent use. The watcher serializes calls.
type Framer struct {
	glitch time.Duration
	edges  []time.Duration
	last   time.Duration
	open   bool
}

// NewFramer creates a Framer that ignores edges closer than glitch to the
// previous accepted edge.
func NewFramer(glitch time.Duration) *Framer {
	return &Framer{
		glitch: glitch,
		edges:  make([]time.Duration, 0, MaxFrameEdges),
	}
}

// Edge records an edge at ts. Returns false if the edge was rejected as a
// glitch; rejected edges are neither recorded nor counted.
func (f *Framer) Edge(ts time.Duration) bool {
	if !f.open {
		f.open = true
		f.last = ts
		return true
	}

	d := ts - f.last
	if d < f.glitch || d < 0 {
		return false
	}

	f.last = ts
	if len(f.edges) < MaxFrameEdges {
		f.edges = append(f.edges, d)
	}
	return true
}

// Timeout closes the current frame. It returns the frame if it holds more
// than MinFrameEdges intervals. The returned Frame aliases the internal
// buffer and is valid only until the next call to Edge.
func (f *Framer) Timeout() (Frame, bool) {
	frame := Frame(f.edges)
	f.edges = f.edges[:0]
	f.open = false

	if len(frame) <= MinFrameEdges {
		return nil, false
	}
	return frame, true
}

// Open reports whether a frame is in progress.
func (f *Framer) Open() bool {
	return f.open
}
