package logic

import (
	"testing"
	"time"
)

// feed delivers an edge at start and after each interval.
func feed(f *Framer, start time.Duration, intervals []time.Duration) {
	ts := start
	f.Edge(ts)
	for _, d := range intervals {
		ts += d
		f.Edge(ts)
	}
}

func TestFramerRecordsIntervals(t *testing.T) {
	f := NewFramer(DefaultGlitchFilter)
	intervals := us(9000, 4500, 560, 560, 560, 1690, 560, 560, 560, 1690, 560)

	feed(f, time.Second, intervals)
	if !f.Open() {
		t.Fatal("expected open frame")
	}

	frame, ok := f.Timeout()
	if !ok {
		t.Fatal("expected a frame with 11 intervals")
	}
	if len(frame) != len(intervals) {
		t.Fatalf("got %d intervals, want %d", len(frame), len(intervals))
	}
	for i := range intervals {
		if frame[i] != intervals[i] {
			t.Errorf("interval %d: got %v, want %v", i, frame[i], intervals[i])
		}
	}
	if f.Open() {
		t.Error("frame should be closed after timeout")
	}
}

func TestFramerDiscardsShortFrames(t *testing.T) {
	f := NewFramer(DefaultGlitchFilter)

	// Exactly 10 intervals is not enough.
	feed(f, 0, us(560, 560, 560, 560, 560, 560, 560, 560, 560, 560))
	if _, ok := f.Timeout(); ok {
		t.Error("expected frame of 10 intervals to be discarded")
	}

	// Buffer was cleared: a following valid frame starts fresh.
	feed(f, time.Second, us(560, 560, 560, 560, 560, 560, 560, 560, 560, 560, 560))
	frame, ok := f.Timeout()
	if !ok {
		t.Fatal("expected frame of 11 intervals")
	}
	if len(frame) != 11 {
		t.Errorf("got %d intervals, want 11", len(frame))
	}
}

func TestFramerGlitchFilter(t *testing.T) {
	f := NewFramer(150 * time.Microsecond)

	f.Edge(1000 * time.Microsecond)
	if f.Edge(1100 * time.Microsecond) {
		t.Error("edge 100us after previous should be rejected")
	}
	if !f.Edge(1600 * time.Microsecond) {
		t.Error("edge 600us after accepted edge should be accepted")
	}
	// Exactly the filter width is accepted.
	if !f.Edge(1750 * time.Microsecond) {
		t.Error("edge exactly at glitch width should be accepted")
	}

	// The rejected edge is not counted: intervals are from accepted edges.
	if len(f.edges) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(f.edges))
	}
	if f.edges[0] != 600*time.Microsecond {
		t.Errorf("interval 0: got %v, want 600us", f.edges[0])
	}
	if f.edges[1] != 150*time.Microsecond {
		t.Errorf("interval 1: got %v, want 150us", f.edges[1])
	}
}

func TestFramerFirstEdgeOfFrameRecordsNothing(t *testing.T) {
	f := NewFramer(DefaultGlitchFilter)
	feed(f, 0, us(560, 560, 560, 560, 560, 560, 560, 560, 560, 560, 560))
	f.Timeout()

	// The gap since the last frame is not an interval of the new frame.
	f.Edge(2 * time.Second)
	if len(f.edges) != 0 {
		t.Errorf("expected no intervals after first edge, got %d", len(f.edges))
	}
}

func TestFramerBoundedBuffer(t *testing.T) {
	f := NewFramer(0)
	ts := time.Duration(0)
	for i := 0; i < MaxFrameEdges+100; i++ {
		ts += 500 * time.Microsecond
		f.Edge(ts)
	}
	frame, ok := f.Timeout()
	if !ok {
		t.Fatal("expected a frame")
	}
	if len(frame) != MaxFrameEdges {
		t.Errorf("got %d intervals, want cap %d", len(frame), MaxFrameEdges)
	}
}

func TestFramerTimeoutWithoutEdges(t *testing.T) {
	f := NewFramer(DefaultGlitchFilter)
	if _, ok := f.Timeout(); ok {
		t.Error("expected no frame from empty framer")
	}
}
