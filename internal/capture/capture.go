// Package capture records RF readings during a learning session and picks
// the canonical code by majority vote.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sweeney/screen-remote/internal/gpio"
	"github.com/sweeney/screen-remote/internal/rcswitch"
)

// ErrNoSignal is returned when a session ends without any readings.
var ErrNoSignal = errors.New("no signal captured")

// Vote returns the reading whose code occurs most often. Ties go to the
// code seen first; the first reading carrying the winning code is
// returned.
func Vote(readings []rcswitch.Signal) (rcswitch.Signal, error) {
	if len(readings) == 0 {
		return rcswitch.Signal{}, ErrNoSignal
	}

	counts := make(map[uint64]int)
	first := make(map[uint64]int)
	for i, r := range readings {
		if _, ok := first[r.Code]; !ok {
			first[r.Code] = i
		}
		counts[r.Code]++
	}

	best := readings[0].Code
	for code, n := range counts {
		switch {
		case n > counts[best]:
			best = code
		case n == counts[best] && first[code] < first[best]:
			best = code
		}
	}
	return readings[first[best]], nil
}

// Session collects decoded readings from one receiver line.
type Session struct {
	mu       sync.Mutex
	decoder  *rcswitch.Decoder
	readings []rcswitch.Signal
	onRead   func(rcswitch.Signal)
	watch    io.Closer
	stopped  bool
}

// Start begins a session on the line at offset. onRead, if non-nil, is
// called for every reading on the watcher's event goroutine.
func Start(w gpio.Watcher, offset int, onRead func(rcswitch.Signal)) (*Session, error) {
	s := &Session{
		decoder: rcswitch.NewDecoder(),
		onRead:  onRead,
	}
	watch, err := w.Watch(gpio.WatchConfig{Offset: offset}, s.handle)
	if err != nil {
		return nil, fmt.Errorf("watch rf receiver: %w", err)
	}
	s.watch = watch
	return s, nil
}

func (s *Session) handle(e gpio.Event) {
	if e.Kind != gpio.EventEdge {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	sig, ok := s.decoder.Edge(e.Timestamp)
	if ok {
		s.readings = append(s.readings, sig)
	}
	onRead := s.onRead
	s.mu.Unlock()

	if ok && onRead != nil {
		onRead(sig)
	}
}

// Readings returns a copy of the readings collected so far.
func (s *Session) Readings() []rcswitch.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rcswitch.Signal(nil), s.readings...)
}

// Stop releases the line and votes over the collected readings.
func (s *Session) Stop() (rcswitch.Signal, error) {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	if err := s.watch.Close(); err != nil {
		return rcswitch.Signal{}, fmt.Errorf("close rf receiver: %w", err)
	}
	return Vote(s.Readings())
}
