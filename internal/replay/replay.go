// Package replay repeats RF transmissions to make up for a lossy one-way
// link.
package replay

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/sweeney/screen-remote/internal/rcswitch"
)

// DefaultRepeat is the number of transmissions when none is given.
const DefaultRepeat = 5

// Transmitter sends one RF signal.
type Transmitter interface {
	Transmit(sig rcswitch.Signal) error
}

// Sender serializes replays onto one Transmitter.
type Sender struct {
	mu sync.Mutex
	tx Transmitter

	sent   atomic.Uint64
	failed atomic.Uint64

	// OnTransmit, if set, is called after every attempt with its error.
	OnTransmit func(err error)
}

// NewSender creates a Sender.
func NewSender(tx Transmitter) *Sender {
	return &Sender{tx: tx}
}

// Send transmits sig repeat times (DefaultRepeat when repeat <= 0).
// Failures are logged and do not stop the remaining attempts.
func (s *Sender) Send(sig rcswitch.Signal, repeat int) {
	if repeat <= 0 {
		repeat = DefaultRepeat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < repeat; i++ {
		err := s.tx.Transmit(sig)
		if err != nil {
			s.failed.Add(1)
			log.Printf("replay: transmit %d/%d failed: %v", i+1, repeat, err)
		} else {
			s.sent.Add(1)
		}
		if s.OnTransmit != nil {
			s.OnTransmit(err)
		}
	}
}

// Sent returns the number of successful transmissions.
func (s *Sender) Sent() uint64 {
	return s.sent.Load()
}

// Failed returns the number of failed transmissions.
func (s *Sender) Failed() uint64 {
	return s.failed.Load()
}
