package capture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/screen-remote/internal/gpio"
	"github.com/sweeney/screen-remote/internal/rcswitch"
)

var (
	sigA = rcswitch.Signal{Code: 5393, Protocol: 1, PulseLength: 350}
	sigB = rcswitch.Signal{Code: 1111, Protocol: 1, PulseLength: 352}
	sigC = rcswitch.Signal{Code: 2222, Protocol: 2, PulseLength: 650}
)

func TestVote(t *testing.T) {
	tests := []struct {
		name     string
		readings []rcswitch.Signal
		want     rcswitch.Signal
	}{
		{"majority", []rcswitch.Signal{sigA, sigB, sigA, sigA, sigC}, sigA},
		{"single", []rcswitch.Signal{sigA}, sigA},
		{"tie goes to first seen", []rcswitch.Signal{sigB, sigA, sigA, sigB}, sigB},
		{"late majority", []rcswitch.Signal{sigC, sigB, sigB}, sigB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Vote(tt.readings)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVoteReturnsFirstReadingOfWinner(t *testing.T) {
	jittered := sigA
	jittered.PulseLength = 348
	got, err := Vote([]rcswitch.Signal{jittered, sigA, sigA})
	if err != nil {
		t.Fatal(err)
	}
	if got.PulseLength != 348 {
		t.Errorf("expected the first reading's pulse length, got %d", got.PulseLength)
	}
}

func TestVoteEmpty(t *testing.T) {
	if _, err := Vote(nil); !errors.Is(err, ErrNoSignal) {
		t.Errorf("expected ErrNoSignal, got %v", err)
	}
	if ErrNoSignal.Error() != "no signal captured" {
		t.Errorf("unexpected message %q", ErrNoSignal.Error())
	}
}

// press feeds n frames of sig onto the line, starting at start.
func press(w *gpio.FakeWatch, start time.Duration, sig rcswitch.Signal, n int) time.Duration {
	frame, _ := rcswitch.Encode(sig)
	ts := start
	w.Edge(ts)
	for i := 0; i < n; i++ {
		for _, p := range frame {
			ts += p.Duration
			w.Edge(ts)
		}
	}
	return ts
}

func TestSessionCollectsAndVotes(t *testing.T) {
	fw := gpio.NewFakeWatcher()
	var mu sync.Mutex
	var live []rcswitch.Signal

	s, err := Start(fw, gpio.DefaultPinRFRx, func(sig rcswitch.Signal) {
		mu.Lock()
		live = append(live, sig)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	line := fw.Line(gpio.DefaultPinRFRx)
	if line == nil {
		t.Fatal("expected rf line to be watched")
	}

	ts := press(line, time.Second, sigA, 3)
	ts = press(line, ts+time.Second, sigB, 3)
	press(line, ts+time.Second, sigA, 3)

	if n := len(s.Readings()); n != 3 {
		t.Fatalf("expected 3 readings, got %d", n)
	}
	got, err := s.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if got != sigA {
		t.Errorf("got %s, want %s", got, sigA)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(live) != 3 {
		t.Errorf("expected 3 live reports, got %d", len(live))
	}
	if !line.Closed() {
		t.Error("line should be released after Stop")
	}
}

func TestSessionNoReadings(t *testing.T) {
	fw := gpio.NewFakeWatcher()
	s, err := Start(fw, gpio.DefaultPinRFRx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Stop(); !errors.Is(err, ErrNoSignal) {
		t.Errorf("expected ErrNoSignal, got %v", err)
	}
}

func TestSessionWatchError(t *testing.T) {
	fw := gpio.NewFakeWatcher()
	fw.WatchError = errors.New("line busy")
	if _, err := Start(fw, gpio.DefaultPinRFRx, nil); !errors.Is(err, fw.WatchError) {
		t.Errorf("expected wrapped watch error, got %v", err)
	}
}
