package internal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/screen-remote/internal/capture"
	"github.com/sweeney/screen-remote/internal/codebook"
	"github.com/sweeney/screen-remote/internal/config"
	"github.com/sweeney/screen-remote/internal/gpio"
	"github.com/sweeney/screen-remote/internal/logic"
	"github.com/sweeney/screen-remote/internal/rcswitch"
	"github.com/sweeney/screen-remote/internal/receiver"
	"github.com/sweeney/screen-remote/internal/replay"
)

// nec builds the intervals of an NEC-style frame for code.
func nec(code uint32) []time.Duration {
	us := func(v int) time.Duration { return time.Duration(v) * time.Microsecond }
	out := []time.Duration{us(9000), us(4500)}
	for i := 0; i < 32; i++ {
		out = append(out, us(560))
		if code&(1<<uint(i)) != 0 {
			out = append(out, us(1690))
		} else {
			out = append(out, us(560))
		}
	}
	return append(out, us(560))
}

// irRig is a receiver on a fake line with a settable clock.
type irRig struct {
	line *gpio.FakeWatch
	rx   *receiver.Receiver
	now  time.Time
	ts   time.Duration
}

func newIRRig(t *testing.T, cfg *config.Config, book *codebook.Book) *irRig {
	t.Helper()
	w := gpio.NewFakeWatcher()
	r := &irRig{now: time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)}
	rc := receiver.Config{
		Offset:       cfg.GPIO.IRPin,
		GlitchFilter: cfg.Receiver.GlitchFilter(),
		IdleTimeout:  cfg.Receiver.Timeout(),
		Debounce:     cfg.Receiver.Debounce(),
		Now:          func() time.Time { return r.now },
	}
	rx, err := receiver.New(w, rc, book)
	if err != nil {
		t.Fatalf("receiver: %v", err)
	}
	t.Cleanup(func() { rx.Close() })
	r.rx = rx
	r.line = w.Line(cfg.GPIO.IRPin)
	return r
}

// press sends one frame a second after the previous one.
func (r *irRig) press(code uint32) {
	r.now = r.now.Add(time.Second)
	r.ts += time.Second
	r.line.Frame(r.ts, nec(code))
}

func TestIntegrationLearnSaveRecognize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	book := cfg.Book()

	rig := newIRRig(t, cfg, book)
	l := codebook.NewLearner(rig.rx, book)
	l.Settle = 0

	codes := map[string]uint32{
		codebook.ActionPower: 0x00FF00FF,
		"1":                  0x0000FFFF,
		"2":                  0x55AA55AA,
	}
	learned := map[string]logic.Fingerprint{}
	for _, action := range []string{codebook.ActionPower, "1", "2"} {
		rig.press(codes[action])
		fp, err := l.Learn(context.Background(), action)
		if err != nil {
			t.Fatalf("learn %s: %v", action, err)
		}
		learned[action] = fp
	}
	if learned["1"] == learned["2"] || learned["1"] == learned[codebook.ActionPower] {
		t.Fatalf("distinct buttons share a fingerprint: %v", learned)
	}

	cfg.SetBook(book)
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded.IRCodes["2"] != uint32(learned["2"]) || loaded.IRCodes["9"] != nil {
		t.Errorf("persisted codes: 2=%v 9=%v", loaded.IRCodes["2"], loaded.IRCodes["9"])
	}

	run := newIRRig(t, loaded, loaded.Book())
	for _, action := range []string{"2", codebook.ActionPower, "1"} {
		run.press(codes[action])
		got, ok := run.rx.Check()
		if !ok || got != action {
			t.Errorf("press %s: got %q, %v", action, got, ok)
		}
	}

	run.press(0x12345678)
	if got, ok := run.rx.Check(); ok {
		t.Errorf("unknown remote recognized as %q", got)
	}
	if c := run.rx.Counts(); c.Unrecognized != 1 {
		t.Errorf("Unrecognized: got %d, want 1", c.Unrecognized)
	}
}

func TestIntegrationHeldButtonSurfacesOnce(t *testing.T) {
	cfg := config.Default()
	book := codebook.New()
	rig := newIRRig(t, cfg, book)

	rig.press(0x00FF00FF)
	fp, ok := rig.rx.RawHash()
	if !ok {
		t.Fatal("expected a fingerprint")
	}
	book.Assign(codebook.ActionPower, fp)

	// Repeats every 100ms stay within the window of the first press.
	rig.press(0x00FF00FF)
	surfaced := 0
	for i := 0; i < 3; i++ {
		if _, ok := rig.rx.Check(); ok {
			surfaced++
		}
		rig.now = rig.now.Add(100 * time.Millisecond)
		rig.ts += 100 * time.Millisecond
		rig.line.Frame(rig.ts, nec(0x00FF00FF))
	}
	if _, ok := rig.rx.Check(); ok {
		surfaced++
	}
	if surfaced != 1 {
		t.Errorf("held button surfaced %d times, want 1", surfaced)
	}
}

// emit drives line with every pulse train the emitter recorded.
func emit(line *gpio.FakeWatch, em *gpio.FakeEmitter, start time.Duration) {
	ts := start
	line.Edge(ts)
	for _, train := range em.Emissions {
		for _, p := range train {
			ts += p.Duration
			line.Edge(ts)
		}
	}
}

func TestIntegrationCaptureSaveReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	want := rcswitch.Signal{Code: 5393, Protocol: 1, PulseLength: 350}

	// The operator's remote, simulated with a transmitter on a fake line.
	remote := gpio.NewFakeEmitter()
	if err := rcswitch.NewTransmitter(remote).Transmit(want); err != nil {
		t.Fatal(err)
	}

	w := gpio.NewFakeWatcher()
	session, err := capture.Start(w, cfg.GPIO.RFRxPin, nil)
	if err != nil {
		t.Fatal(err)
	}
	emit(w.Line(cfg.GPIO.RFRxPin), remote, time.Second)

	got, err := session.Stop()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got != want {
		t.Fatalf("captured %s, want %s", got, want)
	}

	cfg.RFSignal = &got
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.RFSignal == nil || *loaded.RFSignal != want {
		t.Fatalf("reloaded rf_signal %v", loaded.RFSignal)
	}

	em := gpio.NewFakeEmitter()
	sender := replay.NewSender(rcswitch.NewTransmitter(em))
	sender.Send(*loaded.RFSignal, loaded.Replay.Repeat)
	if em.Count() != replay.DefaultRepeat || sender.Sent() != replay.DefaultRepeat {
		t.Fatalf("replay: %d emissions, %d sent", em.Count(), sender.Sent())
	}

	// What the screen's receiver hears decodes back to the stored code.
	screen := gpio.NewFakeWatcher()
	verify, err := capture.Start(screen, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	emit(screen.Line(0), em, time.Second)
	heard, err := verify.Stop()
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if heard != want {
		t.Errorf("screen heard %s, want %s", heard, want)
	}
	if n := len(verify.Readings()); n < replay.DefaultRepeat {
		t.Errorf("screen decoded %d readings, want at least %d", n, replay.DefaultRepeat)
	}
}

func TestIntegrationCaptureNothing(t *testing.T) {
	w := gpio.NewFakeWatcher()
	session, err := capture.Start(w, gpio.DefaultPinRFRx, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Line(gpio.DefaultPinRFRx).Edge(time.Second)

	if _, err := session.Stop(); !errors.Is(err, capture.ErrNoSignal) {
		t.Errorf("expected ErrNoSignal, got %v", err)
	}
}
