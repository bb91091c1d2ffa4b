package codebook

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/screen-remote/internal/logic"
)

func u32(v uint32) *uint32 { return &v }

func TestBookLookup(t *testing.T) {
	b := FromCodes(map[string]*uint32{
		"1":         u32(111),
		"2":         u32(222),
		ActionPower: nil,
	})

	if got, ok := b.Lookup(111); !ok || got != "1" {
		t.Errorf("111: got %q/%v, want %q", got, ok, "1")
	}
	if _, ok := b.Lookup(333); ok {
		t.Error("unlearned fingerprint should not resolve")
	}
	if b.Len() != 2 {
		t.Errorf("expected 2 learned actions, got %d", b.Len())
	}
	if _, ok := b.Fingerprint(ActionPower); ok {
		t.Error("nil entry should be unlearned")
	}
}

func TestBookAssignLastWriterWins(t *testing.T) {
	b := New()
	b.Assign("1", 111)
	b.Assign("2", 111)

	if got, _ := b.Lookup(111); got != "2" {
		t.Errorf("got %q, want %q", got, "2")
	}
	if _, ok := b.Fingerprint("1"); ok {
		t.Error("1 should have lost its fingerprint")
	}

	b.Assign("2", 222)
	if _, ok := b.Lookup(111); ok {
		t.Error("old fingerprint should be unbound after relearn")
	}
}

func TestBookCodes(t *testing.T) {
	b := New()
	b.Assign(ActionPower, 7)

	codes := b.Codes(DefaultActions...)
	if len(codes) != len(DefaultActions) {
		t.Fatalf("got %d entries, want %d", len(codes), len(DefaultActions))
	}
	if codes[ActionPower] == nil || *codes[ActionPower] != 7 {
		t.Errorf("power: got %v, want 7", codes[ActionPower])
	}
	if codes["1"] != nil {
		t.Error("1 should be nil")
	}
}

func TestBookForget(t *testing.T) {
	b := New()
	b.Assign(ActionPower, 7)
	b.Forget(ActionPower)
	if _, ok := b.Lookup(7); ok {
		t.Error("forgotten fingerprint should not resolve")
	}
}

type fakeSource struct {
	mu      sync.Mutex
	pending []logic.Fingerprint
	calls   int
}

func (s *fakeSource) RawHash() (logic.Fingerprint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.pending) == 0 {
		return 0, false
	}
	fp := s.pending[0]
	s.pending = s.pending[1:]
	return fp, true
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func TestLearnThenLookup(t *testing.T) {
	src := &fakeSource{pending: []logic.Fingerprint{0xCAFE}}
	book := New()
	l := NewLearner(src, book)
	l.sleep = noSleep

	fp, err := l.Learn(context.Background(), ActionPower)
	if err != nil {
		t.Fatal(err)
	}
	if fp != 0xCAFE {
		t.Errorf("got %d, want %d", fp, 0xCAFE)
	}
	if got, ok := book.Lookup(0xCAFE); !ok || got != ActionPower {
		t.Errorf("lookup: got %q/%v, want power", got, ok)
	}
	if _, ok := book.Lookup(0xBEEF); ok {
		t.Error("unlearned fingerprint should be unrecognized")
	}
}

func TestLearnDrainsTrailingRepeat(t *testing.T) {
	src := &fakeSource{pending: []logic.Fingerprint{1, 1, 2}}
	book := New()
	l := NewLearner(src, book)
	l.sleep = noSleep

	if _, err := l.Learn(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	fp, err := l.Learn(context.Background(), "2")
	if err != nil {
		t.Fatal(err)
	}
	if fp != 2 {
		t.Errorf("second prompt captured %d, want 2", fp)
	}
}

func TestLearnWaitsForFingerprint(t *testing.T) {
	src := &fakeSource{}
	book := New()
	l := NewLearner(src, book)
	polls := 0
	l.sleep = func(ctx context.Context, d time.Duration) error {
		if d == l.Poll {
			polls++
			if polls == 3 {
				src.mu.Lock()
				src.pending = append(src.pending, 9)
				src.mu.Unlock()
			}
		}
		return nil
	}

	fp, err := l.Learn(context.Background(), "3")
	if err != nil {
		t.Fatal(err)
	}
	if fp != 9 || polls != 3 {
		t.Errorf("got fp=%d after %d polls, want 9 after 3", fp, polls)
	}
}

func TestLearnCancelled(t *testing.T) {
	src := &fakeSource{}
	l := NewLearner(src, New())
	l.Poll = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Learn(ctx, ActionPower)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
