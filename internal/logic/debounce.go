package logic

import "time"

// Debouncer suppresses repeats of the same fingerprint within a window.
// A held button repeats its frame every ~100ms; a deliberate re-press
// after the window surfaces again.
type Debouncer struct {
	window time.Duration
	last   Fingerprint
	lastAt time.Time
	seen   bool
}

// NewDebouncer creates a Debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Accept reports whether fp observed at now should surface. State is
// updated only when it does.
func (d *Debouncer) Accept(fp Fingerprint, now time.Time) bool {
	if d.seen && fp == d.last && now.Sub(d.lastAt) <= d.window {
		return false
	}
	d.last = fp
	d.lastAt = now
	d.seen = true
	return true
}

// Last returns the last surfaced fingerprint and when it surfaced.
func (d *Debouncer) Last() (Fingerprint, time.Time, bool) {
	return d.last, d.lastAt, d.seen
}
