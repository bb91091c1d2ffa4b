package codebook

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/screen-remote/internal/logic"
)

// Source yields raw fingerprints, bypassing action lookup.
type Source interface {
	RawHash() (logic.Fingerprint, bool)
}

// Learning defaults.
const (
	DefaultPoll   = 10 * time.Millisecond
	DefaultSettle = 500 * time.Millisecond
)

// Learner binds the next fingerprint a Source produces to an action.
type Learner struct {
	Source Source
	Book   *Book

	// Poll is the interval between RawHash checks.
	Poll time.Duration
	// Settle is how long to wait after a capture before draining a
	// trailing repeat frame, so it does not leak into the next prompt.
	Settle time.Duration

	sleep func(context.Context, time.Duration) error
}

// NewLearner creates a Learner with default timings.
func NewLearner(src Source, book *Book) *Learner {
	return &Learner{
		Source: src,
		Book:   book,
		Poll:   DefaultPoll,
		Settle: DefaultSettle,
		sleep:  sleepCtx,
	}
}

// Learn waits for one fingerprint and assigns it to action. It returns
// ctx.Err() if ctx ends first.
func (l *Learner) Learn(ctx context.Context, action string) (logic.Fingerprint, error) {
	sleep := l.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	for {
		if fp, ok := l.Source.RawHash(); ok {
			l.Book.Assign(action, fp)
			log.Printf("learn: %s = %d", action, fp)
			if err := sleep(ctx, l.Settle); err != nil {
				return fp, nil
			}
			l.Source.RawHash()
			return fp, nil
		}
		if err := sleep(ctx, l.Poll); err != nil {
			return 0, fmt.Errorf("learn %s: %w", action, err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
