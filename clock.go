package autosave

import (
	"context"
	"time"
)

// Clock abstracts wall time and timer creation so debounce and backoff
// behavior can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer

	// Sleep blocks for d or until ctx is canceled, returning ctx.Err()
	// in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Timer is the subset of time.Timer the engine needs.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

type realClock struct{}

// NewRealClock returns a Clock backed by the time package. It is the
// default for managers built without an explicit clock.
func NewRealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer {
	return realTimer{t: time.NewTimer(d)}
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type realTimer struct {
	t *time.Timer
}

func (rt realTimer) C() <-chan time.Time { return rt.t.C }
func (rt realTimer) Stop() bool          { return rt.t.Stop() }
