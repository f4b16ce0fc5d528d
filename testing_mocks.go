package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/fieldpath"
)

// Mock types for testing

// manualClock is a test clock whose time only moves through Advance.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{
		clock:    c,
		deadline: c.now.Add(d),
		ch:       make(chan time.Time, 1),
	}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Sleep(ctx context.Context, d time.Duration) error {
	t := c.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Advance moves time forward and fires every timer whose deadline passed.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*manualTimer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if t.stopped {
			continue
		}
		if !t.deadline.After(now) {
			due = append(due, t)
			continue
		}
		remaining = append(remaining, t)
	}
	c.timers = remaining
	c.mu.Unlock()

	for _, t := range due {
		t.ch <- now
	}
}

type manualTimer struct {
	clock    *manualClock
	deadline time.Time
	ch       chan time.Time
	stopped  bool
}

func (t *manualTimer) C() <-chan time.Time { return t.ch }

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

// recordingTransport captures every payload it is asked to save and replies
// from a scripted outcome queue. Once the queue is exhausted it succeeds.
type recordingTransport struct {
	mu       sync.Mutex
	payloads []Payload
	contexts []*SaveContext
	script   []scriptedOutcome
}

type scriptedOutcome struct {
	result *SaveResult
	err    error
}

func (t *recordingTransport) failNext(n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < n; i++ {
		t.script = append(t.script, scriptedOutcome{result: Failure(err)})
	}
}

func (t *recordingTransport) Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.payloads = append(t.payloads, payload)
	t.contexts = append(t.contexts, sc)
	if len(t.script) > 0 {
		out := t.script[0]
		t.script = t.script[1:]
		return out.result, out.err
	}
	return Success("v1"), nil
}

func (t *recordingTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.payloads)
}

func (t *recordingTransport) lastPayload() Payload {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.payloads) == 0 {
		return nil
	}
	return t.payloads[len(t.payloads)-1]
}

// blockingTransport parks every save until released, so tests can hold a
// save in flight.
type blockingTransport struct {
	entered chan struct{}
	release chan struct{}
	inner   Transport
}

func newBlockingTransport(inner Transport) *blockingTransport {
	return &blockingTransport{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
		inner:   inner,
	}
}

func (t *blockingTransport) Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
	t.entered <- struct{}{}
	select {
	case <-t.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return t.inner.Save(ctx, payload, sc)
}

// mapSource is an in-memory ValueSource backed by a nested map.
type mapSource struct {
	mu     sync.Mutex
	values map[string]any
}

func newMapSource(values map[string]any) *mapSource {
	if values == nil {
		values = make(map[string]any)
	}
	return &mapSource{values: values}
}

func (s *mapSource) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTree(s.values)
}

func (s *mapSource) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fieldpath.Set(s.values, path, value)
	return nil
}

func copyTree(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyTreeValue(v)
	}
	return out
}

func copyTreeValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return copyTree(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = copyTreeValue(e)
		}
		return out
	default:
		return v
	}
}
