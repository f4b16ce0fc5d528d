// Package journal records settled save attempts for inspection and
// debugging. Implementations range from a bounded in-memory ring to a
// SQLite-backed store.
package journal

import (
	"context"
	"sync"
	"time"
)

// Attempt is one settled save cycle as seen by the engine.
type Attempt struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Trigger    string    `json:"trigger"`
	Paths      []string  `json:"paths,omitempty"`
	OK         bool      `json:"ok"`
	Version    string    `json:"version,omitempty"`
	Error      string    `json:"error,omitempty"`
	Code       string    `json:"code,omitempty"`
	DurationNS int64     `json:"duration_ns"`
}

// Criteria filters journal queries. Zero values mean "no constraint".
type Criteria struct {
	// Since keeps attempts at or after this time.
	Since time.Time

	// OnlyFailures keeps attempts with OK == false.
	OnlyFailures bool

	// Trigger keeps attempts with a matching trigger ("debounce", "flush").
	Trigger string

	// Limit caps the number of returned attempts, newest first. Zero
	// means no cap.
	Limit int
}

// Journal stores save attempts.
type Journal interface {
	// Record appends one attempt.
	Record(ctx context.Context, attempt Attempt) error

	// List returns attempts matching the criteria, newest first.
	List(ctx context.Context, criteria Criteria) ([]Attempt, error)

	// Prune drops attempts older than the cutoff, returning how many were
	// removed.
	Prune(ctx context.Context, before time.Time) (int, error)

	// Close releases any backing resources.
	Close() error
}

// InMemory is a bounded in-memory journal. When the bound is reached the
// oldest attempt is dropped. It is safe for concurrent use.
type InMemory struct {
	mu       sync.RWMutex
	attempts []Attempt
	max      int
}

// NewInMemory creates an in-memory journal holding at most max attempts.
// max <= 0 means 1000.
func NewInMemory(max int) *InMemory {
	if max <= 0 {
		max = 1000
	}
	return &InMemory{max: max}
}

// Record implements Journal.
func (j *InMemory) Record(ctx context.Context, attempt Attempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = append(j.attempts, attempt)
	if len(j.attempts) > j.max {
		j.attempts = j.attempts[len(j.attempts)-j.max:]
	}
	return nil
}

// List implements Journal.
func (j *InMemory) List(ctx context.Context, criteria Criteria) ([]Attempt, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []Attempt
	for i := len(j.attempts) - 1; i >= 0; i-- {
		a := j.attempts[i]
		if !matches(a, criteria) {
			continue
		}
		out = append(out, a)
		if criteria.Limit > 0 && len(out) >= criteria.Limit {
			break
		}
	}
	return out, nil
}

// Prune implements Journal.
func (j *InMemory) Prune(ctx context.Context, before time.Time) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	kept := j.attempts[:0]
	removed := 0
	for _, a := range j.attempts {
		if a.Time.Before(before) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	j.attempts = kept
	return removed, nil
}

// Close implements Journal.
func (j *InMemory) Close() error { return nil }

// Len returns the number of stored attempts.
func (j *InMemory) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.attempts)
}

func matches(a Attempt, c Criteria) bool {
	if !c.Since.IsZero() && a.Time.Before(c.Since) {
		return false
	}
	if c.OnlyFailures && a.OK {
		return false
	}
	if c.Trigger != "" && a.Trigger != c.Trigger {
		return false
	}
	return true
}
