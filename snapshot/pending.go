package snapshot

import (
	"reflect"
	"sort"
	"sync"
)

// EqualFn is the deep-equality predicate used for divergence checks.
type EqualFn func(a, b any) bool

// IsPending reports whether current diverges from the baseline value at
// path. A nil equal falls back to reflect.DeepEqual.
func IsPending(b *Baseline, path string, current any, equal EqualFn) bool {
	if equal == nil {
		equal = reflect.DeepEqual
	}
	baseline, _ := b.Get(path)
	return !equal(current, baseline)
}

// PendingSet tracks the field paths whose live value currently differs from
// a baseline. Membership is recomputed on every reconcile, never append-only:
// a field edited back to its baseline value leaves the set.
type PendingSet struct {
	mu    sync.RWMutex
	paths map[string]struct{}
	equal EqualFn
}

// NewPendingSet creates an empty set. equal may be nil for DeepEqual.
func NewPendingSet(equal EqualFn) *PendingSet {
	if equal == nil {
		equal = reflect.DeepEqual
	}
	return &PendingSet{paths: make(map[string]struct{}), equal: equal}
}

// Reconcile adds path if current diverges from the baseline, removes it
// otherwise, and reports the resulting pending state.
func (p *PendingSet) Reconcile(b *Baseline, path string, current any) bool {
	pending := IsPending(b, path, current, p.equal)

	p.mu.Lock()
	defer p.mu.Unlock()
	if pending {
		p.paths[path] = struct{}{}
	} else {
		delete(p.paths, path)
	}
	return pending
}

// Has reports whether path is currently pending.
func (p *PendingSet) Has(path string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.paths[path]
	return ok
}

// Paths returns the pending paths in sorted order.
func (p *PendingSet) Paths() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.paths))
	for path := range p.paths {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of pending paths.
func (p *PendingSet) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.paths)
}

// Remove drops specific paths, e.g. after a successful save adopted them.
func (p *PendingSet) Remove(paths ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, path := range paths {
		delete(p.paths, path)
	}
}

// Clear empties the set, e.g. on an explicit baseline reset.
func (p *PendingSet) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = make(map[string]struct{})
}
