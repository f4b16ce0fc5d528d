// Package snapshot owns the baseline value snapshot an autosave cycle
// compares against, plus the set of field paths currently diverging from it.
// The baseline is explicit, versioned state passed around by its owner; there
// is no ambient global snapshot.
package snapshot

import (
	"sync"

	"github.com/c0deZ3R0/go-autosave-kit/fieldpath"
)

// Baseline is the last value snapshot considered fully saved. Every
// replacement or merge bumps a monotonic version so dependents can detect
// staleness.
type Baseline struct {
	mu      sync.RWMutex
	version uint64
	values  map[string]any
}

// New creates a baseline from an initial snapshot. The input is deep-copied;
// later caller mutations do not leak in.
func New(values map[string]any) *Baseline {
	return &Baseline{version: 1, values: deepCopy(values)}
}

// Version returns the current baseline version.
func (b *Baseline) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Get returns the baseline value at path.
func (b *Baseline) Get(path string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fieldpath.Get(b.values, path)
}

// Values returns a deep copy of the whole baseline snapshot.
func (b *Baseline) Values() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return deepCopy(b.values)
}

// Replace swaps in a whole new snapshot (form load or explicit reset) and
// bumps the version.
func (b *Baseline) Replace(values map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values = deepCopy(values)
	b.version++
}

// MergePayload folds a successfully saved payload into the baseline: only
// the fields actually sent are adopted, so values dirtied while the save was
// in flight keep diverging. Nested objects merge recursively; arrays and
// scalars are replaced wholesale.
func (b *Baseline) MergePayload(payload map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	deepMerge(b.values, payload)
	b.version++
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				deepMerge(dv, sv)
				continue
			}
		}
		dst[k] = deepCopyValue(v)
	}
}

func deepCopy(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = deepCopyValue(val)
	}
	return out
}

func deepCopyValue(v any) any {
	switch c := v.(type) {
	case map[string]any:
		return deepCopy(c)
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			out[i] = deepCopyValue(e)
		}
		return out
	}
	return v
}
