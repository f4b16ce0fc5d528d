// Package diff compares array snapshots of identity-keyed records and
// classifies items as added, removed, modified or reordered.
package diff

import (
	"fmt"
	"reflect"

	"github.com/c0deZ3R0/go-autosave-kit/fieldpath"
)

// Options controls array comparison. Use DefaultOptions as the starting
// point; the zero value disables field-change tracking.
type Options struct {
	// IdentityKey is the record field used to match items across the two
	// snapshots. Defaults to "id".
	IdentityKey string

	// TrackFieldChanges computes a per-field before/after map for each
	// modified item.
	TrackFieldChanges bool

	// TrackOrder additionally reports items whose index moved between the
	// snapshots. Reordering alone never sets HasChanges.
	TrackOrder bool

	// Equal is the deep-equality predicate. Defaults to reflect.DeepEqual.
	Equal func(a, b any) bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() *Options {
	return &Options{
		IdentityKey:       "id",
		TrackFieldChanges: true,
	}
}

func (o *Options) normalized() *Options {
	if o == nil {
		o = DefaultOptions()
	}
	out := *o
	if out.IdentityKey == "" {
		out.IdentityKey = "id"
	}
	if out.Equal == nil {
		out.Equal = reflect.DeepEqual
	}
	return &out
}

// FieldChange is one field's before/after pair inside a modified item.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// Modification pairs the old and new variants of one item, optionally with
// the per-field delta.
type Modification struct {
	Before  map[string]any         `json:"before"`
	After   map[string]any         `json:"after"`
	Changes map[string]FieldChange `json:"changes,omitempty"`
}

// Move records an item whose index differs between the snapshots.
type Move struct {
	Identity string `json:"identity"`
	OldIndex int    `json:"old_index"`
	NewIndex int    `json:"new_index"`
}

// Result is the classified outcome of an array comparison.
type Result struct {
	Added      []map[string]any `json:"added,omitempty"`
	Removed    []map[string]any `json:"removed,omitempty"`
	Modified   []Modification   `json:"modified,omitempty"`
	Reordered  []Move           `json:"reordered,omitempty"`
	HasChanges bool             `json:"has_changes"`
}

type indexedItem struct {
	item  map[string]any
	index int
}

// Arrays compares two array snapshots by identity key. Items present only
// in newItems are added, only in oldItems removed, in both but not
// deep-equal modified. nil opts means DefaultOptions.
func Arrays(oldItems, newItems []any, opts *Options) Result {
	o := opts.normalized()

	oldByID := indexByIdentity(oldItems, o.IdentityKey)
	newByID := indexByIdentity(newItems, o.IdentityKey)

	var result Result

	// Walk the new snapshot in order so Added/Modified keep its ordering.
	for _, raw := range newItems {
		item, id, ok := identify(raw, o.IdentityKey)
		if !ok {
			continue
		}
		old, existed := oldByID[id]
		if !existed {
			result.Added = append(result.Added, item)
			continue
		}
		if !o.Equal(old.item, item) {
			mod := Modification{Before: old.item, After: item}
			if o.TrackFieldChanges {
				mod.Changes = fieldChanges(old.item, item, o.Equal)
			}
			result.Modified = append(result.Modified, mod)
		}
	}

	for _, raw := range oldItems {
		item, id, ok := identify(raw, o.IdentityKey)
		if !ok {
			continue
		}
		if _, still := newByID[id]; !still {
			result.Removed = append(result.Removed, item)
		}
	}

	if o.TrackOrder {
		for _, raw := range newItems {
			_, id, ok := identify(raw, o.IdentityKey)
			if !ok {
				continue
			}
			old, existed := oldByID[id]
			if existed && old.index != newByID[id].index {
				result.Reordered = append(result.Reordered, Move{
					Identity: id,
					OldIndex: old.index,
					NewIndex: newByID[id].index,
				})
			}
		}
	}

	result.HasChanges = len(result.Added) > 0 || len(result.Removed) > 0 || len(result.Modified) > 0
	return result
}

func indexByIdentity(items []any, key string) map[string]indexedItem {
	out := make(map[string]indexedItem, len(items))
	for i, raw := range items {
		item, id, ok := identify(raw, key)
		if !ok {
			continue
		}
		out[id] = indexedItem{item: item, index: i}
	}
	return out
}

func identify(raw any, key string) (map[string]any, string, bool) {
	item, ok := raw.(map[string]any)
	if !ok {
		return nil, "", false
	}
	id, ok := item[key]
	if !ok {
		return nil, "", false
	}
	return item, fmt.Sprintf("%v", id), true
}

func fieldChanges(before, after map[string]any, equal func(a, b any) bool) map[string]FieldChange {
	changes := make(map[string]FieldChange)

	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	for k := range keys {
		b, a := before[k], after[k]
		if !equal(b, a) {
			changes[k] = FieldChange{Before: b, After: a}
		}
	}

	if len(changes) == 0 {
		return nil
	}
	return changes
}

// DetectNestedChanges applies Arrays at each given path inside two larger
// structures. Paths where either side is not array-typed are skipped; only
// paths with actual changes appear in the returned map.
func DetectNestedChanges(oldObj, newObj map[string]any, arrayPaths []string, opts *Options) map[string]Result {
	results := make(map[string]Result)

	for _, path := range arrayPaths {
		oldRaw, _ := fieldpath.Get(oldObj, path)
		newRaw, _ := fieldpath.Get(newObj, path)

		oldArr, oldOK := oldRaw.([]any)
		newArr, newOK := newRaw.([]any)
		if !oldOK || !newOK {
			continue
		}

		if r := Arrays(oldArr, newArr, opts); r.HasChanges {
			results[path] = r
		}
	}

	return results
}

// Apply reconstructs a new array from an old one plus a diff: removals by
// identity key first, then modified items replaced in place, then added
// items appended. Original ordering is not reproduced.
func Apply(oldItems []any, r Result, opts *Options) []any {
	o := opts.normalized()

	removed := make(map[string]struct{}, len(r.Removed))
	for _, item := range r.Removed {
		if id, ok := item[o.IdentityKey]; ok {
			removed[fmt.Sprintf("%v", id)] = struct{}{}
		}
	}

	replaced := make(map[string]map[string]any, len(r.Modified))
	for _, mod := range r.Modified {
		if id, ok := mod.After[o.IdentityKey]; ok {
			replaced[fmt.Sprintf("%v", id)] = mod.After
		}
	}

	out := make([]any, 0, len(oldItems)+len(r.Added))
	for _, raw := range oldItems {
		item, id, ok := identify(raw, o.IdentityKey)
		if !ok {
			out = append(out, raw)
			continue
		}
		if _, gone := removed[id]; gone {
			continue
		}
		if after, ok := replaced[id]; ok {
			out = append(out, after)
			continue
		}
		out = append(out, item)
	}

	for _, item := range r.Added {
		out = append(out, item)
	}

	return out
}
