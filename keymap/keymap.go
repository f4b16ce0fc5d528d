// Package keymap rewrites a payload's shape prior to transport: renames,
// value transforms, and flattening of nested paths into single keys.
package keymap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c0deZ3R0/go-autosave-kit/fieldpath"
)

// Mapping describes what happens to one source path. The three descriptor
// shapes (plain rename, rename with transform, advanced) are normalized into
// this single form when the KeyMap is built, so nothing switches on shape at
// apply time.
type Mapping struct {
	// To is the target path, in dot/bracket notation.
	To string

	// Transform, if set, rewrites the value before it is written.
	Transform func(any) any

	// Flatten writes the value under a single key derived from To instead
	// of nesting along it.
	Flatten bool
}

// Rename is the simple-rename descriptor.
func Rename(to string) Mapping { return Mapping{To: to} }

// RenameWith is the rename-with-transform descriptor.
func RenameWith(to string, fn func(any) any) Mapping {
	return Mapping{To: to, Transform: fn}
}

type rule struct {
	source string
	Mapping
}

// KeyMap is a resolved, ordered set of mapping rules.
type KeyMap struct {
	rules []rule
}

// New builds a KeyMap from source-path to descriptor entries. Rules are
// ordered by source path so application is deterministic.
func New(mappings map[string]Mapping) (*KeyMap, error) {
	km := &KeyMap{rules: make([]rule, 0, len(mappings))}
	for source, m := range mappings {
		if source == "" {
			return nil, fmt.Errorf("keymap: empty source path")
		}
		if m.To == "" {
			return nil, fmt.Errorf("keymap: source %q has empty target", source)
		}
		km.rules = append(km.rules, rule{source: fieldpath.Normalize(source), Mapping: m})
	}
	sort.Slice(km.rules, func(i, j int) bool { return km.rules[i].source < km.rules[j].source })
	return km, nil
}

// FromStrings builds a KeyMap of plain renames.
func FromStrings(mappings map[string]string) (*KeyMap, error) {
	out := make(map[string]Mapping, len(mappings))
	for source, to := range mappings {
		out[source] = Rename(to)
	}
	return New(out)
}

// Validate reports every pair of source paths that map to the same target.
func (k *KeyMap) Validate() error {
	byTarget := make(map[string][]string)
	for _, r := range k.rules {
		target := fieldpath.Normalize(r.To)
		byTarget[target] = append(byTarget[target], r.source)
	}

	var collisions []string
	for target, sources := range byTarget {
		if len(sources) > 1 {
			collisions = append(collisions,
				fmt.Sprintf("target %q mapped from %s", target, strings.Join(sources, ", ")))
		}
	}
	if len(collisions) == 0 {
		return nil
	}
	sort.Strings(collisions)
	return fmt.Errorf("keymap: target collisions: %s", strings.Join(collisions, "; "))
}

// Reverse swaps source and target for every rule. Transform functions are
// not invertible and are dropped; a round-tripped payload keeps the mapped
// locations but not transformed values.
func (k *KeyMap) Reverse() (*KeyMap, error) {
	out := make(map[string]Mapping, len(k.rules))
	for _, r := range k.rules {
		out[r.To] = Rename(r.source)
	}
	return New(out)
}

// Options controls Apply.
type Options struct {
	// PreserveUnmapped starts the result as a full copy of the payload and
	// removes only the original locations of mapped fields afterwards,
	// pruning any parent object a deletion leaves empty.
	PreserveUnmapped bool

	// AutoFlatten flattens every mapping as if Mapping.Flatten were set.
	AutoFlatten bool

	// FlattenSeparator joins target path segments when flattening.
	// Defaults to "_".
	FlattenSeparator string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() *Options {
	return &Options{PreserveUnmapped: true, FlattenSeparator: "_"}
}

func (o *Options) normalized() *Options {
	if o == nil {
		return DefaultOptions()
	}
	out := *o
	if out.FlattenSeparator == "" {
		out.FlattenSeparator = "_"
	}
	return &out
}

// Apply reshapes a payload according to the key map. The input payload is
// never mutated.
func (k *KeyMap) Apply(payload map[string]any, opts *Options) map[string]any {
	o := opts.normalized()

	var result map[string]any
	if o.PreserveUnmapped {
		result = deepCopy(payload)
	} else {
		result = make(map[string]any)
	}

	for _, r := range k.rules {
		value, ok := fieldpath.Get(payload, r.source)
		if !ok {
			continue
		}
		if r.Transform != nil {
			value = r.Transform(value)
		}

		if r.Flatten || o.AutoFlatten {
			result[flatKey(r.To, o.FlattenSeparator)] = value
		} else {
			fieldpath.Set(result, r.To, value)
		}

		if o.PreserveUnmapped {
			fieldpath.Delete(result, r.source)
			pruneEmptyParents(result, r.source)
		}
	}

	return result
}

// flatKey renders a target path as a single key, path separators replaced
// by sep: "meta.audit.by" -> "meta_audit_by", "tags[0]" -> "tags_0".
func flatKey(path, sep string) string {
	segs := fieldpath.Parse(path)
	parts := make([]string, len(segs))
	for i, s := range segs {
		if s.IsIndex {
			parts[i] = fmt.Sprintf("%d", s.Index)
		} else {
			parts[i] = s.Key
		}
	}
	return strings.Join(parts, sep)
}

// pruneEmptyParents removes every ancestor object of path that a deletion
// left empty, from the deepest up.
func pruneEmptyParents(root map[string]any, path string) {
	segs := fieldpath.Parse(path)
	for i := len(segs) - 1; i > 0; i-- {
		parentPath := fieldpath.Join(segs[:i])
		parent, ok := fieldpath.Get(root, parentPath)
		if !ok {
			continue
		}
		m, isMap := parent.(map[string]any)
		if !isMap || len(m) > 0 {
			return
		}
		fieldpath.Delete(root, parentPath)
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
