package fieldpath

import (
	"sort"
)

// Get traverses root along path and returns the value found. A missing
// intermediate or final segment yields (nil, false) rather than a panic.
func Get(root any, path string) (any, bool) {
	return getSegments(root, Parse(path))
}

func getSegments(node any, segs []Segment) (any, bool) {
	for _, s := range segs {
		switch c := node.(type) {
		case map[string]any:
			if s.IsIndex {
				return nil, false
			}
			v, ok := c[s.Key]
			if !ok {
				return nil, false
			}
			node = v
		case []any:
			if !s.IsIndex || s.Index >= len(c) {
				return nil, false
			}
			node = c[s.Index]
		default:
			return nil, false
		}
	}
	return node, true
}

// Has reports whether the path's final segment exists in root. A key holding
// an explicit nil still counts as present.
func Has(root any, path string) bool {
	segs := Parse(path)
	if len(segs) == 0 {
		return root != nil
	}

	parent, ok := getSegments(root, segs[:len(segs)-1])
	if !ok {
		return false
	}

	last := segs[len(segs)-1]
	switch c := parent.(type) {
	case map[string]any:
		if last.IsIndex {
			return false
		}
		_, exists := c[last.Key]
		return exists
	case []any:
		return last.IsIndex && last.Index < len(c)
	}
	return false
}

// Set writes value at path, creating intermediate containers on demand.
// A map is created for a key segment, a slice for an index segment; slices
// are grown with nils as needed. The root map must be non-nil.
func Set(root map[string]any, path string, value any) {
	segs := Parse(path)
	if len(segs) == 0 || segs[0].IsIndex {
		return
	}
	setSegments(root, segs, value)
}

func setSegments(container map[string]any, segs []Segment, value any) {
	key := segs[0].Key
	if len(segs) == 1 {
		container[key] = value
		return
	}

	next := segs[1]
	if next.IsIndex {
		slice, _ := container[key].([]any)
		container[key] = setSliceSegments(slice, segs[1:], value)
		return
	}

	child, ok := container[key].(map[string]any)
	if !ok {
		child = make(map[string]any)
		container[key] = child
	}
	setSegments(child, segs[1:], value)
}

func setSliceSegments(slice []any, segs []Segment, value any) []any {
	idx := segs[0].Index
	for len(slice) <= idx {
		slice = append(slice, nil)
	}

	if len(segs) == 1 {
		slice[idx] = value
		return slice
	}

	next := segs[1]
	if next.IsIndex {
		inner, _ := slice[idx].([]any)
		slice[idx] = setSliceSegments(inner, segs[1:], value)
		return slice
	}

	child, ok := slice[idx].(map[string]any)
	if !ok {
		child = make(map[string]any)
		slice[idx] = child
	}
	setSegments(child, segs[1:], value)
	return slice
}

// Delete removes the value at path and reports whether it existed.
// Deleting a slice element splices it out.
func Delete(root map[string]any, path string) bool {
	segs := Parse(path)
	if len(segs) == 0 || segs[0].IsIndex {
		return false
	}
	return deleteSegments(root, segs)
}

func deleteSegments(container map[string]any, segs []Segment) bool {
	key := segs[0].Key
	if len(segs) == 1 {
		_, exists := container[key]
		delete(container, key)
		return exists
	}

	next := segs[1]
	switch child := container[key].(type) {
	case map[string]any:
		if next.IsIndex {
			return false
		}
		return deleteSegments(child, segs[1:])
	case []any:
		if !next.IsIndex || next.Index >= len(child) {
			return false
		}
		if len(segs) == 2 {
			container[key] = append(child[:next.Index], child[next.Index+1:]...)
			return true
		}
		inner, ok := child[next.Index].(map[string]any)
		if !ok {
			return false
		}
		return deleteSegments(inner, segs[2:])
	}
	return false
}

// AllPathsOptions controls path enumeration.
type AllPathsOptions struct {
	// IncludeArrays emits the array container path itself in addition to
	// the element paths beneath it.
	IncludeArrays bool
}

// AllPaths enumerates every reachable path in root, container paths and
// leaf paths alike, in sorted order.
func AllPaths(root map[string]any, opts AllPathsOptions) []string {
	var paths []string
	walkPaths(root, nil, opts, &paths)
	sort.Strings(paths)
	return paths
}

func walkPaths(node any, prefix []Segment, opts AllPathsOptions, out *[]string) {
	switch c := node.(type) {
	case map[string]any:
		if len(prefix) > 0 {
			*out = append(*out, Join(prefix))
		}
		for k, v := range c {
			walkPaths(v, append(prefix, Key(k)), opts, out)
		}
	case []any:
		if len(prefix) > 0 && opts.IncludeArrays {
			*out = append(*out, Join(prefix))
		}
		for i, v := range c {
			walkPaths(v, append(prefix, Index(i)), opts, out)
		}
	default:
		if len(prefix) > 0 {
			*out = append(*out, Join(prefix))
		}
	}
}

// CloneAlong returns a copy of root where only the containers along path are
// shallow-copied; every sibling keeps its original reference. This makes
// immutable-style updates cheap for deep structures.
func CloneAlong(root map[string]any, path string) map[string]any {
	clone := make(map[string]any, len(root))
	for k, v := range root {
		clone[k] = v
	}

	segs := Parse(path)
	var node any = clone
	for _, s := range segs {
		switch c := node.(type) {
		case map[string]any:
			if s.IsIndex {
				return clone
			}
			child := c[s.Key]
			copied, ok := shallowCopy(child)
			if !ok {
				return clone
			}
			c[s.Key] = copied
			node = copied
		case []any:
			if !s.IsIndex || s.Index >= len(c) {
				return clone
			}
			copied, ok := shallowCopy(c[s.Index])
			if !ok {
				return clone
			}
			c[s.Index] = copied
			node = copied
		default:
			return clone
		}
	}
	return clone
}

func shallowCopy(v any) (any, bool) {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, val := range c {
			out[k] = val
		}
		return out, true
	case []any:
		out := make([]any, len(c))
		copy(out, c)
		return out, true
	}
	return nil, false
}
