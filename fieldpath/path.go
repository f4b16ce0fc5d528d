// Package fieldpath addresses locations inside nested map/slice structures
// using dot and bracket notation, e.g. "profile.addresses[2].city".
package fieldpath

import (
	"strconv"
	"strings"
)

// Segment is one step of a parsed path: either a map key or a slice index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a key segment.
func Key(k string) Segment { return Segment{Key: k} }

// Index returns an index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

// Parse splits a path string into segments. Dot separators delimit keys,
// bracketed non-negative integers are indexes: "a.b[0].c" -> [a b 0 c].
// An empty string parses to no segments. Trailing separators are ignored.
// Bracket content that is not a non-negative integer is kept as a key.
func Parse(path string) []Segment {
	if path == "" {
		return nil
	}

	var segs []Segment
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			segs = append(segs, Segment{Key: buf.String()})
			buf.Reset()
		}
	}

	for i := 0; i < len(path); {
		switch path[i] {
		case '.':
			flush()
			i++
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				// Unterminated bracket: treat the remainder as a key.
				buf.WriteString(path[i:])
				i = len(path)
				break
			}
			inner := path[i+1 : i+end]
			if n, err := strconv.Atoi(inner); err == nil && n >= 0 {
				segs = append(segs, Segment{Index: n, IsIndex: true})
			} else if inner != "" {
				segs = append(segs, Segment{Key: inner})
			}
			i += end + 1
		default:
			buf.WriteByte(path[i])
			i++
		}
	}
	flush()

	return segs
}

// Join renders segments back into path notation. Index segments append
// "[n]" to the preceding element; key segments are dot-separated.
// Join(Parse(p)) == Normalize(p) for every valid p.
func Join(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// Normalize parses and re-joins a path, producing its canonical form.
func Normalize(path string) string {
	return Join(Parse(path))
}

// IsParent reports whether parent strictly prefixes child. A path is never
// its own parent; the empty path is parent of every non-empty path.
func IsParent(parent, child string) bool {
	p := Parse(parent)
	c := Parse(child)
	if len(p) >= len(c) {
		return false
	}
	for i := range p {
		if p[i] != c[i] {
			return false
		}
	}
	return true
}

// IsChild is the inverse relation of IsParent.
func IsChild(child, parent string) bool {
	return IsParent(parent, child)
}
