package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []Segment
	}{
		{"empty", "", nil},
		{"single key", "a", []Segment{Key("a")}},
		{"dotted", "a.b.c", []Segment{Key("a"), Key("b"), Key("c")}},
		{"index", "a[0]", []Segment{Key("a"), Index(0)}},
		{"mixed", "a.b[2].c", []Segment{Key("a"), Key("b"), Index(2), Key("c")}},
		{"double index", "a[0][1]", []Segment{Key("a"), Index(0), Index(1)}},
		{"leading index", "[3].x", []Segment{Index(3), Key("x")}},
		{"trailing dot ignored", "a.b.", []Segment{Key("a"), Key("b")}},
		{"bracket key kept", "a[foo]", []Segment{Key("a"), Key("foo")}},
		{"negative index is a key", "a[-1]", []Segment{Key("a"), Key("-1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.path))
		})
	}
}

func TestJoinParseRoundTrip(t *testing.T) {
	// Join(Parse(p)) must equal Normalize(p) for every valid path.
	paths := []string{
		"",
		"a",
		"a.b.c",
		"a.b[2].c",
		"items[0].tags[3]",
		"[0].x",
		"a.b.",
		"profile.firstName",
	}

	for _, p := range paths {
		assert.Equal(t, Normalize(p), Join(Parse(p)), "path %q", p)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a.b[2].c", Join([]Segment{Key("a"), Key("b"), Index(2), Key("c")}))
	assert.Equal(t, "[0].x", Join([]Segment{Index(0), Key("x")}))
	assert.Equal(t, "", Join(nil))
}

func TestIsParent(t *testing.T) {
	assert.True(t, IsParent("a", "a.b"))
	assert.True(t, IsParent("a.b", "a.b[0].c"))
	assert.True(t, IsParent("", "a"), "empty path is parent of everything")
	assert.False(t, IsParent("a.b", "a.b"), "a path is never its own parent")
	assert.False(t, IsParent("a.b", "a"))
	assert.False(t, IsParent("a.c", "a.b.d"))
	assert.True(t, IsChild("a.b", "a"))
	assert.False(t, IsChild("a", "a.b"))
}

func TestGetSet(t *testing.T) {
	root := map[string]any{}

	Set(root, "a.b[1].c", 42)
	got, ok := Get(root, "a.b[1].c")
	require.True(t, ok)
	assert.Equal(t, 42, got)

	// Set/get round-trip on arbitrary paths.
	cases := map[string]any{
		"x":            "v",
		"deep.n.e.s.t": []any{1, 2},
		"arr[0]":       "first",
		"arr[2]":       "third",
	}
	for p, v := range cases {
		Set(root, p, v)
		got, ok := Get(root, p)
		require.True(t, ok, "path %q", p)
		assert.Equal(t, v, got, "path %q", p)
	}

	// Intermediate slice grown with nils.
	got, ok = Get(root, "arr[1]")
	require.True(t, ok)
	assert.Nil(t, got)
}

func TestGet_MissingIntermediate(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 1}}

	_, ok := Get(root, "a.x.y")
	assert.False(t, ok, "missing intermediate returns not-found")

	_, ok = Get(root, "a.b.c")
	assert.False(t, ok, "descending through a leaf returns not-found")

	_, ok = Get(root, "a[0]")
	assert.False(t, ok, "index into a map returns not-found")
}

func TestHas(t *testing.T) {
	root := map[string]any{
		"present": nil,
		"nested":  map[string]any{"empty": nil},
		"list":    []any{"a", nil},
	}

	assert.True(t, Has(root, "present"), "explicit nil still counts as present")
	assert.True(t, Has(root, "nested.empty"))
	assert.True(t, Has(root, "list[1]"))
	assert.False(t, Has(root, "absent"))
	assert.False(t, Has(root, "list[5]"))
	assert.False(t, Has(root, "nested.missing"))
}

func TestDelete(t *testing.T) {
	root := map[string]any{
		"a": map[string]any{"b": 1, "c": 2},
		"l": []any{"x", "y", "z"},
	}

	assert.True(t, Delete(root, "a.b"))
	assert.False(t, Has(root, "a.b"))
	assert.True(t, Has(root, "a.c"), "sibling untouched")

	assert.False(t, Delete(root, "a.b"), "second delete reports absence")

	// Slice deletes splice the element out.
	assert.True(t, Delete(root, "l[1]"))
	assert.Equal(t, []any{"x", "z"}, root["l"])

	assert.False(t, Delete(root, "l[9]"))
}

func TestAllPaths(t *testing.T) {
	root := map[string]any{
		"a": map[string]any{
			"b": 1,
		},
		"list": []any{
			map[string]any{"id": 1},
		},
	}

	got := AllPaths(root, AllPathsOptions{})
	assert.Equal(t, []string{"a", "a.b", "list[0]", "list[0].id"}, got)

	got = AllPaths(root, AllPathsOptions{IncludeArrays: true})
	assert.Equal(t, []string{"a", "a.b", "list", "list[0]", "list[0].id"}, got)
}

func TestCloneAlong(t *testing.T) {
	shared := map[string]any{"untouched": true}
	inner := map[string]any{"x": 1}
	root := map[string]any{
		"a":       map[string]any{"b": inner},
		"sibling": shared,
	}

	clone := CloneAlong(root, "a.b")

	// Containers along the path are fresh copies.
	cloneA := clone["a"].(map[string]any)
	require.NotNil(t, cloneA)
	cloneB := cloneA["b"].(map[string]any)
	cloneB["x"] = 99
	assert.Equal(t, 1, inner["x"], "original must not see writes through the clone")

	// Siblings remain shared references.
	clone["sibling"].(map[string]any)["untouched"] = false
	assert.False(t, shared["untouched"].(bool), "sibling containers are shared")
}
