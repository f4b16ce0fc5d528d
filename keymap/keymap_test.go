package keymap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_SimpleRenameWithPrune(t *testing.T) {
	km, err := FromStrings(map[string]string{"profile.firstName": "first_name"})
	require.NoError(t, err)

	payload := map[string]any{
		"profile": map[string]any{"firstName": "Jane"},
	}

	got := km.Apply(payload, nil)

	// The emptied profile object is pruned away.
	assert.Equal(t, map[string]any{"first_name": "Jane"}, got)
	// Input payload untouched.
	assert.Equal(t, "Jane", payload["profile"].(map[string]any)["firstName"])
}

func TestApply_PruneStopsAtNonEmptyParent(t *testing.T) {
	km, err := FromStrings(map[string]string{"profile.firstName": "first_name"})
	require.NoError(t, err)

	payload := map[string]any{
		"profile": map[string]any{"firstName": "Jane", "lastName": "Doe"},
	}

	got := km.Apply(payload, nil)

	assert.Equal(t, map[string]any{
		"first_name": "Jane",
		"profile":    map[string]any{"lastName": "Doe"},
	}, got)
}

func TestApply_Transform(t *testing.T) {
	km, err := New(map[string]Mapping{
		"name": RenameWith("display_name", func(v any) any {
			return strings.ToUpper(v.(string))
		}),
	})
	require.NoError(t, err)

	got := km.Apply(map[string]any{"name": "jane"}, nil)

	assert.Equal(t, map[string]any{"display_name": "JANE"}, got)
}

func TestApply_NestedTarget(t *testing.T) {
	km, err := FromStrings(map[string]string{"city": "address.city"})
	require.NoError(t, err)

	got := km.Apply(map[string]any{"city": "Oslo"}, nil)

	assert.Equal(t, map[string]any{
		"address": map[string]any{"city": "Oslo"},
	}, got)
}

func TestApply_FlattenDescriptor(t *testing.T) {
	km, err := New(map[string]Mapping{
		"audit.by": {To: "meta.audit.by", Flatten: true},
	})
	require.NoError(t, err)

	got := km.Apply(map[string]any{
		"audit": map[string]any{"by": "jane"},
	}, nil)

	assert.Equal(t, map[string]any{"meta_audit_by": "jane"}, got)
}

func TestApply_AutoFlattenWithSeparator(t *testing.T) {
	km, err := FromStrings(map[string]string{"a.b": "x.y"})
	require.NoError(t, err)

	got := km.Apply(
		map[string]any{"a": map[string]any{"b": 1}},
		&Options{PreserveUnmapped: true, AutoFlatten: true, FlattenSeparator: "-"},
	)

	assert.Equal(t, map[string]any{"x-y": 1}, got)
}

func TestApply_DropUnmapped(t *testing.T) {
	km, err := FromStrings(map[string]string{"keep": "kept"})
	require.NoError(t, err)

	got := km.Apply(
		map[string]any{"keep": 1, "drop": 2},
		&Options{PreserveUnmapped: false},
	)

	assert.Equal(t, map[string]any{"kept": 1}, got)
}

func TestApply_UndefinedSourceSkipped(t *testing.T) {
	km, err := FromStrings(map[string]string{"missing.field": "anything"})
	require.NoError(t, err)

	payload := map[string]any{"other": 1}
	got := km.Apply(payload, nil)

	assert.Equal(t, payload, got)
}

func TestReverse_DropsTransforms(t *testing.T) {
	km, err := New(map[string]Mapping{
		"firstName": RenameWith("first_name", func(v any) any { return strings.ToUpper(v.(string)) }),
		"age":       Rename("years"),
	})
	require.NoError(t, err)

	rev, err := km.Reverse()
	require.NoError(t, err)

	got := rev.Apply(map[string]any{"first_name": "JANE", "years": 30}, nil)

	// Locations swap back; the transform is lost, not inverted.
	assert.Equal(t, map[string]any{"firstName": "JANE", "age": 30}, got)
}

func TestValidate_ReportsCollisions(t *testing.T) {
	km, err := New(map[string]Mapping{
		"a": Rename("target"),
		"b": Rename("target"),
		"c": Rename("other"),
	})
	require.NoError(t, err)

	err = km.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `target "target"`)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.NotContains(t, err.Error(), `"other"`)
}

func TestValidate_CleanMap(t *testing.T) {
	km, err := FromStrings(map[string]string{"a": "x", "b": "y"})
	require.NoError(t, err)
	assert.NoError(t, km.Validate())
}

func TestNew_RejectsEmptyPaths(t *testing.T) {
	_, err := New(map[string]Mapping{"": Rename("x")})
	assert.Error(t, err)

	_, err = New(map[string]Mapping{"x": Rename("")})
	assert.Error(t, err)
}
