package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	obj := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1},
			"d": 2,
		},
		"top":  "level",
		"list": []any{1, 2, 3},
	}

	got := Flatten(obj, "_")

	assert.Equal(t, map[string]any{
		"a_b_c": 1,
		"a_d":   2,
		"top":   "level",
		"list":  []any{1, 2, 3}, // arrays are leaves
	}, got)
}

func TestFlatten_DefaultSeparator(t *testing.T) {
	got := Flatten(map[string]any{"a": map[string]any{"b": 1}}, "")
	assert.Equal(t, map[string]any{"a_b": 1}, got)
}

func TestUnflatten(t *testing.T) {
	flat := map[string]any{
		"a_b_c": 1,
		"a_d":   2,
		"top":   "level",
	}

	got := Unflatten(flat, "_")

	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1},
			"d": 2,
		},
		"top": "level",
	}, got)
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	obj := map[string]any{
		"user": map[string]any{
			"name":    "Jane",
			"address": map[string]any{"city": "Oslo"},
		},
		"version": 3,
	}

	assert.Equal(t, obj, Unflatten(Flatten(obj, "."), "."))
}
