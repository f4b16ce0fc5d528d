package keymap

import "strings"

// Flatten recursively collapses nested objects into separator-joined keys:
// {"a":{"b":1}} -> {"a_b":1} with sep "_". Arrays are treated as leaf
// values and are not recursed into.
func Flatten(obj map[string]any, sep string) map[string]any {
	if sep == "" {
		sep = "_"
	}
	out := make(map[string]any)
	flattenInto(out, "", obj, sep)
	return out
}

func flattenInto(out map[string]any, prefix string, obj map[string]any, sep string) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + sep + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested, sep)
			continue
		}
		out[key] = v
	}
}

// Unflatten is the inverse of Flatten: separator-joined keys are expanded
// back into nested objects. A key colliding with an existing nested object
// keeps the deeper structure.
func Unflatten(flat map[string]any, sep string) map[string]any {
	if sep == "" {
		sep = "_"
	}
	out := make(map[string]any)
	for key, v := range flat {
		parts := strings.Split(key, sep)
		node := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = v
	}
	return out
}
