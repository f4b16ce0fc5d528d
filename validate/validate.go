// Package validate builds payload validators from declarative rule sets
// using go-playground/validator tags.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
)

// Rules maps field names to validator tag strings ("required,email") or to
// nested Rules for nested payload maps.
type Rules map[string]any

// Validator compiles a rule set into a payload validator. The returned
// function reports every violated rule in a single error, with fields in
// sorted order so messages are stable.
func Validator(rules Rules) func(payload map[string]any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	compiled := plainRules(rules)

	return func(payload map[string]any) error {
		violations := v.ValidateMap(payload, compiled)
		if len(violations) == 0 {
			return nil
		}
		return saveErrors.NewValidationError(saveErrors.OpValidate,
			fmt.Errorf("%s", describe(violations)))
	}
}

// plainRules rewrites nested Rules values as plain maps, which is the shape
// validator.ValidateMap recurses on.
func plainRules(rules Rules) map[string]any {
	out := make(map[string]any, len(rules))
	for field, rule := range rules {
		if nested, ok := rule.(Rules); ok {
			out[field] = plainRules(nested)
			continue
		}
		out[field] = rule
	}
	return out
}

// describe flattens the nested violation map into "field: reason" pairs.
func describe(violations map[string]any) string {
	var parts []string
	collect("", violations, &parts)
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func collect(prefix string, violations map[string]any, out *[]string) {
	for field, v := range violations {
		name := field
		if prefix != "" {
			name = prefix + "." + field
		}
		switch err := v.(type) {
		case validator.ValidationErrors:
			for _, fe := range err {
				*out = append(*out, fmt.Sprintf("%s: failed %q", name, fe.Tag()))
			}
		case map[string]any:
			collect(name, err, out)
		case error:
			*out = append(*out, fmt.Sprintf("%s: %v", name, err))
		default:
			*out = append(*out, fmt.Sprintf("%s: invalid", name))
		}
	}
}
