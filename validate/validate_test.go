package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
)

func TestValidator_AcceptsValidPayload(t *testing.T) {
	check := Validator(Rules{
		"title": "required",
		"email": "required,email",
	})

	err := check(map[string]any{
		"title": "Draft",
		"email": "ada@example.com",
	})
	assert.NoError(t, err)
}

func TestValidator_ReportsViolations(t *testing.T) {
	check := Validator(Rules{
		"title": "required",
		"email": "required,email",
	})

	err := check(map[string]any{
		"title": "",
		"email": "not-an-email",
	})
	require.Error(t, err)
	assert.True(t, saveErrors.IsValidation(err))
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "title")
}

func TestValidator_NestedRules(t *testing.T) {
	check := Validator(Rules{
		"profile": Rules{
			"firstName": "required",
		},
	})

	err := check(map[string]any{
		"profile": map[string]any{"firstName": ""},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile.firstName")

	err = check(map[string]any{
		"profile": map[string]any{"firstName": "Jane"},
	})
	assert.NoError(t, err)
}

func TestValidator_StableMessageOrder(t *testing.T) {
	check := Validator(Rules{
		"a": "required",
		"b": "required",
	})

	payload := map[string]any{"a": "", "b": ""}
	first := check(payload).Error()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, check(payload).Error())
	}
}
