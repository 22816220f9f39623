package validator_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("all rules pass", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.RequiredString("email", "jane@example.com"),
			validator.ValidEmail("email", "jane@example.com"),
		)
		assert.NoError(t, err)
	})

	t.Run("first failure per field only", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.RequiredString("email", ""),
			validator.ValidEmail("email", ""),
			validator.RequiredString("template_name", " "),
		)
		require.Error(t, err)

		ve := validator.ExtractValidationErrors(err)
		require.Len(t, ve, 2)
		assert.Equal(t, map[string][]string{
			"email":         {"field is required"},
			"template_name": {"field is required"},
		}, ve.Map())
	})

	t.Run("wrapped errors are still detected", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("create contact: %w", validator.NewError("email", "bad"))
		assert.True(t, validator.IsValidationError(err))
		assert.False(t, validator.IsValidationError(errors.New("plain")))
	})
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"no-at-sign.example.com", false},
		{"user@nodot", false},
		{"has space@example.com", false},
		{"@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, validator.IsEmail(tt.email))
			assert.Equal(t, tt.valid, validator.Apply(validator.ValidEmail("email", tt.email)) == nil)
		})
	}
}

func TestRules(t *testing.T) {
	t.Parallel()

	statuses := []string{"subscribed", "unsubscribed", "pending"}

	tests := []struct {
		name  string
		rule  validator.Rule
		valid bool
	}{
		{"in list", validator.InListString("status", "pending", statuses), true},
		{"not in list", validator.InListString("status", "bounced", statuses), false},
		{"future date", validator.FutureDate("scheduledDate", time.Now().Add(time.Hour)), true},
		{"past date", validator.FutureDate("scheduledDate", time.Now().Add(-time.Hour)), false},
		{"zero time", validator.RequiredTime("scheduledDate", time.Time{}), false},
		{"url", validator.ValidURL("preview_image", "https://cdn.example.com/a.png"), true},
		{"not url", validator.ValidURL("preview_image", "cdn/a.png"), false},
		{"max len", validator.MaxLenString("prompt", "héllo", 5), true},
		{"too long", validator.MaxLenString("prompt", "hello!", 5), false},
		{"empty slice", validator.RequiredSlice[string]("ids", nil), false},
		{"max num", validator.MaxNum("batch", 10, 50), true},
		{"when skips", validator.When(false, validator.ValidURL("u", "bad")), true},
		{"when applies", validator.When(true, validator.ValidURL("u", "bad")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.rule.Check())
		})
	}
}

func TestWithMessage(t *testing.T) {
	t.Parallel()
	err := validator.Apply(validator.WithMessage(validator.RequiredString("email", ""), "Email is required"))
	assert.Equal(t, "validation failed: email: Email is required", err.Error())
}
