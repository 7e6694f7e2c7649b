package validation_test

import (
	"errors"
	"testing"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	FirstName string `json:"first_name" validate:"required,alpha,min=2,max=30"`
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email"`
	Contact   string `json:"contact" validate:"required,contact"`
}

func newValidator() *validation.Validator {
	return validation.New(config.Default().Limits)
}

func TestPasswordStrength(t *testing.T) {
	v := newValidator()

	cases := map[string]bool{
		"Secret@123":        true,
		"secret@123":        false, // no uppercase
		"SECRET@123":        false, // no lowercase
		"Secret@abc":        false, // no digit
		"Secret1234":        false, // no special
		"S@1a":              false, // too short
		"Secret@1234567890": false, // too long
	}

	for pwd, ok := range cases {
		t.Run(pwd, func(t *testing.T) {
			assert.Equal(t, ok, v.PasswordProblem(pwd) == "")
		})
	}
}

func TestUsernameRule(t *testing.T) {
	v := newValidator()

	assert.Empty(t, v.UsernameProblem("john_doe1"))
	assert.Empty(t, v.UsernameProblem("jane.doe"))
	assert.Contains(t, v.UsernameProblem("ab"), "between 8 and 16")
	assert.Contains(t, v.UsernameProblem("johndoe12"), "special character")
	assert.Contains(t, v.UsernameProblem("1234567_"), "letter")
	assert.Contains(t, v.UsernameProblem("john doe_"), "spaces")
}

func TestStruct(t *testing.T) {
	v := newValidator()

	t.Run("Success - valid input", func(t *testing.T) {
		err := v.Struct(&signupInput{
			FirstName: "John",
			Username:  "john_doe1",
			Email:     "john@example.com",
			Contact:   "9876543210",
		})
		assert.NoError(t, err)
	})

	t.Run("Error - field keyed details", func(t *testing.T) {
		err := v.Struct(&signupInput{
			FirstName: "J0hn",
			Username:  "ab",
			Email:     "not-an-email",
			Contact:   "98765-43210",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrValidation))

		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "first_name must contain only letters", appErr.Details["first_name"])
		assert.Equal(t, "username must be between 8 and 16 characters", appErr.Details["username"])
		assert.Equal(t, "Enter a valid email address", appErr.Details["email"])
		assert.Equal(t, "contact must contain only digits", appErr.Details["contact"])
	})

	t.Run("Error - required", func(t *testing.T) {
		err := v.Struct(&signupInput{})
		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "username is required", appErr.Details["username"])
	})
}
