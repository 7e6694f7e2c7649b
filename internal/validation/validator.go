package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps validator/v10 with the account and survey rules.
type Validator struct {
	validate *validator.Validate
	limits   config.Limits
}

func New(limits config.Limits) *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v := &Validator{validate: validate, limits: limits}
	v.registerRules()
	return v
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return v.UsernameProblem(fl.Field().String()) == ""
	})
	v.validate.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		return v.PasswordProblem(fl.Field().String()) == ""
	})
	v.validate.RegisterValidation("contact", func(fl validator.FieldLevel) bool {
		return v.contactProblem(fl.Field().String()) == ""
	})
	v.validate.RegisterValidation("qtype", func(fl validator.FieldLevel) bool {
		return models.QuestionType(fl.Field().String()).Valid()
	})
}

// Struct validates s and returns a validation *apperror.Error keyed by json field name.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Internal("validation failed", err)
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := details[fe.Field()]; seen {
			continue
		}
		details[fe.Field()] = v.message(fe)
	}
	return apperror.Validation("Validation failed", details)
}

func (v *Validator) message(fe validator.FieldError) string {
	field := fe.Field()
	value, _ := fe.Value().(string)

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Enter a valid email address"
	case "alpha":
		return field + " must contain only letters"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "username":
		return v.UsernameProblem(value)
	case "strongpwd":
		return v.PasswordProblem(value)
	case "contact":
		return v.contactProblem(value)
	case "qtype":
		return fmt.Sprintf("%s must be one of: text, radio, checkbox", field)
	case "dive", "required_with":
		return field + " is invalid"
	}
	return field + " is invalid"
}

// UsernameProblem returns "" for an acceptable username. A username has bounded
// length, no spaces, at least one letter and at least one special character.
func (v *Validator) UsernameProblem(s string) string {
	n := utf8.RuneCountInString(s)
	if n < v.limits.UsernameMin || n > v.limits.UsernameMax {
		return fmt.Sprintf("username must be between %d and %d characters", v.limits.UsernameMin, v.limits.UsernameMax)
	}

	var letter, special bool
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			return "username must not contain spaces"
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
		default:
			special = true
		}
	}
	if !letter || !special {
		return "username must contain at least one letter and one special character"
	}
	return ""
}

// PasswordProblem returns "" for an acceptable password.
func (v *Validator) PasswordProblem(s string) string {
	n := utf8.RuneCountInString(s)
	if n < v.limits.PasswordMin || n > v.limits.PasswordMax {
		return fmt.Sprintf("password must be between %d and %d characters", v.limits.PasswordMin, v.limits.PasswordMax)
	}

	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return "password must contain an uppercase letter, a lowercase letter, a digit and a special character"
	}
	return ""
}

func (v *Validator) contactProblem(s string) string {
	n := len(s)
	if n < v.limits.ContactMin || n > v.limits.ContactMax {
		return fmt.Sprintf("contact must be between %d and %d digits", v.limits.ContactMin, v.limits.ContactMax)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "contact must contain only digits"
		}
	}
	return ""
}
