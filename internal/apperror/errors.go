package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindExpired
	KindAuth
	KindPermission
	KindPolicy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindPolicy:
		return "policy"
	}
	return "internal"
}

// Error is the failure type returned by the service layer. Handlers turn it into
// a response with response.FromError.
type Error struct {
	Kind    Kind
	Message string
	// Details carries per-field messages for validation failures.
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperror.ErrExpired).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrExpired    = &Error{Kind: KindExpired}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrPermission = &Error{Kind: KindPermission}
	ErrPolicy     = &Error{Kind: KindPolicy}
)

func Validation(message string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// Field builds a validation error for a single field.
func Field(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: map[string]string{field: message}}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// ConflictField names the field whose value is already taken.
func ConflictField(field, message string) *Error {
	return &Error{Kind: KindConflict, Message: message, Details: map[string]string{field: message}}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Expired(message string) *Error {
	return &Error{Kind: KindExpired, Message: message}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func Permission(message string) *Error {
	return &Error{Kind: KindPermission, Message: message}
}

func Policy(message string) *Error {
	return &Error{Kind: KindPolicy, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns KindInternal for errors that did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
