package coerce

import (
	"errors"
	"fmt"

	"github.com/ppiankov/entagg/internal/model"
)

var (
	// ErrUnknownType matches any UnknownTypeError via errors.Is
	ErrUnknownType = errors.New("unknown property type")

	// ErrCoercion matches any CoercionError via errors.Is
	ErrCoercion = errors.New("cannot coerce value")
)

// UnknownTypeError reports a type tag outside string, integer and boolean
type UnknownTypeError struct {
	Slug string
	Type string
}

func (e *UnknownTypeError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("unknown property type %q", e.Type)
	}
	return fmt.Sprintf("property %q: unknown property type %q", e.Slug, e.Type)
}

// Is makes errors.Is(err, ErrUnknownType) hold
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// CoercionError reports a non-null value that cannot take its declared type
type CoercionError struct {
	Slug  string
	Type  model.PropertyType
	Value any
	Err   error // Underlying parse failure, if any
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("cannot coerce %#v to %s", e.Value, e.Type)
	if e.Slug != "" {
		msg = fmt.Sprintf("property %q: %s", e.Slug, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCoercion) hold
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}
