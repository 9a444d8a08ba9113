package errs

import (
	"errors"
	"sort"
	"strings"
)

// Error kinds. Callers pick HTTP status and messaging with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrInternal    = errors.New("internal error")
)

// ValidationError carries field-level messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Field-level constructor for the common single-field case.
func Invalid(field, msg string) error {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

func (v *ValidationError) Add(field, msg string) {
	if _, exists := v.Fields[field]; exists {
		return
	}
	v.Fields[field] = msg
}

func (v *ValidationError) HasErrors() bool {
	return len(v.Fields) > 0
}

// OrNil returns nil when no field failed so it can be returned directly.
func (v *ValidationError) OrNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldErrors extracts field messages from anywhere in the chain.
func FieldErrors(err error) map[string]string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Fields
	}
	return nil
}

func Conflict(msg string) error {
	return Mark(New(msg), ErrConflict)
}

func NotFound(msg string) error {
	return Mark(New(msg), ErrNotFound)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v) || Is(err, ErrValidation)
}

func IsConflict(err error) bool    { return Is(err, ErrConflict) }
func IsNotFound(err error) bool    { return Is(err, ErrNotFound) }
func IsRateLimited(err error) bool { return Is(err, ErrRateLimited) }
