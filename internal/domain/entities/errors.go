package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below match them with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrUnresolvedVariable  = errors.New("unresolved variable")
)

// NotFoundError reports an unknown variable key or point id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError is a caller error tied to one input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError reports a write against a stale version.
type ConflictError struct {
	Kind     string
	ID       string
	Expected int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q was modified since version %d", e.Kind, e.ID, e.Expected)
}

// Is matches ErrConcurrencyConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// UnresolvedVariableError lists every placeholder a render could not resolve,
// in order of first appearance.
type UnresolvedVariableError struct {
	Keys []string
}

func (e *UnresolvedVariableError) Error() string {
	return "unresolved variables: " + strings.Join(e.Keys, ", ")
}

// Is matches ErrUnresolvedVariable.
func (e *UnresolvedVariableError) Is(target error) bool {
	return target == ErrUnresolvedVariable
}
