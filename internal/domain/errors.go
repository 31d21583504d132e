package domain

import "fmt"

// StateError signals an operation that is not valid from the aggregate's
// current state. Callers must re-read state and issue a different command;
// retrying the same one will fail again.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// AuthorizationError signals a caller whose role is not permitted to
// perform the operation. Surfaced separately from StateError so callers
// can present a permissions-specific message.
type AuthorizationError struct {
	Op     string
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// ArgumentError signals an invalid argument rejected before any mutation.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func stateErr(op, format string, args ...any) error {
	return &StateError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func authErr(op, format string, args ...any) error {
	return &AuthorizationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func argErr(field, reason string) error {
	return &ArgumentError{Field: field, Reason: reason}
}
