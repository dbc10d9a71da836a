package authz

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced user, role, permission or
	// policy does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState covers role cycles, malformed conditions and unknown
	// operators. Decisions that hit it fail closed.
	ErrInvalidState = errors.New("invalid state")
	// ErrForbidden is returned when the caller may not perform an
	// administrative mutation.
	ErrForbidden = errors.New("forbidden")
	// ErrAuditWrite marks a ledger write that did not persist. The decision
	// it belongs to is still honored.
	ErrAuditWrite = errors.New("audit write failure")
	// ErrInvalidInput rejects malformed administrative requests.
	ErrInvalidInput = errors.New("invalid input")
)

// Error carries a failure category together with a reason suitable for
// audit display.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is lets errors.Is match the category sentinel.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Category returns the short category name ("not_found", "invalid_state", ...).
func (e *Error) Category() string {
	return CategoryOf(e)
}

// CategoryOf maps any error onto its category name. Unknown errors are
// reported as "internal".
func CategoryOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrAuditWrite):
		return "audit_write_failure"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

// ReasonOf extracts the human readable reason from err.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Reason: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidState, Reason: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: ErrForbidden, Reason: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidInput, Reason: fmt.Sprintf(format, args...)}
}

// AuditWriteFailure wraps a persistence error from the ledger.
func AuditWriteFailure(err error) *Error {
	return &Error{Kind: ErrAuditWrite, Reason: "audit entry could not be persisted", Err: err}
}
