package engine

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected operation (bad name, duplicate name,
// over-limit success attempt). No state mutation occurs and the operation
// is never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// PersistenceError reports a failed store write. In-memory state may be
// ahead of durable state; callers should reload before trusting cached
// values.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

// ExternalSourceError reports a failed metric fetch for a single habit. It
// never fails a whole reconciliation pass; the habit just shows stale
// progress until the next successful sync.
type ExternalSourceError struct {
	HabitID string
	Err     error
}

func (e *ExternalSourceError) Error() string {
	return fmt.Sprintf("metric fetch for habit %s: %v", e.HabitID, e.Err)
}

func (e *ExternalSourceError) Unwrap() error {
	return e.Err
}

// InvariantViolationError reports state that should never occur, such as
// two entries for the same day. It is treated as a repair opportunity, not
// a crash.
type InvariantViolationError struct {
	HabitID string
	Reason  string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("habit %s: %s", e.HabitID, e.Reason)
}

// IsInvariantViolation reports whether err is an InvariantViolationError.
func IsInvariantViolation(err error) bool {
	var v *InvariantViolationError
	return errors.As(err, &v)
}
