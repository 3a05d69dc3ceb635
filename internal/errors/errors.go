// Package errors provides structured error types for the workspace coordinator.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the coordinator's failure taxonomy.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already exists")
	ErrConflict      = errors.New("claimed by another session")
	ErrCorruptRecord = errors.New("corrupt record")
)

// ValidationError reports malformed input, rejected before any disk mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports an operation targeting a session or task that does
// not exist. The operation had no partial effects.
type NotFoundError struct {
	Kind string // "session", "task"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateError reports a creation colliding with an existing sanitized name.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("session %q already exists", e.Name)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// ConflictError reports a claim that collides with another active session's
// existing claim. Sessions lists every conflicting claimant; no mutation was
// performed, so the caller can retry, pick another file, or escalate.
type ConflictError struct {
	Path     string
	Sessions []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("file %q is claimed by %s", e.Path, strings.Join(e.Sessions, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// CorruptRecordError reports a stored record that failed to parse. Bulk
// listings isolate it per record; direct reads surface it as a hard failure.
type CorruptRecordError struct {
	Name string
	Err  error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record for session %q: %v", e.Name, e.Err)
}

func (e *CorruptRecordError) Unwrap() error { return ErrCorruptRecord }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicate reports whether err is a name collision.
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }

// IsConflict reports whether err is a claim conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsCorrupt reports whether err is an unparsable stored record.
func IsCorrupt(err error) bool { return errors.Is(err, ErrCorruptRecord) }
