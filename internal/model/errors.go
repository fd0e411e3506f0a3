package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when the requested entity is absent.
var ErrNotFound = errors.New("not found")

// ErrEmptyPrompt is returned when a match request carries no prompt text.
var ErrEmptyPrompt = &ValidationError{Reason: "prompt cannot be empty"}

// ValidationError reports user-correctable input problems: a missing or
// undecodable image, an empty prompt, a malformed user id.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// EmbeddingError reports a failure of the embedding model backend. It is
// not retried within a request; retrying the whole request is safe.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// NewEmbeddingError wraps err as an embedding backend failure for op.
func NewEmbeddingError(op string, err error) *EmbeddingError {
	return &EmbeddingError{Op: op, Err: err}
}

// ScoringError reports an internal scorer invariant violation, such as a
// vector dimensionality mismatch. Treated as a bug, never user-correctable.
type ScoringError struct {
	Reason string
}

func (e *ScoringError) Error() string {
	return e.Reason
}

// NewScoringError creates a ScoringError with a formatted reason.
func NewScoringError(format string, args ...any) *ScoringError {
	return &ScoringError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError reports a persistence layer failure that is not a plain
// not-found condition.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a storage failure for op.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
