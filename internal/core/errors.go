package core

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input. Callers must fix the input;
// retrying is pointless.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown session or item id.
type NotFoundError struct {
	Kind string // "session" or "item"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func SessionNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "session", ID: id}
}

func ItemNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "item", ID: id}
}

// DegradedRetrievalWarning is returned alongside a best-effort retrieval
// result ranked by stored relevance only.
type DegradedRetrievalWarning struct {
	SessionID string
	Cause     error
}

func (w *DegradedRetrievalWarning) Error() string {
	return fmt.Sprintf("retrieval for session %q degraded to stored relevance: %v", w.SessionID, w.Cause)
}

func (w *DegradedRetrievalWarning) Unwrap() error {
	return w.Cause
}

// SummarizationError means the summarizer failed or timed out. No partial
// summary accompanies it; the caller may retry later.
type SummarizationError struct {
	SessionID string
	Cause     error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed for session %q: %v", e.SessionID, e.Cause)
}

func (e *SummarizationError) Unwrap() error {
	return e.Cause
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsSummarization(err error) bool {
	var target *SummarizationError
	return errors.As(err, &target)
}
