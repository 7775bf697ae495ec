// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Mapping resolution errors. Every failure surfaced by the engine wraps exactly
// one of these so callers can branch with errors.Is or KindOf.
var (
	// ErrInvalidList means an uploaded reference list was not a flat sequence of strings.
	ErrInvalidList = errors.New("invalid reference list")
	// ErrNoListConfigured means a resolution was requested before any list upload.
	ErrNoListConfigured = errors.New("no reference list configured")
	// ErrOCRFailure means text extraction failed or produced no text.
	ErrOCRFailure = errors.New("ocr failure")
	// ErrMalformedCompletion means the model output did not match the mapping contract.
	ErrMalformedCompletion = errors.New("malformed completion")
	// ErrPersistence means a customer record could not be read or written.
	ErrPersistence = errors.New("persistence failure")
	// ErrRetrySelection means a correction named an item outside the reference list.
	ErrRetrySelection = errors.New("selection not in reference list")
	// ErrCompletionUnavailable means the completion provider could not be reached.
	ErrCompletionUnavailable = errors.New("completion unavailable")
)

// Infrastructure errors.
var (
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidInput  = errors.New("invalid input")
)

// ErrorKind classifies an error into the mapping error taxonomy.
type ErrorKind string

// Error kinds.
const (
	KindNone                ErrorKind = ""
	KindInvalidList         ErrorKind = "invalid_list"
	KindNoListConfigured    ErrorKind = "no_list_configured"
	KindOCRFailure          ErrorKind = "ocr_failure"
	KindMalformedCompletion ErrorKind = "malformed_completion"
	KindPersistence         ErrorKind = "persistence_failure"
	KindRetrySelection      ErrorKind = "retry_selection"
	KindCompletion          ErrorKind = "completion_unavailable"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindUnknown             ErrorKind = "unknown"
)

var kindSentinels = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidList, KindInvalidList},
	{ErrNoListConfigured, KindNoListConfigured},
	{ErrOCRFailure, KindOCRFailure},
	{ErrMalformedCompletion, KindMalformedCompletion},
	{ErrPersistence, KindPersistence},
	{ErrRetrySelection, KindRetrySelection},
	{ErrCompletionUnavailable, KindCompletion},
	{ErrInvalidInput, KindInvalidInput},
}

// KindOf returns the taxonomy kind of err, KindNone for nil and KindUnknown
// for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}

// MalformedCompletionError carries the raw completion text that failed validation.
type MalformedCompletionError struct {
	Err    error
	Raw    string
	Reason string
}

func (e *MalformedCompletionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedCompletion, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedCompletion, e.Reason)
}

func (e *MalformedCompletionError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformedCompletion as a match.
func (e *MalformedCompletionError) Is(target error) bool {
	return target == ErrMalformedCompletion
}

// NewMalformedCompletion builds a MalformedCompletionError for raw.
func NewMalformedCompletion(raw, reason string, err error) error {
	return &MalformedCompletionError{Raw: raw, Reason: reason, Err: err}
}

// Persistence wraps err as a persistence failure with an operation description.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
