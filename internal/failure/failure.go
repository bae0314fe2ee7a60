// Package failure defines the error classes shared by the composition engine,
// the job store, the scheduler and the HTTP layer.
//
// Errors are classified by wrapping one of the sentinel values below with %w,
// so callers can use errors.Is regardless of how deep the error was produced.
package failure

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Error classes.
var (
	// ErrValidation marks a malformed or out-of-range request. Raised before any work starts.
	ErrValidation = errors.New("validation error")
	// ErrAcquisition marks a media URL that could not be fetched or understood.
	ErrAcquisition = errors.New("acquisition error")
	// ErrComposition marks a failure while normalizing, transitioning or concatenating media.
	ErrComposition = errors.New("composition error")
	// ErrSink marks a finished artifact that could not be stored.
	ErrSink = errors.New("sink error")
	// ErrNotFound marks an unknown job id.
	ErrNotFound = errors.New("not found")
	// ErrState marks an operation not allowed in the job's current status.
	ErrState = errors.New("state error")
)

// MaxMessageLength bounds the failure message persisted on a job.
const MaxMessageLength = 500

// Kind is the class name of an error, as used in logs, metrics and job records.
type Kind string

// Known kinds.
const (
	KindValidation  Kind = "validation"
	KindAcquisition Kind = "acquisition"
	KindComposition Kind = "composition"
	KindSink        Kind = "sink"
	KindNotFound    Kind = "not_found"
	KindState       Kind = "state"
	KindInternal    Kind = "internal"
)

// Validation wraps a formatted message as a validation error.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Acquisition wraps err as an acquisition error.
func Acquisition(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrAcquisition, fmt.Sprintf(format, args...), err)
}

// Composition wraps err as a composition error.
func Composition(err error, format string, args ...any) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrComposition, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("%w: %s: %w", ErrComposition, fmt.Sprintf(format, args...), err)
}

// Sink wraps err as a sink error.
func Sink(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrSink, fmt.Sprintf(format, args...), err)
}

// Classify returns the kind of err. Unclassified errors are KindInternal.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAcquisition):
		return KindAcquisition
	case errors.Is(err, ErrComposition):
		return KindComposition
	case errors.Is(err, ErrSink):
		return KindSink
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrState):
		return KindState
	default:
		return KindInternal
	}
}

// Message renders err for persistence on a failed job, truncated with Truncate.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return Truncate(err.Error())
}

// Truncate cuts msg to MaxMessageLength bytes without splitting a UTF-8 sequence.
func Truncate(msg string) string {
	if len(msg) <= MaxMessageLength {
		return msg
	}
	cut := MaxMessageLength
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
