// Package errors provides a stack-tracing error wrapper around
// github.com/pkg/errors for the ambient layer only: config loading,
// adapter I/O, and the CLI tools. Hot-path rejections in internal/arena
// and internal/book stay plain sentinel errors — see §7 — and never
// import this package.
package errors

import "github.com/pkg/errors"

// StackTracer is implemented by errors carrying a pkg/errors stack trace.
type StackTracer interface {
	StackTrace() errors.StackTrace
}

// ErrorTracer pairs a human-readable message with an underlying error,
// preserving (or attaching) a stack trace.
type ErrorTracer struct {
	Message string
	Err     error
}

// NewTracer creates an ErrorTracer carrying only a message, no
// underlying cause.
func NewTracer(message string) *ErrorTracer {
	return &ErrorTracer{Message: message}
}

// TracerFromError wraps err, attaching a stack trace if it doesn't
// already carry one.
func TracerFromError(err error) *ErrorTracer {
	tracer := NewTracer(err.Error())
	return tracer.Wrap(err)
}

// Error implements the error interface.
func (e *ErrorTracer) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ErrorTracer) Unwrap() error {
	return e.Err
}

// Wrap attaches err as the cause, adding a stack trace if err doesn't
// already carry one.
func (e *ErrorTracer) Wrap(err error) *ErrorTracer {
	e.Err = err
	if _, ok := err.(StackTracer); !ok {
		e.Err = errors.WithStack(err)
	}
	return e
}

// StackTrace returns the underlying error's stack trace, if any.
func (e *ErrorTracer) StackTrace() errors.StackTrace {
	if tracer, ok := e.Unwrap().(StackTracer); ok {
		return tracer.StackTrace()
	}
	return nil
}
