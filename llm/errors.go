package llm

import "errors"

// TransientError wraps errors that may succeed on retry (network failures,
// rate limits, server errors).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient.
func NewTransientError(err error) error {
	return &TransientError{Err: err}
}

// FatalError wraps errors that will not succeed on retry (auth failures,
// malformed requests, unknown providers).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "fatal: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError wraps an error as fatal.
func NewFatalError(err error) error {
	return &FatalError{Err: err}
}

// IsTransient reports whether err is wrapped as transient.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsFatal reports whether err is wrapped as fatal.
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}
