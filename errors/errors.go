// Package errors provides error handling for cadence.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check against a sentinel
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle unknown sequence name
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll  = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Stack trace access
var (
	GetReportableStackTrace = crdb.GetReportableStackTrace

	// GetStack is an alias for GetReportableStackTrace for convenience.
	GetStack = crdb.GetReportableStackTrace
)

// Sentinel errors for the sequence engine.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource (sequence name, run ID)
	// does not exist
	ErrNotFound = New("not found")

	// ErrInvalidSequenceShape indicates a periodic start was requested on a
	// bare action-list sequence that carries no repeat interval
	ErrInvalidSequenceShape = New("sequence is not periodic")

	// ErrInvalidInterval indicates a periodic sequence whose repeat interval
	// is missing or non-positive
	ErrInvalidInterval = New("invalid repeat interval")

	// ErrAlreadyRunning indicates a periodic task for the name is already live
	ErrAlreadyRunning = New("sequence already running")

	// ErrUnsupportedFormat indicates a sequence document whose top level is
	// not object-shaped
	ErrUnsupportedFormat = New("unsupported document format")

	// ErrUnsupportedAction indicates an action with an unknown type at
	// dispatch time
	ErrUnsupportedAction = New("unsupported action type")

	// ErrUnknownSubAction indicates a recognized action type with an
	// unrecognized action verb
	ErrUnknownSubAction = New("unknown sub-action")
)

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsAlreadyRunning checks if an error is or wraps ErrAlreadyRunning.
func IsAlreadyRunning(err error) bool {
	return err != nil && Is(err, ErrAlreadyRunning)
}

// IsActionError reports whether an error is one of the two per-action
// dispatch failures that diagnostic mode downgrades to log lines.
func IsActionError(err error) bool {
	return err != nil && IsAny(err, ErrUnsupportedAction, ErrUnknownSubAction)
}

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
