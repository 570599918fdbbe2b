// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode defines supported error codes used across the engine
// Values are stable; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeInvalidArgument is for bad input parameters (a caller programming error)
	ErrorCodeInvalidArgument

	// ErrorCodePartitionUnavailable is for partitions whose backing file cannot be opened or read
	ErrorCodePartitionUnavailable

	// ErrorCodeRecordDecode is for malformed records and corrupt compressed streams
	ErrorCodeRecordDecode

	// ErrorCodeStageFailure is for user-supplied stage functions that panicked
	ErrorCodeStageFailure

	// ErrorCodeKeyMissing is for pluck without a default on a record lacking the key
	ErrorCodeKeyMissing

	// ErrorCodeCancelled is for computations stopped by their context
	ErrorCodeCancelled
)

// String returns a short stable name for the code
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeInvalidArgument:
		return "invalid_argument"
	case ErrorCodePartitionUnavailable:
		return "partition_unavailable"
	case ErrorCodeRecordDecode:
		return "record_decode"
	case ErrorCodeStageFailure:
		return "stage_failure"
	case ErrorCodeKeyMissing:
		return "key_missing"
	case ErrorCodeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// partition is the ordinal of the failing partition (-1 when not applicable)
// stage is the index of the failing pipeline stage (-1 when not applicable)
// orig is the wrapped cause
type Error struct {
	orig      error
	msg       string
	code      ErrorCode
	partition int
	stage     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := e.msg
	if e.partition >= 0 {
		s = fmt.Sprintf("%s (partition %d)", s, e.partition)
	}
	if e.stage >= 0 {
		s = fmt.Sprintf("%s (stage %d)", s, e.stage)
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", s, e.orig)
	}
	return s
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Partition returns the failing partition ordinal, or -1
func (e *Error) Partition() int { return e.partition }

// Stage returns the failing stage index, or -1
func (e *Error) Stage() int { return e.stage }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// PartitionOf extracts the failing partition ordinal from any error
func PartitionOf(err error) (int, bool) {
	if e, ok := As(err); ok && e.partition >= 0 {
		return e.partition, true
	}
	return -1, false
}

// StageOf extracts the failing stage index from any error
func StageOf(err error) (int, bool) {
	if e, ok := As(err); ok && e.stage >= 0 {
		return e.stage, true
	}
	return -1, false
}

// Mutators (copy-on-write)

// WithPartition attaches a partition ordinal to an *Error (copy-on-write)
// If err isn't *Error, it is wrapped into one with Unknown code first
func WithPartition(err error, ordinal int) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		if e.partition >= 0 {
			return err // keep the innermost attribution
		}
		c := *e
		c.partition = ordinal
		return &c
	}
	return &Error{code: ErrorCodeUnknown, msg: err.Error(), partition: ordinal, stage: -1, orig: err}
}

// WithStage attaches a stage index to an *Error (copy-on-write)
// If err isn't *Error, returns err unchanged
func WithStage(err error, stage int) error {
	if e, ok := As(err); ok {
		if e.stage >= 0 {
			return err
		}
		c := *e
		c.stage = stage
		return &c
	}
	return err
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, partition: -1, stage: -1}
}

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), partition: -1, stage: -1}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig, partition: -1, stage: -1}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig, partition: -1, stage: -1}
}

// WrapIf wraps only when err != nil (helper for 1-liners)
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// PartitionUnavailablef returns a partition unavailable error
func PartitionUnavailablef(format string, a ...any) error {
	return Newf(ErrorCodePartitionUnavailable, format, a...)
}

// DecodeErrf returns a record decode error
func DecodeErrf(format string, a ...any) error { return Newf(ErrorCodeRecordDecode, format, a...) }

// StageFailuref returns a stage failure error
func StageFailuref(format string, a ...any) error { return Newf(ErrorCodeStageFailure, format, a...) }

// KeyMissingf returns a key missing error
func KeyMissingf(format string, a ...any) error { return Newf(ErrorCodeKeyMissing, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Cancelledf returns a cancelled error
func Cancelledf(format string, a ...any) error { return Newf(ErrorCodeCancelled, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }
