// Package errors provides coded errors shared by the rules engine.
//
// Codes separate the failure classes the engine cares about: authoring
// mistakes in content (bad formulas, missing effects or macros), expected
// resource shortfalls, a missing authoritative participant and hard limits.
package errors

import (
	"errors"
	"fmt"
)

// Code categorizes an error
type Code string

const (
	CodeUnknown         Code = "unknown"
	CodeInvalidArgument Code = "invalid_argument"
	CodeNotFound        Code = "not_found"
	CodeAlreadyExists   Code = "already_exists"
	CodeInternal        Code = "internal"

	// CodeAuthoring marks malformed content: formulas, scripts, dangling references.
	CodeAuthoring Code = "authoring"

	// CodeInsufficientResources is the recoverable "cannot afford this" outcome.
	CodeInsufficientResources Code = "insufficient_resources"

	// CodeUnavailable means no authoritative participant can run the operation.
	CodeUnavailable Code = "unavailable"

	// CodePermissionDenied means the caller may not mutate the target.
	CodePermissionDenied Code = "permission_denied"

	// CodeDepthExceeded is returned when nested evaluation passes the hard cap.
	CodeDepthExceeded Code = "depth_exceeded"

	// CodeCanceled means the user dismissed a prompt.
	CodeCanceled Code = "canceled"
)

// Error is an application error with code and metadata
type Error struct {
	Code    Code
	Message string
	Cause   error
	Meta    map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates a new error with the given code and message
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new error with a formatted message
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err, keeping the code of a wrapped *Error
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	var coded *Error
	if errors.As(err, &coded) {
		return &Error{
			Code:    coded.Code,
			Message: message,
			Cause:   err,
			Meta:    copyMeta(coded.Meta),
		}
	}

	return &Error{Code: CodeUnknown, Message: message, Cause: err}
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error and overrides its code
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, message)
	wrapped.Code = code
	return wrapped
}

func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

func AlreadyExistsf(format string, args ...any) *Error {
	return Newf(CodeAlreadyExists, format, args...)
}

func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

func Authoringf(format string, args ...any) *Error {
	return Newf(CodeAuthoring, format, args...)
}

func InsufficientResources(message string) *Error {
	return New(CodeInsufficientResources, message)
}

func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

func PermissionDeniedf(format string, args ...any) *Error {
	return Newf(CodePermissionDenied, format, args...)
}

func DepthExceededf(format string, args ...any) *Error {
	return Newf(CodeDepthExceeded, format, args...)
}

func Canceled(message string) *Error {
	return New(CodeCanceled, message)
}

// Is reports whether err carries the given code
func Is(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

func IsNotFound(err error) bool      { return Is(err, CodeNotFound) }
func IsAuthoring(err error) bool     { return Is(err, CodeAuthoring) }
func IsUnavailable(err error) bool   { return Is(err, CodeUnavailable) }
func IsCanceled(err error) bool      { return Is(err, CodeCanceled) }
func IsDepthExceeded(err error) bool { return Is(err, CodeDepthExceeded) }

func IsInsufficientResources(err error) bool {
	return Is(err, CodeInsufficientResources)
}

// GetCode returns the error code, CodeUnknown for foreign errors
func GetCode(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

// GetMeta returns the error metadata
func GetMeta(err error) map[string]any {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Meta
	}
	return nil
}

func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}
