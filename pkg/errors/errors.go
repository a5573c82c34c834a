// Package errors provides structured error types for flowscope.
//
// Every error that crosses a package boundary towards the CLI or the HTTP
// API carries a [Code]. Codes group into input faults (INVALID_*), missing
// resources (*_NOT_FOUND), trace integrity faults (MISSING_FRAME_ENTRY,
// UNKNOWN_FRAME_ENTRY, INVARIANT_VIOLATION) and internal faults.
//
// Integrity faults are reported as [FrameError] values that point at the
// frame and the vertex or edge id involved. A trace that produces any of
// them is rejected before layout.
//
//	err := errors.New(errors.ErrCodeInvalidDocument, "edge %s: unknown source %s", id, src)
//	if errors.Is(err, errors.ErrCodeInvalidDocument) {
//	    ...
//	}
//
//	err = errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Code represents a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	ErrCodeMissingFrameEntry  Code = "MISSING_FRAME_ENTRY"
	ErrCodeUnknownFrameEntry  Code = "UNKNOWN_FRAME_ENTRY"
	ErrCodeInvariantViolation Code = "INVARIANT_VIOLATION"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeTraceNotFound   Code = "TRACE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeNodeNotFound    Code = "NODE_NOT_FOUND"

	ErrCodeUnavailable Code = "BACKEND_UNAVAILABLE"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

var statusOf = map[Code]int{
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidDocument:    http.StatusBadRequest,
	ErrCodeInvalidFormat:      http.StatusBadRequest,
	ErrCodeInvalidConfig:      http.StatusBadRequest,
	ErrCodeInvalidPath:        http.StatusBadRequest,
	ErrCodeMissingFrameEntry:  http.StatusUnprocessableEntity,
	ErrCodeUnknownFrameEntry:  http.StatusUnprocessableEntity,
	ErrCodeInvariantViolation: http.StatusUnprocessableEntity,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeTraceNotFound:      http.StatusNotFound,
	ErrCodeSessionNotFound:    http.StatusNotFound,
	ErrCodeFileNotFound:       http.StatusNotFound,
	ErrCodeNodeNotFound:       http.StatusNotFound,
	ErrCodeUnavailable:        http.StatusServiceUnavailable,
	ErrCodeUnsupported:        http.StatusNotImplemented,
}

// HTTPStatus maps an error code to the HTTP status the API responds with.
// Unknown codes map to 500.
func HTTPStatus(code Code) int {
	if s, ok := statusOf[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// coded is implemented by every error type of this package.
type coded interface {
	error
	ErrorCode() Code
	detail() string
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// ErrorCode returns e.Code.
func (e *Error) ErrorCode() Code { return e.Code }

func (e *Error) detail() string { return e.Message }

// FrameError locates a trace integrity fault at a frame and entry.
type FrameError struct {
	Code    Code
	Frame   int    // -1 for faults of the graph itself
	Entry   string // vertex or edge id
	Message string
}

// NewFrameError creates a FrameError with a formatted message.
func NewFrameError(code Code, frame int, entry, format string, args ...any) *FrameError {
	return &FrameError{Code: code, Frame: frame, Entry: entry, Message: fmt.Sprintf(format, args...)}
}

func (e *FrameError) Error() string { return string(e.Code) + ": " + e.detail() }

// ErrorCode returns e.Code.
func (e *FrameError) ErrorCode() Code { return e.Code }

func (e *FrameError) detail() string {
	if e.Frame < 0 {
		return e.Entry + ": " + e.Message
	}
	return "frame " + strconv.Itoa(e.Frame) + ": " + e.Entry + ": " + e.Message
}

// Is reports whether any error in err's tree, joined branches included,
// carries code.
func Is(err error, code Code) bool {
	found := false
	walk(err, func(c coded) bool {
		found = c.ErrorCode() == code
		return !found
	})
	return found
}

// GetCode returns the code of the first coded error in err's tree, or ""
// when there is none.
func GetCode(err error) Code {
	var c coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// UserMessage returns err's message without the code prefix.
func UserMessage(err error) string {
	var c coded
	if errors.As(err, &c) {
		return c.detail()
	}
	return err.Error()
}

// walk visits the coded errors of err's tree depth first until visit
// returns false.
func walk(err error, visit func(coded) bool) bool {
	if err == nil {
		return true
	}
	if c, ok := err.(coded); ok && !visit(c) {
		return false
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if !walk(inner, visit) {
				return false
			}
		}
	case interface{ Unwrap() error }:
		return walk(u.Unwrap(), visit)
	}
	return true
}
