package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the different failure classes of an apodget run
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeFetch          ErrorType = "fetch"
	ErrorTypeNoPicture      ErrorType = "no_picture"
	ErrorTypeRetryExhausted ErrorType = "retry_exhausted"
	ErrorTypeDownload       ErrorType = "download"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Exit codes reported by the command line tool
const (
	ExitOK             = 0
	ExitInvalidArgs    = 1
	ExitNoPicture      = 2
	ExitTransportError = 3
)

// Error represents a classified error with optional HTTP status and file path
type Error struct {
	Type    ErrorType
	Message string
	// Code is the HTTP status code when the error came from a response, 0 otherwise
	Code int
	// Path names the file involved in a download failure
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg += ": " + e.Message
	if e.Path != "" {
		msg += " [" + e.Path + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given type
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Newf creates an error of the given type with a formatted message
func Newf(errorType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under the given type
func Wrap(errorType ErrorType, err error, message string) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given error type
func Is(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// IsRetryable checks if an error type should be retried.
// Only the absence of a picture is worth another random date; transport
// failures are surfaced immediately.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNoPicture:
		return true
	default:
		return false
	}
}

// RetryIf is a retry predicate over error values
func RetryIf(err error) bool {
	return err != nil && IsRetryable(TypeOf(err))
}

// ExitCode maps an error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch TypeOf(err) {
	case ErrorTypeNoPicture, ErrorTypeRetryExhausted:
		return ExitNoPicture
	case ErrorTypeFetch, ErrorTypeDownload:
		return ExitTransportError
	default:
		return ExitInvalidArgs
	}
}
