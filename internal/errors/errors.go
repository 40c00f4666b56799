// Package errors provides unified error handling with a structured error code.
// Codes separate faults that end the process from faults that only cost one utterance.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an AppError.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeConfigInvalid
	CodeDeviceUnavailable // no input device, or stream start/stop failed
	CodeNoInputConfig     // device offers no usable channel/rate combination
	CodeModelLoad
	CodeFraming // converter or downmixer received a batch of the wrong shape
	CodeChannelClosed
	CodeInference
)

var codeNames = [...]string{
	"UNKNOWN",
	"INTERNAL",
	"INVALID_ARGUMENT",
	"CONFIG_INVALID",
	"DEVICE_UNAVAILABLE",
	"NO_INPUT_CONFIG",
	"MODEL_LOAD_FAILED",
	"FRAMING",
	"CHANNEL_CLOSED",
	"INFERENCE_FAILED",
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return codeNames[CodeUnknown]
	}
	return codeNames[c]
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsTransient reports whether the session can continue after err by discarding
// the current utterance.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case CodeInference, CodeFraming:
		return true
	default:
		return false
	}
}

// IsFatal reports whether err must end the process.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case CodeDeviceUnavailable, CodeNoInputConfig, CodeModelLoad, CodeConfigInvalid, CodeInternal, CodeUnknown:
		return true
	default:
		return false
	}
}

// IsShutdown reports whether err signals an orderly end of the pipeline.
func IsShutdown(err error) bool {
	return IsCode(err, CodeChannelClosed)
}
