package ldcore

import (
	"fmt"
)

// ErrorKind classifies the failure modes of the value algebra, validator,
// planner, and store engine.
type ErrorKind string

const (
	ErrorKindArgument    ErrorKind = "argument"
	ErrorKindCodec       ErrorKind = "codec"
	ErrorKindStore       ErrorKind = "store"
	ErrorKindUnsupported ErrorKind = "unsupported"
	ErrorKindDriver      ErrorKind = "driver"
)

// LdError is the unified error type raised by this module. Factories and
// accessors fail eagerly with Argument/Codec kinds; the store engine fails
// with Store/Driver kinds, optionally carrying a validation Trace.
type LdError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Trace   *Value
	Details map[string]any
	Cause   error
}

func (e *LdError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *LdError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a single diagnostic field.
func (e *LdError) WithDetail(key string, value any) *LdError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error that triggered this one.
func (e *LdError) WithCause(cause error) *LdError {
	e.Cause = cause
	return e
}

// WithTrace attaches a validation trace value (see validate.go).
func (e *LdError) WithTrace(trace Value) *LdError {
	e.Trace = &trace
	return e
}

func argumentError(code, message string) *LdError {
	return &LdError{Kind: ErrorKindArgument, Code: code, Message: message}
}

func codecError(code, message string) *LdError {
	return &LdError{Kind: ErrorKindCodec, Code: code, Message: message}
}

// malformed builds the codec error kind raised when decode cannot parse s
// against the named case.
func malformed(caseName, s string) *LdError {
	return codecError("malformed", fmt.Sprintf("malformed %s literal: %q", caseName, s))
}

// unknown builds the argument error kind raised for unrecognized names,
// e.g. a reserved field lookup or an unsupported operator.
func unknown(name string) *LdError {
	return argumentError("unknown", fmt.Sprintf("unknown name: %q", name))
}

// StoreError builds the store error kind, optionally carrying a validation
// trace (e.g. a pre-write validation failure).
func StoreError(code, message string) *LdError {
	return &LdError{Kind: ErrorKindStore, Code: code, Message: message}
}

// UnsupportedError is raised when a visitor encounters a host object or
// model shape it does not know how to interpret.
func UnsupportedError(message string) *LdError {
	return &LdError{Kind: ErrorKindUnsupported, Code: "unsupported", Message: message}
}

// DriverError wraps a failure reported by the triple-store driver.
func DriverError(message string, cause error) *LdError {
	return (&LdError{Kind: ErrorKindDriver, Code: "driver", Message: message}).WithCause(cause)
}
