package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseAssemble Phase = "assemble" // definition fragment assembly
	PhaseCompile  Phase = "compile"  // on-demand artifact compilation
	PhaseLoad     Phase = "load"     // artifact loading / prebuilt resolution
	PhaseValidate Phase = "validate" // argument validation
	PhaseCall     Phase = "call"     // native call and error translation
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindResourceNotFound Kind = "resource_not_found"
	KindInvalidInput     Kind = "invalid_input"
	KindContract         Kind = "contract"
	KindNativeCall       Kind = "native_call"
	KindBuildFailed      Kind = "build_failed"
	KindLoadFailed       Kind = "load_failed"
	KindUnsupported      Kind = "unsupported"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value         any
	Cause         error
	AllowedValues any
	Phase         Phase
	Kind          Kind
	Detail        string
	Name          string // argument name, for validation errors
	Operation     string // native operation name
	Message       string // decoded native message
	Accepted      []string
	Code          uint32 // native error code
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Operation != "" {
		b.WriteString(": ")
		b.WriteString(e.Operation)
		fmt.Fprintf(&b, " failed with code %d", e.Code)
		if e.Message != "" {
			b.WriteString(": ")
			b.WriteString(e.Message)
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// ResourceNotFound reports a required file that does not exist at path.
func ResourceNotFound(phase Phase, path string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindResourceNotFound,
		Detail: fmt.Sprintf("failed to locate %s", path),
		Value:  path,
	}
}

// Input reports an argument whose value is outside the accepted categories.
func Input(name string, value any, accepted []string) *Error {
	return &Error{
		Phase:    PhaseValidate,
		Kind:     KindInvalidInput,
		Name:     name,
		Value:    value,
		Accepted: accepted,
		Detail: fmt.Sprintf(
			"expected value for %s to be one of %v, got %v (%T) instead",
			name, accepted, value, value),
	}
}

// AllowedValues reports an argument whose value is not in the allowed set.
func AllowedValues(name string, value, allowed any) *Error {
	return &Error{
		Phase:         PhaseValidate,
		Kind:          KindInvalidInput,
		Name:          name,
		Value:         value,
		AllowedValues: allowed,
		Detail: fmt.Sprintf(
			"expected value for %s to be in %v, got %v instead",
			name, allowed, value),
	}
}

// Contract reports programming-level misuse of the library, distinct from
// an ordinary input error. Not expected to be caught by normal control flow.
func Contract(detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindContract,
		Detail: detail,
	}
}

// NativeCall reports a failed native operation with its raw code and the
// decoded message, if one could be fetched.
func NativeCall(operation string, code uint32, message string) *Error {
	return &Error{
		Phase:     PhaseCall,
		Kind:      KindNativeCall,
		Operation: operation,
		Code:      code,
		Message:   message,
	}
}

// BuildFailed reports a failed on-demand compilation.
func BuildFailed(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindBuildFailed,
		Detail: detail,
		Cause:  cause,
	}
}

// LoadFailed reports an artifact that could not be imported into the process.
func LoadFailed(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLoadFailed,
		Detail: detail,
		Cause:  cause,
	}
}

// Unsupported reports an operation the current platform cannot perform.
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with phase and kind context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// IsNotFound reports whether err is a resource-not-found error in any phase.
func IsNotFound(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == KindResourceNotFound
}

// IsContract reports whether err is a programming-contract violation.
func IsContract(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == KindContract
}
