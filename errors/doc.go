// Package errors provides structured error types for the sysbind library.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). The Error type includes rich context: argument name and
// value for validation errors, operation name and raw code for native call
// errors, and a cause chain.
//
// Use the convenience constructors for common patterns:
//
//	err := errors.ResourceNotFound(errors.PhaseAssemble, path)
//	err := errors.Input("handle", v, []string{"integer"})
//	err := errors.NativeCall("close-handle", 6, "the handle is invalid")
//
// All errors implement the standard error interface and support
// errors.Is/As. Is matches on Phase and Kind, so sentinel-style matching
// works with zero-detail errors:
//
//	errors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindNativeCall})
package errors
