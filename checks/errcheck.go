package checks

import (
	"context"

	"github.com/sysbind/sysbind/errors"
)

// ErrorSource is the last-error protocol of a loaded module. The loader's
// Handle implements it; tests substitute fakes.
type ErrorSource interface {
	LastError(ctx context.Context) (uint32, error)
	FormatMessage(ctx context.Context, code uint32) (string, error)
}

// LastCall translates the last-error signal of the most recent native call
// into a structured error. A success signal is a silent no-op.
//
// The signal is scoped to "most recent native call on this goroutine":
// LastCall must run immediately after the call it guards, before any other
// native call can overwrite it. That ordering is the caller's
// responsibility.
//
// If decoding the message itself fails, the error still carries the raw
// code; the decode failure is never surfaced.
func LastCall(ctx context.Context, operation string, src ErrorSource) error {
	code, err := src.LastError(ctx)
	if err != nil {
		return errors.Wrap(errors.PhaseCall, errors.KindNativeCall, err, "read last-error after "+operation)
	}
	if code == 0 {
		return nil
	}

	message, err := src.FormatMessage(ctx, code)
	if err != nil {
		message = ""
	}
	return errors.NativeCall(operation, code, message)
}
