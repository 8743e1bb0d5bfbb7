package procs

import (
	"context"
	"strings"

	"github.com/sysbind/sysbind/checks"
	"github.com/sysbind/sysbind/dist"
	"github.com/sysbind/sysbind/errors"
)

// loadModule is swappable so tests can bind the wrappers to a private cache.
var loadModule = dist.Load

// CloseHandle releases a native handle.
func CloseHandle(ctx context.Context, handle int) error {
	if err := checks.Input("handle", handle, checks.Handle); err != nil {
		return err
	}

	mod, err := loadModule(ctx)
	if err != nil {
		return err
	}
	h, err := mod.Handle.Cast("u32", handle)
	if err != nil {
		return err
	}
	if _, err := mod.Handle.Call(ctx, "close-handle", h); err != nil {
		return err
	}
	return checks.LastCall(ctx, "close-handle", mod.Handle)
}

// WaitObject waits on a native handle for up to timeoutMS milliseconds.
// A zero timeout polls. The result is one of the module's WAIT_*
// constants.
func WaitObject(ctx context.Context, handle, timeoutMS int) (uint32, error) {
	if err := checks.Input("handle", handle, checks.Handle); err != nil {
		return 0, err
	}
	if err := checks.Input("timeoutMS", timeoutMS, checks.Integer); err != nil {
		return 0, err
	}

	mod, err := loadModule(ctx)
	if err != nil {
		return 0, err
	}
	h, err := mod.Handle.Cast("u32", handle)
	if err != nil {
		return 0, err
	}
	ms, err := mod.Handle.Cast("u32", timeoutMS)
	if err != nil {
		return 0, err
	}
	results, err := mod.Handle.Call(ctx, "wait-object", h, ms)
	if err != nil {
		return 0, err
	}
	if err := checks.LastCall(ctx, "wait-object", mod.Handle); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, errors.Wrap(errors.PhaseCall, errors.KindNativeCall, nil, "wait-object returned no value")
	}
	return uint32(results[0]), nil
}

// ProcessID returns the module's notion of the current process identifier.
func ProcessID(ctx context.Context) (uint32, error) {
	mod, err := loadModule(ctx)
	if err != nil {
		return 0, err
	}
	results, err := mod.Handle.Call(ctx, "process-id")
	if err != nil {
		return 0, err
	}
	if err := checks.LastCall(ctx, "process-id", mod.Handle); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, errors.Wrap(errors.PhaseCall, errors.KindNativeCall, nil, "process-id returned no value")
	}
	return uint32(results[0]), nil
}

// MessageText decodes a native error code into text. The module's message
// table is UTF-8 only; the encoding argument keeps call sites explicit.
func MessageText(ctx context.Context, code uint32, encoding string) (string, error) {
	if err := checks.Input("code", code, checks.Integer); err != nil {
		return "", err
	}
	if err := checks.Input("encoding", encoding, checks.UTF); err != nil {
		return "", err
	}
	if err := checks.Allowed("encoding", strings.ToLower(encoding), []string{"utf-8", "utf8"}); err != nil {
		return "", err
	}

	mod, err := loadModule(ctx)
	if err != nil {
		return "", err
	}
	return mod.Handle.FormatMessage(ctx, code)
}
