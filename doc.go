// Package sysbind mediates between application code and a native extension
// module exposing OS-API-shaped functions.
//
// The library guarantees that exactly one usable native module is available
// to the process: either a prebuilt artifact resolved by its fixed name, or
// one synthesized on demand from interface-definition fragments and compiled
// just-in-time with an external toolchain. Around every native invocation it
// enforces a strict call contract: validate arguments before the call,
// translate the native last-error signal into a structured error after it.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	sysbind/             Root package (documentation only)
//	├── dist/            Module cache and the process-wide load entry point
//	├── cdefs/           Interface-definition fragment assembly
//	├── compiler/        On-demand compilation via an external toolchain
//	├── loader/          Dynamic loading and the module handle
//	├── capture/         Scoped suppression of a process output stream
//	├── checks/          Input validation and native error translation
//	├── procs/           Wrapped native functions built on the call contract
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Load the native module and call through it:
//
//	mod, err := dist.Load(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(mod.Provenance) // "prebuilt" or "compiled-on-demand"
//
//	results, err := mod.Handle.Call(ctx, "process-id")
//
// Or use a wrapped function, which applies the full per-call contract:
//
//	if err := procs.CloseHandle(ctx, handle); err != nil {
//	    var nerr *errors.Error
//	    if stderrors.As(err, &nerr) {
//	        fmt.Println(nerr.Operation, nerr.Code, nerr.Message)
//	    }
//	}
//
// # The Per-Call Contract
//
// Every wrapped function follows the same triplet, in order:
//
//	checks.Input(...)            validate argument types and categories
//	handle.Call(...)             invoke the native function
//	checks.LastCall(...)         translate the last-error signal
//
// LastCall must run immediately after the call it guards, on the same
// goroutine, before any other native call can overwrite the signal.
//
// # Thread Safety
//
// dist.Load is safe to call concurrently; at most one compilation happens
// per process. The cached module handle is shared read-only by all callers
// once populated.
package sysbind
