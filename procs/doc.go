// Package procs wraps the functions exported by the native module.
//
// Every wrapper is the same thin triplet: validate the arguments with
// package checks, invoke the cached module's export, translate the
// last-error signal with checks.LastCall. Validation failures surface
// before any native call happens; native failures surface as structured
// NativeCall errors with a decoded message.
package procs
