// Package loader imports a compiled native-module artifact into the
// running process and wraps it in a Handle.
//
// Two loading mechanisms exist, tried in preference order: the compiling
// wazero runtime (native code generation, preferred) and the interpreter
// (available everywhere). The mechanism choice is about platform support
// only; a malformed artifact fails the import outright and is never
// retried on the fallback mechanism.
//
// The Handle is the only surface the rest of the library sees: the export
// table, exported constants, linear-memory reads, named-type casts, and
// the last-error protocol (last-error / format-message exports) that the
// error translator consumes.
package loader
