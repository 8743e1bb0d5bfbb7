// Package checks implements the per-call contract applied around every
// native invocation: input validation before the call, error translation
// after it.
//
// Every wrapped native function follows the same triplet, in order:
//
//	if err := checks.Input("handle", handle, checks.Handle); err != nil {
//	    return err
//	}
//	results, err := mod.Handle.Call(ctx, "close-handle", v)
//	if err != nil {
//	    return err
//	}
//	return checks.LastCall(ctx, "close-handle", mod.Handle)
//
// Input validates against a closed registry of named categories (exact
// type membership or semantic groupings like "file-like" and the UTF
// encoding family). Allowed validates membership in an explicit value set.
// LastCall reads the module's last-error signal and raises a structured
// NativeCall error with the decoded message when it indicates failure.
package checks
