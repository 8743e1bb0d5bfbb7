// Package capture provides scoped suppression of a process output stream.
//
// The compile step of the on-demand build tends to be noisy, so the
// compiler wraps it in a Guard that redirects stdout to a temporary file
// for the duration of the build:
//
//	guard, err := capture.Redirect(os.Stdout)
//	if err != nil {
//	    return err
//	}
//	defer guard.Restore()
//
//	if err := runBuild(); err != nil {
//	    guard.Restore()
//	    guard.Replay(os.Stderr) // keep the build output visible on failure
//	    guard.Remove()
//	    return err
//	}
//	guard.Remove()
//
// Redirection happens at the file-descriptor level (dup/dup2), so output
// from child processes inheriting the descriptor is captured too. The
// guard must never be applied to os.Stderr.
package capture
