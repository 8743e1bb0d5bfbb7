//go:build unix

package capture

import (
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/sysbind/sysbind/errors"
)

// Guard is a scoped redirection of a process output stream to a temp file.
// Acquire with Redirect, release with Restore. A Guard is not safe for
// concurrent use.
type Guard struct {
	stream   *os.File
	file     *os.File
	savedFD  int
	restored bool
}

// Redirect duplicates the stream's underlying descriptor, flushes it, and
// points the descriptor at a fresh temporary file. The original destination
// is restored by Restore, which the caller must run on every exit path.
//
// Must not be applied to the diagnostic stream (os.Stderr): failure
// messages written there have to stay visible.
func Redirect(stream *os.File) (*Guard, error) {
	if stream == nil {
		return nil, errors.Contract("capture: stream must not be nil")
	}

	fd := int(stream.Fd())
	saved, err := unix.Dup(fd)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCompile, errors.KindBuildFailed, err, "duplicate stream descriptor")
	}
	unix.CloseOnExec(saved)

	file, err := os.CreateTemp("", "sysbind-capture-")
	if err != nil {
		unix.Close(saved)
		return nil, errors.Wrap(errors.PhaseCompile, errors.KindBuildFailed, err, "create capture file")
	}

	// Flush anything buffered on the stream before the descriptor swap.
	stream.Sync()

	if err := dupTo(int(file.Fd()), fd); err != nil {
		unix.Close(saved)
		file.Close()
		os.Remove(file.Name())
		return nil, errors.Wrap(errors.PhaseCompile, errors.KindBuildFailed, err, "redirect stream descriptor")
	}

	return &Guard{stream: stream, file: file, savedFD: saved}, nil
}

// Path returns the location of the capture file.
func (g *Guard) Path() string {
	return g.file.Name()
}

// Restore flushes the stream, points its descriptor back at the original
// destination, and closes the duplicate. Safe to call more than once;
// only the first call does the swap.
func (g *Guard) Restore() error {
	if g.restored {
		return nil
	}
	g.restored = true

	g.stream.Sync()
	unix.Fsync(int(g.file.Fd()))

	swapErr := dupTo(g.savedFD, int(g.stream.Fd()))
	unix.Close(g.savedFD)
	g.file.Close()

	if swapErr != nil {
		return errors.Wrap(errors.PhaseCompile, errors.KindBuildFailed, swapErr, "restore stream descriptor")
	}
	return nil
}

// Replay copies the captured content to w, for diagnostic output after a
// failed protected region. Call after Restore.
func (g *Guard) Replay(w io.Writer) error {
	file, err := os.Open(g.file.Name())
	if err != nil {
		return errors.Wrap(errors.PhaseCompile, errors.KindBuildFailed, err, "open capture file")
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}

// Remove deletes the capture file. Best effort; the caller decides whether
// a failure here matters.
func (g *Guard) Remove() error {
	return os.Remove(g.file.Name())
}
