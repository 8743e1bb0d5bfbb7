package compiler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sysbind/sysbind/capture"
	"github.com/sysbind/sysbind/cdefs"
	"github.com/sysbind/sysbind/errors"
)

// DefaultToolchain resolves the build tool from $PATH.
var DefaultToolchain = []string{"wat2wasm"}

// Artifact is a compiled, loadable module produced by Compile. The
// artifact is exclusively owned by the in-flight acquisition attempt until
// handed to the loader; after that TempRoot is discarded.
type Artifact struct {
	Path     string
	TempRoot string
}

// Discard best-effort removes the temporary build directory. Removal
// failure is logged, never escalated. No-op when the caller supplied the
// destination directory.
func (a Artifact) Discard() {
	if a.TempRoot == "" {
		return
	}
	if err := os.RemoveAll(a.TempRoot); err != nil {
		Logger().Warn("remove temp build dir",
			zap.String("dir", a.TempRoot), zap.Error(err))
	}
}

// Compiler invokes an external build toolchain to turn an assembled
// definition bundle into a loadable artifact.
type Compiler struct {
	// Toolchain is the command prefix; the source path and "-o <out>" are
	// appended. Empty means DefaultToolchain.
	Toolchain []string
}

// Compile writes the bundle into destDir and runs the toolchain over it.
// When destDir is empty a fresh uniquely-named temp directory is created
// and recorded as the artifact's TempRoot.
func (c *Compiler) Compile(ctx context.Context, bundle cdefs.Bundle, destDir string) (Artifact, error) {
	toolchain := c.Toolchain
	if len(toolchain) == 0 {
		toolchain = DefaultToolchain
	}

	tempRoot := ""
	if destDir == "" {
		dir, err := os.MkdirTemp("", "sysbind-")
		if err != nil {
			return Artifact{}, errors.Wrap(errors.PhaseCompile, errors.KindBuildFailed, err, "create temp dir")
		}
		destDir, tempRoot = dir, dir
	}
	cleanup := func() {
		if tempRoot == "" {
			return
		}
		if err := os.RemoveAll(tempRoot); err != nil {
			Logger().Warn("remove temp build dir",
				zap.String("dir", tempRoot), zap.Error(err))
		}
	}

	srcPath := filepath.Join(destDir, "module.wat")
	if err := os.WriteFile(srcPath, []byte(bundle.Implementation), 0o644); err != nil {
		cleanup()
		return Artifact{}, errors.Wrap(errors.PhaseCompile, errors.KindBuildFailed, err, "write implementation")
	}
	// The declarations ride along beside the artifact for inspection.
	declPath := filepath.Join(destDir, "module.wit")
	if err := os.WriteFile(declPath, []byte(bundle.Declarations), 0o644); err != nil {
		cleanup()
		return Artifact{}, errors.Wrap(errors.PhaseCompile, errors.KindBuildFailed, err, "write declarations")
	}

	outPath := filepath.Join(destDir, "module.wasm")
	if err := run(ctx, toolchain, srcPath, outPath); err != nil {
		cleanup()
		return Artifact{}, err
	}

	Logger().Debug("compiled native module",
		zap.String("artifact", outPath), zap.Strings("toolchain", toolchain))
	return Artifact{Path: outPath, TempRoot: tempRoot}, nil
}

// run executes the toolchain with stdout suppressed; stderr stays visible
// so synchronous failure messages are not lost. On failure the captured
// stdout is replayed to stderr before the error propagates.
func run(ctx context.Context, toolchain []string, srcPath, outPath string) error {
	guard, err := capture.Redirect(os.Stdout)
	if err != nil {
		return err
	}
	defer guard.Restore()

	argv := append(append([]string{}, toolchain...), srcPath, "-o", outPath)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout // redirected descriptor; the child inherits it
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	restoreErr := guard.Restore()

	if runErr != nil {
		if err := guard.Replay(os.Stderr); err != nil {
			Logger().Warn("replay captured build output", zap.Error(err))
		}
		removeCapture(guard)
		return errors.BuildFailed(fmt.Sprintf("run %v", argv), runErr)
	}
	if restoreErr != nil {
		removeCapture(guard)
		return restoreErr
	}
	removeCapture(guard)
	return nil
}

func removeCapture(guard *capture.Guard) {
	if err := guard.Remove(); err != nil {
		Logger().Warn("remove capture file", zap.Error(err))
	}
}
