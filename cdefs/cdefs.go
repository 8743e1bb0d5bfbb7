package cdefs

import (
	"embed"
	stderrors "errors"
	"io/fs"
	"strings"

	"github.com/sysbind/sysbind/errors"
)

//go:embed defs
var defsFS embed.FS

// Fragment lists are fixed and ordered; assembly concatenates them as-is.
var (
	DeclarationFiles = []string{
		"defs/types.wit",
		"defs/functions.wit",
	}
	ImplementationFiles = []string{
		"defs/module.wat",
	}

	// ConstantNames lists the constants the bundled module exports. Globals
	// cannot be enumerated through a loaded handle, only fetched by name.
	ConstantNames = []string{
		"ERROR_SUCCESS",
		"ERROR_INVALID_HANDLE",
		"WAIT_OBJECT_0",
		"WAIT_TIMEOUT",
		"WAIT_FAILED",
	}
)

// Bundle holds the two assembled definition blobs consumed by the compiler.
type Bundle struct {
	Declarations   string
	Implementation string
}

// Assemble builds the bundle from the embedded fragment lists.
func Assemble() (Bundle, error) {
	return AssembleFS(defsFS, DeclarationFiles, ImplementationFiles)
}

// AssembleFS builds a bundle from explicit fragment lists resolved against
// fsys. A missing fragment fails the whole assembly; no partial blob is
// returned.
func AssembleFS(fsys fs.FS, declarations, implementation []string) (Bundle, error) {
	decls, err := concat(fsys, declarations)
	if err != nil {
		return Bundle{}, err
	}
	impl, err := concat(fsys, implementation)
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{Declarations: decls, Implementation: impl}, nil
}

func concat(fsys fs.FS, paths []string) (string, error) {
	var b strings.Builder
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return "", errors.ResourceNotFound(errors.PhaseAssemble, path)
			}
			return "", errors.Wrap(errors.PhaseAssemble, errors.KindResourceNotFound, err, "read "+path)
		}
		b.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
