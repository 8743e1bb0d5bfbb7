package loader

import (
	"context"
	"os"
	goruntime "runtime"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sysbind/sysbind/errors"
)

// strategy is one module-loading mechanism. Strategies are pure: they take
// artifact bytes and a symbolic name and either produce a loaded module or
// fail.
type strategy struct {
	name      string
	available func() bool
	load      func(ctx context.Context, wasm []byte, name string) (wazero.Runtime, api.Module, error)
}

// Tried in preference order. The compiling runtime is the modern mechanism;
// the interpreter covers platforms without native code generation.
var strategies = []strategy{
	{name: "compiler", available: compilerSupported, load: loadWith(wazero.NewRuntimeConfigCompiler)},
	{name: "interpreter", available: always, load: loadWith(wazero.NewRuntimeConfigInterpreter)},
}

func always() bool { return true }

func compilerSupported() bool {
	switch goruntime.GOARCH {
	case "amd64", "arm64":
	default:
		return false
	}
	switch goruntime.GOOS {
	case "linux", "darwin", "windows", "freebsd":
		return true
	}
	return false
}

func loadWith(config func() wazero.RuntimeConfig) func(context.Context, []byte, string) (wazero.Runtime, api.Module, error) {
	return func(ctx context.Context, wasm []byte, name string) (wazero.Runtime, api.Module, error) {
		rt := wazero.NewRuntimeWithConfig(ctx, config())
		mod, err := rt.InstantiateWithConfig(ctx, wasm, wazero.NewModuleConfig().WithName(name))
		if err != nil {
			rt.Close(ctx)
			return nil, nil, err
		}
		return rt, mod, nil
	}
}

// Import loads the compiled artifact at path into the process under the
// given symbolic name.
func Import(ctx context.Context, path, name string) (*Handle, error) {
	return ImportWithDeclarations(ctx, path, name, "")
}

// ImportWithDeclarations is Import with the assembled declaration blob
// attached to the handle, enabling named-type casts and signature lookups.
//
// The path must reference an existing regular file. A loading failure
// (malformed artifact, ABI mismatch) is fatal and is not retried on the
// fallback mechanism.
func ImportWithDeclarations(ctx context.Context, path, name, declarations string) (*Handle, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, errors.ResourceNotFound(errors.PhaseLoad, path)
	}

	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "read "+path)
	}

	for _, s := range strategies {
		if !s.available() {
			continue
		}
		rt, mod, err := s.load(ctx, wasm, name)
		if err != nil {
			return nil, errors.LoadFailed("import "+path, err)
		}
		return &Handle{
			name:      name,
			mechanism: s.name,
			decls:     declarations,
			rt:        rt,
			mod:       mod,
		}, nil
	}

	return nil, errors.Unsupported(errors.PhaseLoad, "no module loading mechanism available on this platform")
}
