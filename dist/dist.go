package dist

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/sysbind/sysbind/cdefs"
	"github.com/sysbind/sysbind/compiler"
	"github.com/sysbind/sysbind/errors"
	"github.com/sysbind/sysbind/loader"
)

// ModuleName is the fixed symbolic name of the native module. A prebuilt
// artifact is resolved as "<ModuleName>.wasm" in the search paths.
const ModuleName = "sysbind_native"

// Provenance records how the active module reached the process.
type Provenance string

const (
	Prebuilt         Provenance = "prebuilt"
	CompiledOnDemand Provenance = "compiled-on-demand"
)

// Module pairs the loaded handle with its provenance. Created at most once
// per cache; immutable for the remainder of the process once handed out.
type Module struct {
	Handle     *loader.Handle
	Provenance Provenance
}

// Options configures a Cache. Zero values fall back to the package
// defaults.
type Options struct {
	Compiler    *compiler.Compiler
	Assemble    func() (cdefs.Bundle, error)
	ModuleName  string
	SearchPaths []string
}

// Cache is the process-wide holder of the one loaded native module.
// Construct a fresh instance per test; production code shares Default().
type Cache struct {
	opts Options
	mod  *Module
	mu   sync.Mutex
}

func NewCache(opts Options) *Cache {
	if opts.ModuleName == "" {
		opts.ModuleName = ModuleName
	}
	if opts.Compiler == nil {
		opts.Compiler = &compiler.Compiler{}
	}
	if opts.Assemble == nil {
		opts.Assemble = cdefs.Assemble
	}
	if opts.SearchPaths == nil {
		opts.SearchPaths = defaultSearchPaths()
	}
	return &Cache{opts: opts}
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if exe, err := os.Executable(); err == nil {
		paths = append([]string{filepath.Dir(exe)}, paths...)
	}
	return paths
}

// Load returns the cached module, acquiring it on the first call. The hot
// path touches neither the filesystem nor a build; the cold path resolves
// a prebuilt artifact by name and only on a not-found miss falls back to
// assemble, compile, load. Safe for concurrent use: the mutex serializes
// the check-then-populate sequence so at most one compilation happens per
// cache lifetime.
func (c *Cache) Load(ctx context.Context) (*Module, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mod != nil {
		return c.mod, nil
	}

	path, err := c.resolvePrebuilt()
	if err == nil {
		handle, lerr := loader.Import(ctx, path, c.opts.ModuleName)
		if lerr != nil {
			// A present-but-unloadable artifact is a genuine failure;
			// falling back here would mask it.
			return nil, lerr
		}
		Logger().Debug("loaded prebuilt module", zap.String("path", path))
		c.populate(handle, Prebuilt)
		return c.mod, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	// Prebuilt module absent: assemble definitions, compile, load.
	bundle, err := c.opts.Assemble()
	if err != nil {
		return nil, err
	}

	artifact, err := c.opts.Compiler.Compile(ctx, bundle, "")
	if err != nil {
		return nil, err
	}

	handle, err := loader.ImportWithDeclarations(ctx, artifact.Path, c.opts.ModuleName, bundle.Declarations)
	if err != nil {
		artifact.Discard()
		return nil, err
	}
	// The module holds the compiled code in memory; the build directory
	// is no longer needed.
	artifact.Discard()

	Logger().Debug("compiled module on demand", zap.String("module", c.opts.ModuleName))
	c.populate(handle, CompiledOnDemand)
	return c.mod, nil
}

// populate enforces the single-population invariant: the first module wins
// and a second attempt is a logic warning, not fatal.
func (c *Cache) populate(handle *loader.Handle, provenance Provenance) {
	if c.mod != nil {
		Logger().Warn("module cache populated more than once; keeping the first instance",
			zap.String("ignored_provenance", string(provenance)))
		return
	}
	c.mod = &Module{Handle: handle, Provenance: provenance}
}

// resolvePrebuilt searches for "<module>.wasm" in the configured paths.
// Only a miss is reported as resource-not-found; any other stat failure
// propagates so it cannot be mistaken for an expected fallback trigger.
func (c *Cache) resolvePrebuilt() (string, error) {
	filename := c.opts.ModuleName + ".wasm"
	for _, dir := range c.opts.SearchPaths {
		path := filepath.Join(dir, filename)
		info, err := os.Stat(path)
		if err == nil {
			if info.Mode().IsRegular() {
				return path, nil
			}
			continue
		}
		if !os.IsNotExist(err) {
			return "", errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "stat "+path)
		}
	}
	return "", errors.ResourceNotFound(errors.PhaseLoad, filename)
}

var (
	defaultCache *Cache
	defaultOnce  sync.Once
)

// Default returns the process-wide cache, configured from the config file
// and environment on first use.
func Default() *Cache {
	defaultOnce.Do(func() {
		defaultCache = NewCache(OptionsFromEnvironment())
	})
	return defaultCache
}

// Load is the package entry point consumed by wrapped functions. Safe to
// call repeatedly and from multiple call sites; every call after the first
// successful one returns the same cached module.
func Load(ctx context.Context) (*Module, error) {
	return Default().Load(ctx)
}
