// Package dist guarantees that exactly one usable native module is
// available to the process.
//
// The first Load resolves a prebuilt artifact by the fixed module name;
// when none is found it assembles the interface definitions, compiles them
// just-in-time with the external toolchain, and imports the result. Every
// later Load returns the same cached module unconditionally, tagged with
// its provenance:
//
//	mod, err := dist.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(mod.Provenance) // "prebuilt" or "compiled-on-demand"
//
// Only the loaded module is cached; definition bundles are assembled fresh
// on every cold attempt and temporary build directories are discarded once
// the artifact has been imported.
//
// Tests construct a fresh Cache per test instead of sharing the default:
//
//	cache := dist.NewCache(dist.Options{SearchPaths: []string{dir}})
package dist
