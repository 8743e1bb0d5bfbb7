// Package compiler turns an assembled definition bundle into a loadable
// native-module artifact by invoking an external build toolchain.
//
// The build step tends to be noisy, so the toolchain runs with the
// process's stdout suppressed into a temporary capture file (see package
// capture). stderr is never suppressed. When the build fails, the captured
// stdout is replayed to stderr before the failure propagates, so operators
// keep visibility into why compilation failed.
//
// The temporary build directory outlives Compile only long enough for the
// caller to load the artifact; Artifact.Discard then removes it best
// effort.
package compiler
