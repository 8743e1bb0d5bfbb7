// Command sysbind inspects and builds the native module that the library
// acquires at runtime.
//
//	sysbind load             acquire the module and report its provenance
//	sysbind compile -o dir   build the bundled definitions into dir
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sysbind/sysbind/cdefs"
	"github.com/sysbind/sysbind/compiler"
	"github.com/sysbind/sysbind/dist"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:           "sysbind",
		Short:         "Inspect and build the sysbind native module",
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				return nil
			}
			log, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			compiler.SetLogger(log)
			dist.SetLogger(log)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newLoadCmd(), newCompileCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Acquire the native module and report how it was obtained",
		Long: `Acquire the native module exactly as the library would: resolve a
prebuilt artifact along the search paths, or assemble and compile one on
demand when none is found. Honors SYSBIND_CONFIG, SYSBIND_PREBUILT and
SYSBIND_TOOLCHAIN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := dist.NewCache(dist.OptionsFromEnvironment())
			mod, err := cache.Load(cmd.Context())
			if err != nil {
				return err
			}
			defer mod.Handle.Close(cmd.Context())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "module:     %s\n", mod.Handle.Name())
			fmt.Fprintf(out, "provenance: %s\n", mod.Provenance)
			fmt.Fprintf(out, "mechanism:  %s\n", mod.Handle.Mechanism())

			fmt.Fprintln(out, "exports:")
			for _, name := range mod.Handle.Exports() {
				fmt.Fprintf(out, "  %s\n", name)
			}

			fmt.Fprintln(out, "constants:")
			for _, name := range cdefs.ConstantNames {
				if v, ok := mod.Handle.Constant(name); ok {
					fmt.Fprintf(out, "  %s = %d\n", name, v)
				}
			}
			return nil
		},
	}
}

func newCompileCmd() *cobra.Command {
	var (
		outDir    string
		toolchain []string
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Build the bundled definitions into a loadable artifact",
		Long: `Assemble the bundled interface definitions and run the external
toolchain over them, leaving the artifact and its sources in the output
directory. Useful for producing a prebuilt artifact to ship alongside the
library.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := cdefs.Assemble()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			c := &compiler.Compiler{Toolchain: toolchain}
			artifact, err := c.Compile(cmd.Context(), bundle, outDir)
			if err != nil {
				return err
			}

			// Name the artifact the way prebuilt resolution expects it.
			final := filepath.Join(outDir, dist.ModuleName+".wasm")
			if err := os.Rename(artifact.Path, final); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "artifact: %s\n", final)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory for the artifact")
	cmd.Flags().StringSliceVar(&toolchain, "toolchain", nil, "override the build toolchain command")
	return cmd
}
