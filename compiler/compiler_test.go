//go:build unix

package compiler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sysbind/sysbind/cdefs"
	"github.com/sysbind/sysbind/errors"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// writeScript creates a fake toolchain invoked as: script <src> -o <out>.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-toolchain")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func testBundle() cdefs.Bundle {
	return cdefs.Bundle{
		Declarations:   "ping: func() -> u32;\n",
		Implementation: "(module)\n",
	}
}

func TestCompile_TempDir(t *testing.T) {
	script := writeScript(t, `echo "build noise on stdout"
printf '\0asm\1\0\0\0' > "$3"
`)
	c := &Compiler{Toolchain: []string{script}}

	art, err := c.Compile(context.Background(), testBundle(), "")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	defer art.Discard()

	if art.TempRoot == "" {
		t.Error("TempRoot should record the auto-created directory")
	}
	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.Equal(data, wasmMagic) {
		t.Errorf("artifact bytes %x, want %x", data, wasmMagic)
	}

	// The bundle was written next to the artifact for the toolchain.
	src, err := os.ReadFile(filepath.Join(art.TempRoot, "module.wat"))
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if string(src) != "(module)\n" {
		t.Errorf("source = %q", src)
	}

	art.Discard()
	if _, err := os.Stat(art.TempRoot); !os.IsNotExist(err) {
		t.Error("Discard did not remove the temp directory")
	}
}

func TestCompile_CallerDir(t *testing.T) {
	script := writeScript(t, `printf '\0asm\1\0\0\0' > "$3"
`)
	c := &Compiler{Toolchain: []string{script}}
	dest := t.TempDir()

	art, err := c.Compile(context.Background(), testBundle(), dest)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if art.TempRoot != "" {
		t.Error("TempRoot must be empty for a caller-supplied directory")
	}
	if filepath.Dir(art.Path) != dest {
		t.Errorf("artifact %q not in %q", art.Path, dest)
	}

	// Discard must not touch a caller-supplied directory.
	art.Discard()
	if _, err := os.Stat(art.Path); err != nil {
		t.Errorf("artifact removed by Discard: %v", err)
	}
}

func TestCompile_BuildFailure(t *testing.T) {
	script := writeScript(t, `echo "stdout diagnostics worth replaying"
exit 1
`)
	c := &Compiler{Toolchain: []string{script}}

	_, err := c.Compile(context.Background(), testBundle(), "")
	if err == nil {
		t.Fatal("expected build failure")
	}
	serr, ok := err.(*errors.Error)
	if !ok || serr.Kind != errors.KindBuildFailed {
		t.Errorf("expected build_failed, got %v", err)
	}
	if serr.Unwrap() == nil {
		t.Error("build failure should carry the toolchain error")
	}
}

func TestCompile_MissingToolchain(t *testing.T) {
	c := &Compiler{Toolchain: []string{"/does/not/exist/wat2wasm"}}

	_, err := c.Compile(context.Background(), testBundle(), "")
	if err == nil {
		t.Fatal("expected failure for missing toolchain binary")
	}
	if !stderrorsIs(err, errors.KindBuildFailed) {
		t.Errorf("expected build_failed, got %v", err)
	}
}

func stderrorsIs(err error, kind errors.Kind) bool {
	serr, ok := err.(*errors.Error)
	return ok && serr.Kind == kind
}
