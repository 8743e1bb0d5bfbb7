package loader

import (
	"math"
	"testing"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/sysbind/sysbind/errors"
)

const testDecls = `
// Named native types.
type handle = u32;
type millis = u32;
type status = u32;

last-error: func() -> u32;
format-message: func(code: u32) -> (ptr: u32, len: u32);
close-handle: func(handle: handle) -> status;
wait-object: func(handle: handle, timeout-ms: millis) -> status;
process-id: func() -> u32;
`

func TestCast(t *testing.T) {
	h := &Handle{decls: testDecls}

	tests := []struct {
		name     string
		typeName string
		value    any
		want     uint64
		wantErr  bool
	}{
		{"u32 from int", "u32", 42, 42, false},
		{"u32 from uint64", "u32", uint64(7), 7, false},
		{"u32 negative", "u32", -1, 0, true},
		{"u32 overflow", "u32", int64(1) << 33, 0, true},
		{"u8 overflow", "u8", 256, 0, true},
		{"u64 max", "u64", uint64(math.MaxUint64), math.MaxUint64, false},
		{"alias handle", "handle", 5, 5, false},
		{"alias millis", "millis", 250, 250, false},
		{"bool true", "bool", true, 1, false},
		{"bool false", "bool", false, 0, false},
		{"bool from int", "bool", 1, 0, true},
		{"s32 negative", "s32", -2, api.EncodeI32(-2), false},
		{"s32 overflow", "s32", int64(math.MaxInt32) + 1, 0, true},
		{"f64", "f64", 1.5, api.EncodeF64(1.5), false},
		{"string value rejected", "u32", "nope", 0, true},
		{"unknown type", "wibble", 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Cast(tt.typeName, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Cast(%q, %v) succeeded, want error", tt.typeName, tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Cast(%q, %v) failed: %v", tt.typeName, tt.value, err)
			}
			if got != tt.want {
				t.Errorf("Cast(%q, %v) = %d, want %d", tt.typeName, tt.value, got, tt.want)
			}
		})
	}
}

func TestCastWithoutDeclarations(t *testing.T) {
	h := &Handle{}

	// Builtins still work without a declaration blob.
	if got, err := h.Cast("u32", 9); err != nil || got != 9 {
		t.Errorf("Cast(u32, 9) = %d, %v", got, err)
	}
	// Aliases do not.
	if _, err := h.Cast("handle", 9); err == nil {
		t.Error("alias cast should fail without declarations")
	}
}

func TestSignature(t *testing.T) {
	h := &Handle{decls: testDecls}

	params, results, err := h.Signature("close-handle")
	if err != nil {
		t.Fatalf("Signature(close-handle) failed: %v", err)
	}
	if len(params) != 1 || len(results) != 1 {
		t.Fatalf("close-handle: %d params, %d results; want 1, 1", len(params), len(results))
	}
	if _, ok := params[0].(wit.U32); !ok {
		t.Errorf("close-handle param type %T, want wit.U32 (via handle alias)", params[0])
	}

	params, results, err = h.Signature("format-message")
	if err != nil {
		t.Fatalf("Signature(format-message) failed: %v", err)
	}
	if len(params) != 1 || len(results) != 2 {
		t.Errorf("format-message: %d params, %d results; want 1, 2", len(params), len(results))
	}

	params, results, err = h.Signature("last-error")
	if err != nil {
		t.Fatalf("Signature(last-error) failed: %v", err)
	}
	if len(params) != 0 || len(results) != 1 {
		t.Errorf("last-error: %d params, %d results; want 0, 1", len(params), len(results))
	}

	if _, _, err := h.Signature("no-such-function"); err == nil {
		t.Error("expected error for undeclared function")
	}
}

func TestSignatureWithoutDeclarations(t *testing.T) {
	h := &Handle{}
	_, _, err := h.Signature("close-handle")
	if err == nil {
		t.Fatal("expected error when no declarations are attached")
	}
	serr, ok := err.(*errors.Error)
	if !ok || serr.Kind != errors.KindResourceNotFound {
		t.Errorf("expected resource_not_found, got %v", err)
	}
}
