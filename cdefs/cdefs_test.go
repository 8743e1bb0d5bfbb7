package cdefs

import (
	stderrors "errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sysbind/sysbind/errors"
)

func TestAssemble(t *testing.T) {
	bundle, err := Assemble()
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !strings.Contains(bundle.Implementation, "(module") {
		t.Error("implementation blob missing module form")
	}
	if !strings.Contains(bundle.Declarations, "close-handle: func") {
		t.Error("declarations blob missing close-handle signature")
	}
	if !strings.Contains(bundle.Declarations, "type handle = u32;") {
		t.Error("declarations blob missing handle alias")
	}

	// types.wit precedes functions.wit in the fixed fragment order.
	alias := strings.Index(bundle.Declarations, "type handle")
	sig := strings.Index(bundle.Declarations, "close-handle: func")
	if alias == -1 || sig == -1 || alias > sig {
		t.Error("declaration fragments assembled out of order")
	}
}

func TestAssembleFS_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"a.wit": {Data: []byte("first")},
		"b.wit": {Data: []byte("second")},
		"m.wat": {Data: []byte("(module)")},
	}

	bundle, err := AssembleFS(fsys, []string{"a.wit", "b.wit"}, []string{"m.wat"})
	if err != nil {
		t.Fatalf("AssembleFS failed: %v", err)
	}
	if bundle.Declarations != "first\nsecond\n" {
		t.Errorf("Declarations = %q, want %q", bundle.Declarations, "first\nsecond\n")
	}
	if bundle.Implementation != "(module)\n" {
		t.Errorf("Implementation = %q, want %q", bundle.Implementation, "(module)\n")
	}
}

func TestAssembleFS_MissingFragment(t *testing.T) {
	fsys := fstest.MapFS{
		"a.wit": {Data: []byte("first")},
	}

	bundle, err := AssembleFS(fsys, []string{"a.wit", "gone.wit"}, nil)
	if err == nil {
		t.Fatal("expected error for missing fragment")
	}

	var serr *errors.Error
	if !stderrors.As(err, &serr) {
		t.Fatalf("error %T is not a structured error", err)
	}
	if serr.Kind != errors.KindResourceNotFound {
		t.Errorf("Kind = %q, want resource_not_found", serr.Kind)
	}
	if !strings.Contains(serr.Error(), "gone.wit") {
		t.Errorf("error %q does not name the missing path", serr.Error())
	}

	// No partial blob on failure.
	if bundle.Declarations != "" || bundle.Implementation != "" {
		t.Errorf("expected empty bundle, got %+v", bundle)
	}
}
