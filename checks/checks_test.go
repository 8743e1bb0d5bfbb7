package checks

import (
	stderrors "errors"
	"os"
	"strings"
	"testing"

	"github.com/sysbind/sysbind/errors"
)

func TestInput_TypeGate(t *testing.T) {
	if err := Input("x", 1, String); err == nil {
		t.Error("integer should not satisfy the string category")
	}
	if err := Input("x", "a", String); err != nil {
		t.Errorf("string value rejected: %v", err)
	}
}

func TestInput_MultipleCategories(t *testing.T) {
	// At least one category has to match.
	if err := Input("x", 7, String, Integer); err != nil {
		t.Errorf("integer rejected by (string|integer): %v", err)
	}
	if err := Input("x", 1.5, String, Integer); err == nil {
		t.Error("float should not satisfy (string|integer)")
	}
}

func TestInput_ErrorPayload(t *testing.T) {
	err := Input("foobar", 1, String)
	if err == nil {
		t.Fatal("expected input error")
	}
	var serr *errors.Error
	if !stderrors.As(err, &serr) {
		t.Fatalf("error %T is not structured", err)
	}
	if serr.Name != "foobar" || serr.Value != 1 {
		t.Errorf("payload Name=%q Value=%v", serr.Name, serr.Value)
	}
	if len(serr.Accepted) != 1 || serr.Accepted[0] != "string" {
		t.Errorf("Accepted = %v", serr.Accepted)
	}
}

func TestInput_Handle(t *testing.T) {
	if err := Input("h", 42, Handle); err != nil {
		t.Errorf("valid handle rejected: %v", err)
	}
	if err := Input("h", uint32(0), Handle); err != nil {
		t.Errorf("zero handle rejected: %v", err)
	}
	if err := Input("h", -1, Handle); err == nil {
		t.Error("negative handle accepted")
	}
	if err := Input("h", int64(1)<<40, Handle); err == nil {
		t.Error("oversized handle accepted")
	}
	if err := Input("h", "5", Handle); err == nil {
		t.Error("string handle accepted")
	}
}

func TestInput_UTFFamily(t *testing.T) {
	for _, ok := range []string{"utf-8", "UTF-8", "utf-16-le", "utf8"} {
		if err := Input("encoding", ok, UTF); err != nil {
			t.Errorf("%q rejected: %v", ok, err)
		}
	}
	for _, bad := range []any{"latin-1", "ascii", 8, nil} {
		if err := Input("encoding", bad, UTF); err == nil {
			t.Errorf("%v accepted as a UTF encoding", bad)
		}
	}
}

func TestInput_FileLike(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "checks-")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	defer f.Close()

	if err := Input("file", f, FileLike); err != nil {
		t.Errorf("open *os.File rejected: %v", err)
	}
	if err := Input("file", f.Name(), FileLike); err == nil {
		t.Error("a path string is not file-like")
	}
	if err := Input("file", nil, FileLike); err == nil {
		t.Error("nil is not file-like")
	}
}

func TestInput_UnknownCategory(t *testing.T) {
	err := Input("x", 1, Category("wibble"))
	if err == nil {
		t.Fatal("unknown category should be an input error")
	}
	if errors.IsContract(err) {
		t.Error("unknown category must be an input error, not a contract violation")
	}
}

func TestAllowed(t *testing.T) {
	if err := Allowed("x", 1, []int{1}); err != nil {
		t.Errorf("member rejected: %v", err)
	}

	err := Allowed("x", 1, []int{2})
	if err == nil {
		t.Fatal("non-member accepted")
	}
	var serr *errors.Error
	if !stderrors.As(err, &serr) {
		t.Fatalf("error %T is not structured", err)
	}
	got, ok := serr.AllowedValues.([]int)
	if !ok || len(got) != 1 || got[0] != 2 {
		t.Errorf("AllowedValues payload = %v", serr.AllowedValues)
	}
	if !strings.Contains(err.Error(), "expected value for x to be in [2], got 1 instead") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestAllowed_ContractViolations(t *testing.T) {
	// A non-sequence allowed set is misuse by the caller, not bad input.
	err := Allowed("x", 1, 1)
	if !errors.IsContract(err) {
		t.Errorf("non-sequence allowed set: got %v, want contract violation", err)
	}

	err = Allowed("x", nil, nil)
	if !errors.IsContract(err) {
		t.Errorf("nil allowed set: got %v, want contract violation", err)
	}

	err = Allowed("x", 1, []int{})
	if !errors.IsContract(err) {
		t.Errorf("empty allowed set: got %v, want contract violation", err)
	}

	if errors.IsContract(Allowed("x", 1, []int{2})) {
		t.Error("ordinary membership failure must not be a contract violation")
	}
}
