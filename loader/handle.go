package loader

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/sysbind/sysbind/errors"
)

// Handle is the opaque reference to the loaded native module. It exposes
// the export table, a cast facility for named native types, and the
// last-error protocol consumed by the error translator.
//
// A Handle is shared read-only by all callers once the cache hands it out;
// it lives for the remainder of the process.
type Handle struct {
	rt        wazero.Runtime
	mod       api.Module
	sigs      map[string]signature
	aliases   map[string]string
	sigErr    error
	name      string
	mechanism string
	decls     string
	sigOnce   sync.Once
}

func (h *Handle) Name() string { return h.name }

// Mechanism reports which loading strategy produced the handle.
func (h *Handle) Mechanism() string { return h.mechanism }

// Func returns the exported function with the given name, if any.
func (h *Handle) Func(name string) (api.Function, bool) {
	fn := h.mod.ExportedFunction(name)
	return fn, fn != nil
}

// Call invokes an exported function with stack-encoded parameters.
func (h *Handle) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := h.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindResourceNotFound, nil,
			fmt.Sprintf("function %q is not exported by %s", name, h.name))
	}
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindNativeCall, err, "call "+name)
	}
	return results, nil
}

// Constant returns the value of an exported constant.
func (h *Handle) Constant(name string) (uint64, bool) {
	g := h.mod.ExportedGlobal(name)
	if g == nil {
		return 0, false
	}
	return g.Get(), true
}

// Exports returns the sorted names of the exported functions.
func (h *Handle) Exports() []string {
	defs := h.mod.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadString copies length bytes at ptr out of the module's linear memory.
func (h *Handle) ReadString(ptr, length uint32) (string, error) {
	mem := h.mod.Memory()
	if mem == nil {
		return "", errors.Wrap(errors.PhaseCall, errors.KindNativeCall, nil, "module exports no memory")
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return "", errors.Wrap(errors.PhaseCall, errors.KindNativeCall, nil,
			fmt.Sprintf("memory read [%d, %d) out of range", ptr, ptr+length))
	}
	return string(data), nil
}

// LastError reads the module's last-error signal. The value reflects the
// most recent native call on the caller's goroutine; read it before any
// other native call can overwrite it.
func (h *Handle) LastError(ctx context.Context) (uint32, error) {
	results, err := h.Call(ctx, "last-error")
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, errors.Wrap(errors.PhaseCall, errors.KindNativeCall, nil, "last-error returned no value")
	}
	return uint32(results[0]), nil
}

// FormatMessage decodes an error code through the module's message table.
func (h *Handle) FormatMessage(ctx context.Context, code uint32) (string, error) {
	results, err := h.Call(ctx, "format-message", uint64(code))
	if err != nil {
		return "", err
	}
	if len(results) < 2 {
		return "", errors.Wrap(errors.PhaseCall, errors.KindNativeCall, nil, "format-message returned no (ptr, len) pair")
	}
	ptr, length := uint32(results[0]), uint32(results[1])
	if length == 0 {
		return "", errors.Wrap(errors.PhaseCall, errors.KindNativeCall, nil,
			fmt.Sprintf("no message table entry for code %d", code))
	}
	return h.ReadString(ptr, length)
}

// Close releases the loaded module and its runtime. Only tests should need
// this; the cached production handle lives for the process lifetime.
func (h *Handle) Close(ctx context.Context) error {
	return h.rt.Close(ctx)
}

// Cast coerces a Go numeric, boolean, or rune value into the stack
// encoding of the named native type. Type names resolve through the
// declaration aliases first (e.g. "handle" -> u32), then as WIT builtins.
func (h *Handle) Cast(typeName string, value any) (uint64, error) {
	h.parseDecls()

	t, err := h.parseType(typeName)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseValidate, errors.KindInvalidInput, err,
			fmt.Sprintf("unknown native type %q", typeName))
	}

	switch t.(type) {
	case wit.Bool:
		b, ok := value.(bool)
		if !ok {
			return 0, errors.Input(typeName, value, []string{"bool"})
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case wit.U8:
		return castUnsigned(typeName, value, math.MaxUint8)
	case wit.U16:
		return castUnsigned(typeName, value, math.MaxUint16)
	case wit.U32:
		return castUnsigned(typeName, value, math.MaxUint32)
	case wit.U64:
		return castUnsigned(typeName, value, math.MaxUint64)
	case wit.S8:
		return castSigned(typeName, value, math.MinInt8, math.MaxInt8, 32)
	case wit.S16:
		return castSigned(typeName, value, math.MinInt16, math.MaxInt16, 32)
	case wit.S32:
		return castSigned(typeName, value, math.MinInt32, math.MaxInt32, 32)
	case wit.S64:
		return castSigned(typeName, value, math.MinInt64, math.MaxInt64, 64)
	case wit.F32:
		f, err := toFloat(typeName, value)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(f)), nil
	case wit.F64:
		f, err := toFloat(typeName, value)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(f), nil
	case wit.Char:
		r, ok := value.(rune)
		if !ok {
			return 0, errors.Input(typeName, value, []string{"rune"})
		}
		return uint64(uint32(r)), nil
	default:
		return 0, errors.Unsupported(errors.PhaseValidate, fmt.Sprintf("cast to %s", typeName))
	}
}

func castUnsigned(typeName string, value any, max uint64) (uint64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 || uint64(i) > max {
			return 0, errors.Input(typeName, value, []string{fmt.Sprintf("integer in [0, %d]", max)})
		}
		return uint64(i), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > max {
			return 0, errors.Input(typeName, value, []string{fmt.Sprintf("integer in [0, %d]", max)})
		}
		return u, nil
	default:
		return 0, errors.Input(typeName, value, []string{"integer"})
	}
}

func castSigned(typeName string, value any, min, max int64, width int) (uint64, error) {
	rv := reflect.ValueOf(value)
	var i int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errors.Input(typeName, value, []string{fmt.Sprintf("integer in [%d, %d]", min, max)})
		}
		i = int64(u)
	default:
		return 0, errors.Input(typeName, value, []string{"integer"})
	}
	if i < min || i > max {
		return 0, errors.Input(typeName, value, []string{fmt.Sprintf("integer in [%d, %d]", min, max)})
	}
	if width == 32 {
		return api.EncodeI32(int32(i)), nil
	}
	return api.EncodeI64(i), nil
}

func toFloat(typeName string, value any) (float64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	default:
		return 0, errors.Input(typeName, value, []string{"float", "integer"})
	}
}

type signature struct {
	params  []wit.Type
	results []wit.Type
}

// Signature returns the declared param and result types for an exported
// function. Declarations are parsed lazily on first use.
func (h *Handle) Signature(name string) ([]wit.Type, []wit.Type, error) {
	h.parseDecls()
	if h.sigErr != nil {
		return nil, nil, h.sigErr
	}
	sig, ok := h.sigs[name]
	if !ok {
		return nil, nil, errors.Wrap(errors.PhaseValidate, errors.KindResourceNotFound, nil,
			fmt.Sprintf("no declaration for %q", name))
	}
	return sig.params, sig.results, nil
}

var (
	aliasPattern = regexp.MustCompile(`(?m)^\s*type\s+([a-z][a-z0-9-]*)\s*=\s*([a-z][a-z0-9-]*)\s*;`)
	funcPattern  = regexp.MustCompile(`(?m)^\s*([a-z][a-z0-9-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?\s*;`)
)

func (h *Handle) parseDecls() {
	h.sigOnce.Do(func() {
		h.aliases = make(map[string]string)
		h.sigs = make(map[string]signature)
		if h.decls == "" {
			return
		}

		for _, m := range aliasPattern.FindAllStringSubmatch(h.decls, -1) {
			h.aliases[m[1]] = m[2]
		}

		for _, m := range funcPattern.FindAllStringSubmatch(h.decls, -1) {
			sig, err := h.parseSignature(m[2], m[3])
			if err != nil {
				h.sigErr = err
				return
			}
			h.sigs[m[1]] = sig
		}
	})
}

func (h *Handle) parseSignature(paramsStr, resultStr string) (signature, error) {
	var sig signature

	for _, part := range splitList(paramsStr) {
		t, err := h.parseType(typeOf(part))
		if err != nil {
			return sig, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "parse param type "+part)
		}
		sig.params = append(sig.params, t)
	}

	resultStr = strings.TrimSpace(resultStr)
	if resultStr == "" || resultStr == "()" {
		return sig, nil
	}
	if strings.HasPrefix(resultStr, "(") && strings.HasSuffix(resultStr, ")") {
		inner := strings.TrimSuffix(strings.TrimPrefix(resultStr, "("), ")")
		for _, part := range splitList(inner) {
			t, err := h.parseType(typeOf(part))
			if err != nil {
				return sig, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "parse result type "+part)
			}
			sig.results = append(sig.results, t)
		}
		return sig, nil
	}

	t, err := h.parseType(typeOf(resultStr))
	if err != nil {
		return sig, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "parse result type "+resultStr)
	}
	sig.results = []wit.Type{t}
	return sig, nil
}

// parseType resolves declaration aliases, then parses the name as a WIT
// builtin.
func (h *Handle) parseType(name string) (wit.Type, error) {
	name = strings.TrimSpace(name)
	for range 8 { // alias chains are short; bail out on cycles
		target, ok := h.aliases[name]
		if !ok {
			break
		}
		name = target
	}
	return wit.ParseType(name)
}

// typeOf strips an optional "name:" prefix from a param or result entry.
func typeOf(entry string) string {
	if idx := strings.LastIndex(entry, ":"); idx != -1 {
		return strings.TrimSpace(entry[idx+1:])
	}
	return strings.TrimSpace(entry)
}

func splitList(s string) []string {
	var parts []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
