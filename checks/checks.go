package checks

import (
	"math"
	"reflect"
	"strings"

	"github.com/sysbind/sysbind/errors"
)

// Category is a named semantic grouping of acceptable argument shapes,
// broader than an exact type match.
type Category string

const (
	String   Category = "string"
	Integer  Category = "integer"
	Float    Category = "float"
	Bool     Category = "bool"
	Bytes    Category = "bytes"
	Handle   Category = "handle"     // non-negative integer that fits a native handle
	FileLike Category = "file-like"  // open file with an OS descriptor
	UTF      Category = "utf-family" // name of a UTF encoding
)

// fdFile is how file-likeness is decided: the value must expose an OS
// descriptor, which rules out plain paths and closed wrappers.
type fdFile interface {
	Fd() uintptr
}

var utfEncodings = map[string]struct{}{
	"utf-8":     {},
	"utf8":      {},
	"utf-16":    {},
	"utf-16le":  {},
	"utf-16-le": {},
	"utf-16be":  {},
	"utf-16-be": {},
	"utf-32":    {},
}

// registry is the closed set of resolvable categories. Resolution goes
// through this table so the valid categories are statically enumerable.
var registry = map[Category]func(any) bool{
	String: func(v any) bool {
		_, ok := v.(string)
		return ok
	},
	Integer: isInteger,
	Float: func(v any) bool {
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	},
	Bool: func(v any) bool {
		_, ok := v.(bool)
		return ok
	},
	Bytes: func(v any) bool {
		_, ok := v.([]byte)
		return ok
	},
	Handle: isHandle,
	FileLike: func(v any) bool {
		_, ok := v.(fdFile)
		return ok
	},
	UTF: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, ok = utfEncodings[strings.ToLower(s)]
		return ok
	},
}

func isInteger(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isHandle(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		return i >= 0 && uint64(i) <= math.MaxUint32
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() <= math.MaxUint32
	default:
		return false
	}
}

// Input checks that value satisfies at least one of the accepted
// categories. An unknown category is itself an input error, never a panic.
func Input(name string, value any, accepted ...Category) error {
	for _, category := range accepted {
		match, ok := registry[category]
		if !ok {
			return errors.Input(name, value, []string{string(category) + " (unresolvable category)"})
		}
		if match(value) {
			return nil
		}
	}
	return errors.Input(name, value, categoryNames(accepted))
}

// Allowed checks that value is a member of the allowed set. The set must
// be a non-empty slice or array; anything else is a programming-contract
// violation, distinct from an ordinary input error.
func Allowed(name string, value, allowed any) error {
	rv := reflect.ValueOf(allowed)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return errors.Contract("allowed values for %q must be a slice or array, got %T", name, allowed)
	}
	if rv.Len() == 0 {
		return errors.Contract("allowed values for %q must not be empty", name)
	}

	for i := 0; i < rv.Len(); i++ {
		if reflect.DeepEqual(rv.Index(i).Interface(), value) {
			return nil
		}
	}
	return errors.AllowedValues(name, value, allowed)
}

func categoryNames(categories []Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return names
}
