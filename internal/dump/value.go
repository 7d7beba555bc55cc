// Package dump serializes bound trees for inspection, golden tests and
// snapshots.
//
// A tree is first converted to a small JSON-shaped value model (Object,
// Array, String, Int, Bool), which has two encodings: RFC 8785 canonical
// JSON, the basis of the content hash, and canonical CBOR for compact
// snapshot files. Floats and nulls never appear in the model; constants
// are carried as kind plus spelling.
package dump

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface for snapshot values.
type Value interface {
	dumpValue() // Sealed - only the types below implement it
}

// String is a snapshot string.
type String string

// Int is a snapshot integer.
type Int int64

// Bool is a snapshot boolean.
type Bool bool

// Array is an ordered snapshot list.
type Array []Value

// Object is a snapshot map. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (String) dumpValue() {}
func (Int) dumpValue()    {}
func (Bool) dumpValue()   {}
func (Array) dumpValue()  {}
func (Object) dumpValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's native string order compares UTF-8 bytes, which differs for
// characters outside the Basic Multilingual Plane.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
