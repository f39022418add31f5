// Package values supplies the concrete value taxonomy the rule engine is
// exercised against. The engine core only requires comparability and a
// Kind tag on every value; this package is one way to satisfy that,
// not a dependency of internal/compiler or internal/engine.
package values

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Kind tags the measurement/actuation data type of a Value.
type Kind string

const (
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindString Kind = "string"
)

// Value is a sealed interface: only Number, Bool, and String implement it.
// Cross-type equality is always false; cross-type ordering is undefined and
// Compare panics on it.
type Value interface {
	valueMarker()
	Kind() Kind
}

// Number is an ordered int64-backed value (e.g. a temperature reading).
type Number int64

func (Number) valueMarker() {}
func (Number) Kind() Kind   { return KindNumber }

// Bool is a boolean-valued reading (e.g. a door-open sensor).
type Bool bool

func (Bool) valueMarker() {}
func (Bool) Kind() Kind   { return KindBool }

// String is a Unicode-collated text value.
type String string

func (String) valueMarker() {}
func (String) Kind() Kind   { return KindString }

var collator = collate.New(language.Und)

// Equal reports whether a and b represent the same value. Values of
// different Kind are never equal.
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Number:
		return av == b.(Number)
	case Bool:
		return av == b.(Bool)
	case String:
		return collator.CompareString(string(av), string(b.(String))) == 0
	default:
		return false
	}
}

// Compare orders a against b within a shared Kind: negative if a < b, zero
// if equal, positive if a > b. Compare panics if a and b have different
// Kinds — callers must check Kind equality first, exactly like Contains
// does before ever calling Compare.
func Compare(a, b Value) int {
	if a.Kind() != b.Kind() {
		panic(fmt.Sprintf("values: Compare across kinds %s/%s", a.Kind(), b.Kind()))
	}
	switch av := a.(type) {
	case Number:
		bv := b.(Number)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case Bool:
		av2, bv2 := av, b.(Bool)
		if av2 == bv2 {
			return 0
		}
		if !av2 && bv2 {
			return -1
		}
		return 1
	case String:
		return collator.CompareString(string(av), string(b.(String)))
	default:
		panic(fmt.Sprintf("values: Compare: unknown value type %T", a))
	}
}
