// Package ranges implements the Range predicate family over values.Value:
// Leq, Geq, Eq, BetweenEq, OutOfStrict, and Any.
package ranges

import "github.com/hearthbox/rulehub/internal/values"

// Range is a sealed interface over the predicate variants.
type Range interface {
	rangeMarker()

	// Contains reports whether v satisfies the predicate. Values of a kind
	// incompatible with the range always yield false, never a panic.
	Contains(v values.Value) bool

	// Type infers the range's value kind. ok is false only for Any, whose
	// type is unconstrained (Ok(None) in the source terminology); err is
	// non-nil when a BetweenEq/OutOfStrict straddles incompatible kinds.
	Type() (kind values.Kind, ok bool, err error)
}

// ErrIncompatibleKinds is returned by Type when a two-sided range mixes
// value kinds across its bounds.
type ErrIncompatibleKinds struct {
	Min, Max values.Kind
}

func (e *ErrIncompatibleKinds) Error() string {
	return "ranges: incompatible kinds " + string(e.Min) + " and " + string(e.Max)
}

// Leq accepts x <= V.
type Leq struct{ V values.Value }

func (Leq) rangeMarker() {}
func (r Leq) Contains(v values.Value) bool {
	if v.Kind() != r.V.Kind() {
		return false
	}
	return values.Compare(v, r.V) <= 0
}
func (r Leq) Type() (values.Kind, bool, error) { return r.V.Kind(), true, nil }

// Geq accepts x >= V.
type Geq struct{ V values.Value }

func (Geq) rangeMarker() {}
func (r Geq) Contains(v values.Value) bool {
	if v.Kind() != r.V.Kind() {
		return false
	}
	return values.Compare(v, r.V) >= 0
}
func (r Geq) Type() (values.Kind, bool, error) { return r.V.Kind(), true, nil }

// Eq accepts x == V.
type Eq struct{ V values.Value }

func (Eq) rangeMarker() {}
func (r Eq) Contains(v values.Value) bool {
	return values.Equal(v, r.V)
}
func (r Eq) Type() (values.Kind, bool, error) { return r.V.Kind(), true, nil }

// BetweenEq accepts min <= x <= max. Empty (never Contains) when Max < Min.
type BetweenEq struct{ Min, Max values.Value }

func (BetweenEq) rangeMarker() {}
func (r BetweenEq) Contains(v values.Value) bool {
	if v.Kind() != r.Min.Kind() || v.Kind() != r.Max.Kind() {
		return false
	}
	if values.Compare(r.Max, r.Min) < 0 {
		return false
	}
	return values.Compare(v, r.Min) >= 0 && values.Compare(v, r.Max) <= 0
}
func (r BetweenEq) Type() (values.Kind, bool, error) {
	if r.Min.Kind() != r.Max.Kind() {
		return "", false, &ErrIncompatibleKinds{Min: r.Min.Kind(), Max: r.Max.Kind()}
	}
	return r.Min.Kind(), true, nil
}

// OutOfStrict accepts x < min OR max < x.
type OutOfStrict struct{ Min, Max values.Value }

func (OutOfStrict) rangeMarker() {}
func (r OutOfStrict) Contains(v values.Value) bool {
	if v.Kind() != r.Min.Kind() || v.Kind() != r.Max.Kind() {
		return false
	}
	return values.Compare(v, r.Min) < 0 || values.Compare(r.Max, v) < 0
}
func (r OutOfStrict) Type() (values.Kind, bool, error) {
	if r.Min.Kind() != r.Max.Kind() {
		return "", false, &ErrIncompatibleKinds{Min: r.Min.Kind(), Max: r.Max.Kind()}
	}
	return r.Min.Kind(), true, nil
}

// Any accepts every value, regardless of kind.
type Any struct{}

func (Any) rangeMarker()                      {}
func (Any) Contains(values.Value) bool        { return true }
func (Any) Type() (values.Kind, bool, error)  { return "", false, nil }
