// Package compiled defines the checked abstract syntax tree: the output of
// internal/compiler.Compile. It has the same shape as internal/ast but every
// selector carries the kind annotation its enclosing Match/Statement
// established, so subscription and send requests downstream are
// type-constrained without re-deriving the kind each time.
package compiled

import (
	"github.com/hearthbox/rulehub/internal/ranges"
	"github.com/hearthbox/rulehub/internal/values"
)

// Selector is a Device-API selector annotated with the kind its enclosing
// Match or Statement expects.
type Selector struct {
	Raw  string
	Kind values.Kind
}

// Script is a compiled, validated rule set. It is owned by exactly one
// execution task for its lifetime.
type Script struct {
	Rules []Rule
}

// Rule is a compiled automation trigger.
type Rule struct {
	Conditions []Match
	Execute    []Statement
}

// Match is a compiled condition clause; Source selectors are
// kind-annotated.
type Match struct {
	Source []Selector
	Kind   values.Kind
	Range  ranges.Range
}

// Statement is a compiled action; Destination selectors are
// kind-annotated.
type Statement struct {
	Destination []Selector
	Kind        values.Kind
	Value       values.Value
}
