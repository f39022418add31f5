// Package ast defines the untrusted abstract syntax tree produced by a rule
// parser (internal/ruleset, or any other source). Nodes here carry no
// type-checked annotations; internal/compiler lifts a Script into the
// compiled package's tree, which carries the same shape plus kind
// annotations on every selector.
package ast

import (
	"github.com/hearthbox/rulehub/internal/ranges"
	"github.com/hearthbox/rulehub/internal/values"
)

// Selector is an abstract predicate the Device API resolves to a concrete
// set of sensor or actuator identifiers. It carries no kind annotation in
// the untrusted tree.
type Selector struct {
	// Raw is the selector expression as authored (e.g. a service name or
	// tag query); its syntax is opaque to the core and owned by the
	// Device API.
	Raw string
}

// Script is the top-level, as-yet-unchecked rule set.
type Script struct {
	Rules []Rule
}

// Rule is one automation trigger: conditions ANDed together, statements
// fired in document order on a rising edge.
type Rule struct {
	Conditions []Match
	Execute    []Statement
}

// Match is one condition clause: some sensor in Source, of Kind, has a
// value inside Range.
type Match struct {
	Source []Selector
	Kind   values.Kind
	Range  ranges.Range
}

// Statement is one action: send Value (of Kind) to every actuator resolved
// from Destination.
type Statement struct {
	Destination []Selector
	Kind        values.Kind
	Value       values.Value
}
