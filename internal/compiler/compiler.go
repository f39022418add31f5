// Package compiler lifts an untrusted internal/ast.Script into a checked
// internal/compiled.Script. Compile is pure and deterministic: no I/O, no
// device-API access, no partial results. Errors are reported on the first
// violation found in document order — the compiler does not accumulate
// multiple errors, unlike a schema validator that collects every defect.
package compiler

import (
	"fmt"

	"github.com/hearthbox/rulehub/internal/ast"
	"github.com/hearthbox/rulehub/internal/compiled"
)

// Compile validates script and, on success, returns its compiled
// equivalent: every selector inside a Match's Source is annotated with the
// Match's Kind, and every selector inside a Statement's Destination is
// annotated with the Statement's Kind.
func Compile(script ast.Script) (*compiled.Script, error) {
	if len(script.Rules) == 0 {
		return nil, newSourceError(CodeNoRules, "script has no rules", -1)
	}

	out := &compiled.Script{Rules: make([]compiled.Rule, len(script.Rules))}
	for ri, rule := range script.Rules {
		if len(rule.Execute) == 0 {
			return nil, newSourceError(CodeNoStatements, "rule has no statements", ri)
		}
		if len(rule.Conditions) == 0 {
			return nil, newSourceError(CodeNoConditions, "rule has no conditions", ri)
		}

		compiledRule, err := compileRule(ri, rule)
		if err != nil {
			return nil, err
		}
		out.Rules[ri] = *compiledRule
	}
	return out, nil
}

func compileRule(ruleIndex int, rule ast.Rule) (*compiled.Rule, error) {
	conditions := make([]compiled.Match, len(rule.Conditions))
	for ci, cond := range rule.Conditions {
		inferred, ok, err := cond.Range.Type()
		if err != nil {
			return nil, newTypeError(CodeInvalidRange,
				fmt.Sprintf("range type could not be inferred: %v", err), ruleIndex, ci)
		}
		// ok is false only for Range.Any, which is compatible with every
		// declared kind by construction.
		if ok && inferred != cond.Kind {
			return nil, newTypeError(CodeKindAndRangeDoNotAgree,
				fmt.Sprintf("match kind %q disagrees with range type %q", cond.Kind, inferred),
				ruleIndex, ci)
		}

		source := make([]compiled.Selector, len(cond.Source))
		for si, sel := range cond.Source {
			source[si] = compiled.Selector{Raw: sel.Raw, Kind: cond.Kind}
		}
		conditions[ci] = compiled.Match{Source: source, Kind: cond.Kind, Range: cond.Range}
	}

	statements := make([]compiled.Statement, len(rule.Execute))
	for si, stmt := range rule.Execute {
		destination := make([]compiled.Selector, len(stmt.Destination))
		for di, sel := range stmt.Destination {
			destination[di] = compiled.Selector{Raw: sel.Raw, Kind: stmt.Kind}
		}
		statements[si] = compiled.Statement{Destination: destination, Kind: stmt.Kind, Value: stmt.Value}
	}

	return &compiled.Rule{Conditions: conditions, Execute: statements}, nil
}
