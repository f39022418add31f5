// Package ruleset converts the JSON rule source document (§6 of the rule
// engine's interface contract) into an internal/ast.Script. It is the only
// package in this module that knows the document's JSON shape; neither
// internal/compiler nor internal/engine import it.
package ruleset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/hearthbox/rulehub/internal/ast"
	"github.com/hearthbox/rulehub/internal/ranges"
	"github.com/hearthbox/rulehub/internal/values"
)

type rawScript struct {
	Rules []rawRule `json:"rules"`
}

type rawRule struct {
	When []rawCondition `json:"when"`
	Do   []rawStatement `json:"do"`
}

type rawCondition struct {
	Service string          `json:"service"`
	Kind    string          `json:"kind"`
	Range   json.RawMessage `json:"range"`
}

type rawStatement struct {
	Output string          `json:"output"`
	Kind   string          `json:"kind"`
	Value  json.RawMessage `json:"value"`
}

// Load parses and validates data as a rule source document, returning the
// corresponding untrusted AST.
func Load(data []byte) (ast.Script, error) {
	if err := validateSchema(data); err != nil {
		return ast.Script{}, err
	}

	var raw rawScript
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return ast.Script{}, fmt.Errorf("ruleset: decode: %w", err)
	}

	if len(raw.Rules) == 0 {
		return ast.Script{}, newDocError(CodeNoRules, "rules", "document has no rules")
	}

	script := ast.Script{Rules: make([]ast.Rule, len(raw.Rules))}
	for ri, rr := range raw.Rules {
		rule, err := convertRule(rr)
		if err != nil {
			return ast.Script{}, fmt.Errorf("ruleset: rule %d: %w", ri, err)
		}
		script.Rules[ri] = rule
	}
	return script, nil
}

// validateSchema unifies data (parsed as CUE, of which JSON is a syntactic
// subset) against #Script and reports any structural mismatch before the
// document is ever decoded into Go structs.
func validateSchema(data []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(cueSchema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("ruleset: internal schema error: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Script"))

	docVal := ctx.CompileBytes(data)
	if err := docVal.Err(); err != nil {
		return newDocError(CodeSchemaViolation, "", fmt.Sprintf("not valid JSON/CUE: %v", err))
	}

	unified := def.Unify(docVal)
	if err := unified.Validate(cue.Concrete(true), cue.All()); err != nil {
		return newDocError(CodeSchemaViolation, "", err.Error())
	}
	return nil
}

func convertRule(rr rawRule) (ast.Rule, error) {
	conditions := make([]ast.Match, len(rr.When))
	for ci, rc := range rr.When {
		m, err := convertCondition(rc)
		if err != nil {
			return ast.Rule{}, fmt.Errorf("condition %d: %w", ci, err)
		}
		conditions[ci] = m
	}

	statements := make([]ast.Statement, len(rr.Do))
	for si, rs := range rr.Do {
		s, err := convertStatement(rs)
		if err != nil {
			return ast.Rule{}, fmt.Errorf("statement %d: %w", si, err)
		}
		statements[si] = s
	}

	return ast.Rule{Conditions: conditions, Execute: statements}, nil
}

func convertCondition(rc rawCondition) (ast.Match, error) {
	rng, err := decodeRange(rc.Range)
	if err != nil {
		return ast.Match{}, err
	}

	kind := values.Kind(rc.Kind)
	if kind == "" {
		inferred, ok, typeErr := rng.Type()
		if typeErr != nil || !ok {
			return ast.Match{}, newDocError(CodeMissingKind, "kind", "kind is absent and could not be inferred from range")
		}
		kind = inferred
	}

	return ast.Match{
		Source: []ast.Selector{{Raw: rc.Service}},
		Kind:   kind,
		Range:  rng,
	}, nil
}

func convertStatement(rs rawStatement) (ast.Statement, error) {
	var raw any
	if err := json.Unmarshal(rs.Value, &raw); err != nil {
		return ast.Statement{}, newDocError(CodeInvalidValue, "value", err.Error())
	}
	v, err := values.FromAny(raw)
	if err != nil {
		return ast.Statement{}, newDocError(CodeInvalidValue, "value", err.Error())
	}

	return ast.Statement{
		Destination: []ast.Selector{{Raw: rs.Output}},
		Kind:        values.Kind(rs.Kind),
		Value:       v,
	}, nil
}

// decodeRange interprets the two/three-element-array or scalar range
// encoding described in §6: a two-element array is [min, max] with null
// for an open-ended side; a three-element array is ["notin", min, max];
// a bare scalar is an equality test.
func decodeRange(raw json.RawMessage) (ranges.Range, error) {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, newDocError(CodeInvalidRange, "range", err.Error())
	}

	arr, isArray := generic.([]any)
	if !isArray {
		v, err := values.FromAny(generic)
		if err != nil {
			return nil, newDocError(CodeInvalidRange, "range", err.Error())
		}
		return ranges.Eq{V: v}, nil
	}

	switch len(arr) {
	case 2:
		min, max := arr[0], arr[1]
		switch {
		case min == nil && max == nil:
			return ranges.Any{}, nil
		case min == nil:
			v, err := values.FromAny(max)
			if err != nil {
				return nil, newDocError(CodeInvalidRange, "range", err.Error())
			}
			return ranges.Leq{V: v}, nil
		case max == nil:
			v, err := values.FromAny(min)
			if err != nil {
				return nil, newDocError(CodeInvalidRange, "range", err.Error())
			}
			return ranges.Geq{V: v}, nil
		default:
			minV, err := values.FromAny(min)
			if err != nil {
				return nil, newDocError(CodeInvalidRange, "range", err.Error())
			}
			maxV, err := values.FromAny(max)
			if err != nil {
				return nil, newDocError(CodeInvalidRange, "range", err.Error())
			}
			return ranges.BetweenEq{Min: minV, Max: maxV}, nil
		}
	case 3:
		tag, ok := arr[0].(string)
		if !ok || tag != "notin" {
			return nil, newDocError(CodeInvalidRange, "range", "three-element range must start with \"notin\"")
		}
		minV, err := values.FromAny(arr[1])
		if err != nil {
			return nil, newDocError(CodeInvalidRange, "range", err.Error())
		}
		maxV, err := values.FromAny(arr[2])
		if err != nil {
			return nil, newDocError(CodeInvalidRange, "range", err.Error())
		}
		return ranges.OutOfStrict{Min: minV, Max: maxV}, nil
	default:
		return nil, newDocError(CodeInvalidRange, "range", fmt.Sprintf("unrecognized range shape with %d elements", len(arr)))
	}
}
