package compiler

import "fmt"

// Error codes, grouped by taxonomy kind (mirrors the engine package's
// StartStopErrorCode convention: a short string constant per failure mode).
const (
	CodeNoRules                = "E200" // script.rules is empty
	CodeNoConditions           = "E201" // rule.conditions is empty
	CodeNoStatements           = "E202" // rule.execute is empty
	CodeInvalidRange           = "E210" // range.Type() returned an error
	CodeKindAndRangeDoNotAgree = "E211" // match.kind != range inferred kind
)

// SourceError reports a structural defect: an empty rule list, or a rule
// with no statements or no conditions.
type SourceError struct {
	Code    string
	Message string
	// RuleIndex is -1 when the error is not scoped to a single rule
	// (CodeNoRules).
	RuleIndex int
}

func (e *SourceError) Error() string {
	if e.RuleIndex < 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] rule %d: %s", e.Code, e.RuleIndex, e.Message)
}

// TypeError reports a compile-time type disagreement: a range whose type
// could not be inferred, or a kind that disagrees with its range's
// inferred type.
type TypeError struct {
	Code          string
	Message       string
	RuleIndex     int
	ConditionIdx  int
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("[%s] rule %d condition %d: %s", e.Code, e.RuleIndex, e.ConditionIdx, e.Message)
}

func newSourceError(code, msg string, ruleIndex int) error {
	return &SourceError{Code: code, Message: msg, RuleIndex: ruleIndex}
}

func newTypeError(code, msg string, ruleIndex, conditionIdx int) error {
	return &TypeError{Code: code, Message: msg, RuleIndex: ruleIndex, ConditionIdx: conditionIdx}
}
