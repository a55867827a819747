// Package flow extracts structural control-flow facts from a function's
// source. Facts are derived once from a single parse-tree snapshot and are
// immutable afterwards. Extraction degrades to empty facts on any parse
// failure; it never propagates an error to the pipeline.
package flow

import "strings"

// GenericType is the fallback when a parameter or return carries no usable
// type annotation.
const GenericType = "any"

// Parameter is one ordered function parameter.
type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Facts holds the structural facts extracted for one function.
type Facts struct {
	Parameters      []Parameter `json:"parameters"`
	ReturnType      string      `json:"return_type"`
	Guards          []string    `json:"guards"`
	Loops           []string    `json:"loops"`
	Branches        []string    `json:"branches"`
	EarlyReturns    []string    `json:"early_returns"`
	Complexity      int         `json:"complexity"`
	MaxNestingDepth int         `json:"max_nesting_depth"`
}

// NewFacts returns an empty Facts with all collections allocated and the
// minimum complexity of 1.
func NewFacts() *Facts {
	return &Facts{
		Parameters:   make([]Parameter, 0),
		ReturnType:   GenericType,
		Guards:       make([]string, 0),
		Loops:        make([]string, 0),
		Branches:     make([]string, 0),
		EarlyReturns: make([]string, 0),
		Complexity:   1,
	}
}

// Degraded returns the facts used when a file cannot be parsed or the
// function cannot be located.
func Degraded() *Facts {
	return NewFacts()
}

// Finalize computes complexity from the collected facts:
// 1 + |guards| + |loops| + |earlyReturns|.
func (f *Facts) Finalize() {
	f.Complexity = 1 + len(f.Guards) + len(f.Loops) + len(f.EarlyReturns)
}

// validationHints are substrings that mark a branch condition as
// validation-style (null, emptiness, bounds or type checking).
var validationHints = []string{
	"null", "nil", "none", "undefined",
	"len(", ".length", "typeof", "instanceof", "isinstance",
	"empty", "== 0", "=== 0", "< 0", "<= 0",
}

// HasValidation reports whether the function contains validation-style
// branching: any guard, or any branch condition matching a validation idiom.
func (f *Facts) HasValidation() bool {
	if len(f.Guards) > 0 {
		return true
	}
	for _, cond := range f.Branches {
		lower := strings.ToLower(cond)
		for _, hint := range validationHints {
			if strings.Contains(lower, hint) {
				return true
			}
		}
	}
	return false
}

// HasReturn reports whether any return path was observed.
func (f *Facts) HasReturn() bool {
	return len(f.EarlyReturns) > 0 || f.ReturnType != "" && f.ReturnType != "void"
}
