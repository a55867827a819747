package spec

import (
	"context"
	"fmt"
)

// FallbackName is the provenance value recorded when the deterministic
// fallback produced the specification.
const FallbackName = "synthesized"

// invariantComplexityThreshold is the complexity above which the fallback
// asserts a bounded-complexity invariant.
const invariantComplexityThreshold = 5

// FallbackBackend derives a specification directly from control-flow facts.
// It is deterministic and never fails, so the synthesizer always appends it
// as the last backend in the chain.
type FallbackBackend struct{}

// NewFallbackBackend creates the deterministic fallback.
func NewFallbackBackend() *FallbackBackend {
	return &FallbackBackend{}
}

// Name returns the fallback provenance value.
func (b *FallbackBackend) Name() string {
	return FallbackName
}

// Synthesize derives conditions rule by rule from the facts:
// one precondition per typed or required parameter, one postcondition per
// distinct early-return value, a complexity invariant for complex functions,
// and one edge case per guard plus generic boundary cases.
func (b *FallbackBackend) Synthesize(_ context.Context, req *Request) (*Response, error) {
	facts := req.Facts

	pre := []string{}
	for _, p := range facts.Parameters {
		if p.Type == "" || (p.Type == "any" && !p.Required) {
			continue
		}
		pre = append(pre, fmt.Sprintf("%s must be a valid %s", p.Name, p.Type))
	}

	post := []string{}
	seen := make(map[string]bool)
	for _, ret := range facts.EarlyReturns {
		if seen[ret] {
			continue
		}
		seen[ret] = true
		if ret == "" {
			post = append(post, "function may return early without a value")
			continue
		}
		post = append(post, fmt.Sprintf("function may return %s", ret))
	}
	if facts.HasReturn() && facts.ReturnType != "" && facts.ReturnType != "void" {
		post = append(post, fmt.Sprintf("result is of type %s", facts.ReturnType))
	}

	inv := []string{}
	if facts.Complexity > invariantComplexityThreshold {
		inv = append(inv, fmt.Sprintf("control flow remains bounded across %d decision points", facts.Complexity))
	}

	edge := []string{}
	for _, guard := range facts.Guards {
		edge = append(edge, fmt.Sprintf("input satisfying %q takes the guarded path", guard))
	}
	if len(facts.Parameters) > 0 {
		edge = append(edge,
			"null or missing arguments",
			"boundary values for numeric arguments")
	}

	confidence := ClampConfidence(min(85, 100-float64(facts.Complexity)*5))

	timeBound := "O(1)"
	switch {
	case len(facts.Loops) == 1:
		timeBound = "O(n)"
	case len(facts.Loops) > 1:
		timeBound = fmt.Sprintf("O(n^%d)", len(facts.Loops))
	}

	return &Response{
		Preconditions:  &pre,
		Postconditions: &post,
		Invariants:     &inv,
		EdgeCases:      &edge,
		Complexity:     &ComplexityEstimate{Time: timeBound, Space: "O(1)"},
		Confidence:     &confidence,
		Rationale: fmt.Sprintf("derived from control-flow analysis: %d guards, %d loops, %d early returns",
			len(facts.Guards), len(facts.Loops), len(facts.EarlyReturns)),
	}, nil
}
