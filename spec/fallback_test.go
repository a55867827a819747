package spec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specdrift/flow"
)

func simpleFacts() *flow.Facts {
	facts := flow.NewFacts()
	facts.Parameters = []flow.Parameter{
		{Name: "a", Type: "int", Required: true},
		{Name: "b", Type: "int", Required: true},
		{Name: "c", Type: "float64", Required: true},
	}
	facts.ReturnType = "int"
	facts.Finalize()
	return facts
}

func TestFallback_SimpleNumericFunction(t *testing.T) {
	b := NewFallbackBackend()
	resp, err := b.Synthesize(context.Background(), &Request{
		FunctionKey: "calc.go:add3",
		Facts:       simpleFacts(),
	})
	require.NoError(t, err)
	require.NoError(t, resp.Validate())

	// One precondition per typed parameter; confidence capped at 85 for a
	// complexity-1 function.
	assert.Len(t, *resp.Preconditions, 3)
	assert.Contains(t, *resp.Preconditions, "a must be a valid int")
	assert.Equal(t, 85.0, *resp.Confidence)
	assert.Empty(t, *resp.Invariants)
	assert.Contains(t, *resp.EdgeCases, "null or missing arguments")
	assert.Equal(t, "O(1)", resp.Complexity.Time)
}

func TestFallback_PostconditionPerDistinctEarlyReturn(t *testing.T) {
	facts := flow.NewFacts()
	facts.EarlyReturns = []string{"nil", "0", "nil"}
	facts.ReturnType = "void"
	facts.Finalize()

	b := NewFallbackBackend()
	resp, err := b.Synthesize(context.Background(), &Request{FunctionKey: "k", Facts: facts})
	require.NoError(t, err)

	// Duplicate early-return values collapse to one postcondition.
	assert.Len(t, *resp.Postconditions, 2)
	assert.Contains(t, *resp.Postconditions, "function may return nil")
	assert.Contains(t, *resp.Postconditions, "function may return 0")
}

func TestFallback_InvariantOnlyAboveComplexityThreshold(t *testing.T) {
	atThreshold := flow.NewFacts()
	atThreshold.Guards = []string{"a", "b", "c", "d"}
	atThreshold.Finalize() // complexity 5

	b := NewFallbackBackend()
	resp, err := b.Synthesize(context.Background(), &Request{FunctionKey: "k", Facts: atThreshold})
	require.NoError(t, err)
	assert.Empty(t, *resp.Invariants)

	above := flow.NewFacts()
	above.Guards = []string{"a", "b", "c", "d", "e"}
	above.Finalize() // complexity 6

	resp, err = b.Synthesize(context.Background(), &Request{FunctionKey: "k", Facts: above})
	require.NoError(t, err)
	assert.Len(t, *resp.Invariants, 1)
}

func TestFallback_EdgeCasePerGuard(t *testing.T) {
	facts := flow.NewFacts()
	facts.Parameters = []flow.Parameter{{Name: "n", Type: "int", Required: true}}
	facts.Guards = []string{"n < 0", "n > max"}
	facts.Finalize()

	b := NewFallbackBackend()
	resp, err := b.Synthesize(context.Background(), &Request{FunctionKey: "k", Facts: facts})
	require.NoError(t, err)

	// One per guard plus the two generic cases.
	assert.Len(t, *resp.EdgeCases, 4)
}

func TestFallback_ConfidenceDropsWithComplexity(t *testing.T) {
	facts := flow.NewFacts()
	facts.Guards = []string{"a", "b", "c", "d", "e"}
	facts.Loops = []string{"l1", "l2"}
	facts.Finalize() // complexity 8

	b := NewFallbackBackend()
	resp, err := b.Synthesize(context.Background(), &Request{FunctionKey: "k", Facts: facts})
	require.NoError(t, err)

	assert.Equal(t, 60.0, *resp.Confidence) // 100 - 8*5
	assert.Equal(t, "O(n^2)", resp.Complexity.Time)
}

func TestFallback_ConfidenceNeverNegative(t *testing.T) {
	facts := flow.NewFacts()
	for i := 0; i < 30; i++ {
		facts.Guards = append(facts.Guards, "g")
	}
	facts.Finalize() // complexity 31, raw score would be -55

	b := NewFallbackBackend()
	resp, err := b.Synthesize(context.Background(), &Request{FunctionKey: "k", Facts: facts})
	require.NoError(t, err)
	assert.Equal(t, 0.0, *resp.Confidence)
}

func TestFallback_NoParamsNoGenericEdgeCases(t *testing.T) {
	facts := flow.NewFacts()
	facts.Finalize()

	b := NewFallbackBackend()
	resp, err := b.Synthesize(context.Background(), &Request{FunctionKey: "k", Facts: facts})
	require.NoError(t, err)
	assert.Empty(t, *resp.Preconditions)
	assert.Empty(t, *resp.EdgeCases)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-10))
	assert.Equal(t, 100.0, ClampConfidence(250))
	assert.Equal(t, 42.5, ClampConfidence(42.5))
}
