package theorem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specdrift/flow"
	"github.com/c360studio/specdrift/spec"
)

func record() *spec.Record {
	return &spec.Record{
		FunctionKey:    "pay.go:transfer",
		Preconditions:  []string{"amount > 0", "to is not empty"},
		Postconditions: []string{"result is true"},
		Invariants:     []string{"balance is non-negative", "ledger stays consistent"},
		EdgeCases:      []string{"amount == 0", "to is empty", "insufficient funds"},
		Complexity:     spec.ComplexityEstimate{Time: "O(1)", Space: "O(1)"},
		Confidence:     80,
		Provenance:     "synthesized",
	}
}

func TestEmit_OneLemmaPerInvariantAndEdgeCase(t *testing.T) {
	e := NewEmitter()
	art := e.Emit(record(), nil, "bool")

	// 2 invariants + 3 edge cases.
	require.Len(t, art.HelperLemmas, 5)
	assert.Equal(t, "transfer_invariant_1", art.HelperLemmas[0].Name)
	assert.Equal(t, "transfer_invariant_2", art.HelperLemmas[1].Name)
	assert.Equal(t, "transfer_edge_case_1", art.HelperLemmas[2].Name)
	assert.Equal(t, "transfer_edge_case_3", art.HelperLemmas[4].Name)
}

func TestEmit_BoundLemmasCappedAtTwo(t *testing.T) {
	e := NewEmitter()
	art := e.Emit(record(), nil, "bool")

	require.Len(t, art.BoundLemmas, 2)
	assert.Equal(t, "transfer_time_bound", art.BoundLemmas[0].Name)
	assert.Equal(t, "transfer_space_bound", art.BoundLemmas[1].Name)

	rec := record()
	rec.Complexity = spec.ComplexityEstimate{}
	art = e.Emit(rec, nil, "bool")
	assert.Empty(t, art.BoundLemmas)
}

func TestEmit_TheoremShape(t *testing.T) {
	e := NewEmitter()
	params := []flow.Parameter{
		{Name: "amount", Type: "number", Required: true},
		{Name: "to", Type: "string", Required: true},
	}
	art := e.Emit(record(), params, "bool")

	assert.Contains(t, art.TheoremStatement, "theorem transfer_spec")
	assert.Contains(t, art.TheoremStatement, "(amount : Nat)")
	assert.Contains(t, art.TheoremStatement, "(to : String)")
	assert.Contains(t, art.TheoremStatement, "amount > 0")
	assert.Contains(t, art.TheoremStatement, "to.length > 0")
	assert.Contains(t, art.TheoremStatement, "result = true")
	assert.True(t, strings.HasSuffix(art.TheoremStatement, "sorry"))
}

func TestEmit_EveryObligationLeftOpen(t *testing.T) {
	e := NewEmitter()
	art := e.Emit(record(), nil, "bool")

	// One sorry for the theorem plus one per lemma.
	wantSorries := 1 + len(art.HelperLemmas) + len(art.BoundLemmas)
	assert.Equal(t, wantSorries, strings.Count(art.ProofSkeleton, "sorry"))
	assert.NotContains(t, art.ProofSkeleton, ":= rfl")
}

func TestEmit_EmptySpecStillElaborates(t *testing.T) {
	rec := &spec.Record{
		FunctionKey:    "a.go:noop",
		Preconditions:  []string{},
		Postconditions: []string{},
		Invariants:     []string{},
		EdgeCases:      []string{},
	}
	e := NewEmitter()
	art := e.Emit(rec, nil, "void")

	assert.Contains(t, art.TheoremStatement, "True := by")
	assert.Empty(t, art.HelperLemmas)
}

func TestEmit_Metadata(t *testing.T) {
	e := NewEmitter()
	art := e.Emit(record(), nil, "bool")

	assert.Equal(t, "pay.go:transfer", art.Metadata.FunctionKey)
	assert.Equal(t, 80.0, art.Metadata.Confidence)
	assert.Equal(t, "synthesized", art.Metadata.Provenance)
	assert.False(t, art.Metadata.GeneratedAt.IsZero())
}

func TestMapType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "Nat"},
		{"float64", "Nat"},
		{"number", "Nat"},
		{"string", "String"},
		{"str", "String"},
		{"bool", "Bool"},
		{"boolean", "Bool"},
		{"[]int", "List Nat"},
		{"number[]", "List Nat"},
		{"[][]int", "List (List Nat)"},
		{"List[int]", "List Nat"},
		{"Array<string>", "List String"},
		{"CustomThing", "α"},
		{"", "α"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MapType(tt.in))
		})
	}
}

func TestRewritePredicate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x >= 0", "x ≥ 0"},
		{"x <= max", "x ≤ max"},
		{"x != y", "x ≠ y"},
		{"x == 0", "x = 0"},
		{"request is not null", "request ≠ none"},
		{"value must not be nil", "value ≠ none"},
		{"ptr is none", "ptr = none"},
		{"n is positive", "n > 0"},
		{"count is non-negative", "count ≥ 0"},
		{"name is not empty", "name.length > 0"},
		{"buf is empty", "buf.length = 0"},
		{"flag is true", "flag = true"},
		{"x must be a valid int", `TypedAs "x" "int"`},
		{"ledger stays consistent", `Holds "ledger stays consistent"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RewritePredicate(tt.in))
		})
	}
}

func TestLeanName(t *testing.T) {
	assert.Equal(t, "my_func", leanName("my-func"))
	assert.Equal(t, "f_123go", leanName("123go"))
	assert.Equal(t, "anonymous", leanName(""))
}
