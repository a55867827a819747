// Package theorem emits Lean 4 proof skeletons from synthesized
// specifications. Obligations are stated, never discharged: every proof
// body is the sorry placeholder.
package theorem

import "time"

// Lemma is one named proof obligation.
type Lemma struct {
	Name      string `json:"name"`
	Statement string `json:"statement"`
}

// Metadata records where an artifact came from.
type Metadata struct {
	FunctionKey string    `json:"function_key"`
	Confidence  float64   `json:"confidence"`
	Provenance  string    `json:"provenance"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Artifact is a complete emitted skeleton for one function.
type Artifact struct {
	// TypeDefs declares placeholder structures for domain types that have
	// no built-in Lean mapping.
	TypeDefs []string `json:"type_defs,omitempty"`

	// AuxiliaryDefs declares the trivial predicates that keep
	// natural-language conditions syntactically valid.
	AuxiliaryDefs []string `json:"auxiliary_defs"`

	// TheoremStatement is the universally quantified main theorem:
	// preconditions as hypothesis, postconditions as obligation.
	TheoremStatement string `json:"theorem_statement"`

	// HelperLemmas holds exactly one lemma per invariant and one per edge
	// case.
	HelperLemmas []Lemma `json:"helper_lemmas"`

	// BoundLemmas holds up to two lemmas asserting the time and space
	// complexity bounds.
	BoundLemmas []Lemma `json:"bound_lemmas,omitempty"`

	// ProofSkeleton is the full rendered Lean source.
	ProofSkeleton string `json:"proof_skeleton"`

	Metadata Metadata `json:"metadata"`
}
