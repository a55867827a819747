package theorem

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/c360studio/specdrift/flow"
	"github.com/c360studio/specdrift/spec"
)

// auxHolds and auxTypedAs keep natural-language conditions syntactically
// valid Lean. They are trivially true; the skeleton states obligations, it
// does not discharge them.
const (
	auxHolds   = `def Holds (description : String) : Prop := True`
	auxTypedAs = `def TypedAs (name : String) (ty : String) : Prop := True`
)

// Emitter renders Lean 4 proof skeletons from specification records.
type Emitter struct{}

// NewEmitter creates an emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit builds the skeleton artifact for one function: a universally
// quantified main theorem, one helper lemma per invariant and per edge
// case, and up to two complexity bound lemmas.
func (e *Emitter) Emit(record *spec.Record, params []flow.Parameter, returnType string) *Artifact {
	name := leanName(functionName(record.FunctionKey))

	art := &Artifact{
		Metadata: Metadata{
			FunctionKey: record.FunctionKey,
			Confidence:  record.Confidence,
			Provenance:  record.Provenance,
			GeneratedAt: time.Now().UTC(),
		},
	}

	binders, usesGeneric := e.binders(params)
	if usesGeneric {
		art.TypeDefs = append(art.TypeDefs, "variable {"+genericTypeVar+" : Type}")
	}

	hypothesis := rewriteAll(record.Preconditions)
	obligation := rewriteAll(record.Postconditions)

	art.TheoremStatement = e.theorem(name, binders, hypothesis, obligation)

	for i, inv := range record.Invariants {
		art.HelperLemmas = append(art.HelperLemmas, Lemma{
			Name:      fmt.Sprintf("%s_invariant_%d", name, i+1),
			Statement: RewritePredicate(inv),
		})
	}
	for i, ec := range record.EdgeCases {
		art.HelperLemmas = append(art.HelperLemmas, Lemma{
			Name:      fmt.Sprintf("%s_edge_case_%d", name, i+1),
			Statement: RewritePredicate(ec),
		})
	}

	if record.Complexity.Time != "" {
		art.BoundLemmas = append(art.BoundLemmas, Lemma{
			Name:      name + "_time_bound",
			Statement: fmt.Sprintf("Holds %q", "time complexity is "+record.Complexity.Time),
		})
	}
	if record.Complexity.Space != "" {
		art.BoundLemmas = append(art.BoundLemmas, Lemma{
			Name:      name + "_space_bound",
			Statement: fmt.Sprintf("Holds %q", "space complexity is "+record.Complexity.Space),
		})
	}

	art.AuxiliaryDefs = e.auxiliaryDefs(art)
	art.ProofSkeleton = e.render(record, art)
	return art
}

// binders renders the universally quantified parameter binders.
func (e *Emitter) binders(params []flow.Parameter) (string, bool) {
	usesGeneric := false
	parts := make([]string, 0, len(params))
	for _, p := range params {
		leanType := MapType(p.Type)
		if strings.Contains(leanType, genericTypeVar) {
			usesGeneric = true
		}
		parts = append(parts, fmt.Sprintf("(%s : %s)", leanName(p.Name), leanType))
	}
	return strings.Join(parts, " "), usesGeneric
}

// theorem renders the main theorem statement. Preconditions form the
// hypothesis, postconditions the obligation. An empty obligation degrades
// to True so the statement still elaborates.
func (e *Emitter) theorem(name, binders string, hypothesis, obligation []string) string {
	var sb strings.Builder
	sb.WriteString("theorem " + name + "_spec")
	if binders != "" {
		sb.WriteString(" " + binders)
	}
	if len(hypothesis) > 0 {
		sb.WriteString("\n    (h : " + strings.Join(hypothesis, " ∧ ") + ")")
	}
	sb.WriteString(" :\n    ")
	if len(obligation) > 0 {
		sb.WriteString(strings.Join(obligation, " ∧ "))
	} else {
		sb.WriteString("True")
	}
	sb.WriteString(" := by\n  sorry")
	return sb.String()
}

// auxiliaryDefs returns the trivial predicate definitions the artifact
// actually references.
func (e *Emitter) auxiliaryDefs(art *Artifact) []string {
	all := art.TheoremStatement
	for _, l := range art.HelperLemmas {
		all += l.Statement
	}
	for _, l := range art.BoundLemmas {
		all += l.Statement
	}

	defs := []string{}
	if strings.Contains(all, "Holds ") {
		defs = append(defs, auxHolds)
	}
	if strings.Contains(all, "TypedAs ") {
		defs = append(defs, auxTypedAs)
	}
	return defs
}

// render assembles the full Lean source.
func (e *Emitter) render(record *spec.Record, art *Artifact) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "-- Specification skeleton for %s\n", record.FunctionKey)
	fmt.Fprintf(&sb, "-- Provenance: %s, confidence %.0f\n\n", record.Provenance, record.Confidence)

	for _, def := range art.AuxiliaryDefs {
		sb.WriteString(def + "\n")
	}
	for _, def := range art.TypeDefs {
		sb.WriteString(def + "\n")
	}
	if len(art.AuxiliaryDefs)+len(art.TypeDefs) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString(art.TheoremStatement + "\n")

	for _, l := range art.HelperLemmas {
		fmt.Fprintf(&sb, "\nlemma %s : %s := by\n  sorry\n", l.Name, l.Statement)
	}
	for _, l := range art.BoundLemmas {
		fmt.Fprintf(&sb, "\nlemma %s : %s := by\n  sorry\n", l.Name, l.Statement)
	}

	return sb.String()
}

// functionName extracts the bare function name from a function key.
func functionName(functionKey string) string {
	if idx := strings.LastIndex(functionKey, ":"); idx >= 0 {
		return functionKey[idx+1:]
	}
	return functionKey
}

// leanName sanitizes an identifier for Lean: alphanumerics and underscores
// only, never starting with a digit.
func leanName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	s := sb.String()
	if s == "" {
		return "anonymous"
	}
	if unicode.IsDigit(rune(s[0])) {
		return "f_" + s
	}
	return s
}

// rewriteAll rewrites a list of conditions.
func rewriteAll(conditions []string) []string {
	out := make([]string, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, RewritePredicate(c))
	}
	return out
}
