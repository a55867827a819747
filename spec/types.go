// Package spec synthesizes behavioral specifications for changed functions
// from control-flow facts, with an ordered chain of backends and a
// deterministic fallback.
package spec

import (
	"fmt"
	"time"
)

// ComplexityEstimate holds asymptotic bounds for a function.
type ComplexityEstimate struct {
	Time  string `json:"time"`
	Space string `json:"space"`
}

// SecurityNotes holds optional security observations from a backend.
type SecurityNotes struct {
	Vulnerabilities []string `json:"vulnerabilities,omitempty"`
	Mitigations     []string `json:"mitigations,omitempty"`
}

// Fingerprint captures the structural shape of a function at synthesis time.
// Drift detection compares fingerprints across revisions.
type Fingerprint struct {
	Complexity    int  `json:"complexity"`
	HasValidation bool `json:"has_validation"`
	HasReturn     bool `json:"has_return"`
	LineCount     int  `json:"line_count"`
}

// Record is a synthesized specification for one function.
type Record struct {
	FunctionKey    string             `json:"function_key"`
	Preconditions  []string           `json:"preconditions"`
	Postconditions []string           `json:"postconditions"`
	Invariants     []string           `json:"invariants"`
	EdgeCases      []string           `json:"edge_cases"`
	Complexity     ComplexityEstimate `json:"complexity"`
	Security       SecurityNotes      `json:"security,omitempty"`
	Confidence     float64            `json:"confidence"`
	Rationale      string             `json:"rationale,omitempty"`

	// Provenance records where the specification came from: the backend
	// name, or "synthesized" for the deterministic fallback.
	Provenance string `json:"provenance"`

	Fingerprint Fingerprint `json:"fingerprint"`
	CreatedAt   time.Time   `json:"created_at"`
}

// FunctionKey builds the canonical cache key for a function.
func FunctionKey(filePath, functionName string) string {
	return filePath + ":" + functionName
}

// ClampConfidence bounds a confidence score to [0, 100].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// Validate checks the output contract every record must satisfy: the four
// list fields are non-nil and confidence is in range.
func (r *Record) Validate() error {
	if r.FunctionKey == "" {
		return fmt.Errorf("record missing function key")
	}
	if r.Preconditions == nil || r.Postconditions == nil || r.Invariants == nil || r.EdgeCases == nil {
		return fmt.Errorf("record %s has nil list field", r.FunctionKey)
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		return fmt.Errorf("record %s confidence out of range: %f", r.FunctionKey, r.Confidence)
	}
	return nil
}
