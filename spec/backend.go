package spec

import (
	"context"
	"fmt"

	"github.com/c360studio/specdrift/diffseg"
	"github.com/c360studio/specdrift/flow"
)

// Request carries everything a backend needs to synthesize a specification.
type Request struct {
	FunctionKey  string
	FunctionName string
	Language     string
	Facts        *flow.Facts
	Comments     []diffseg.CommentNote

	// LineCount is the size of the changed body, recorded in the
	// fingerprint for drift comparison.
	LineCount int
}

// Response is the raw synthesis output of one backend. List fields are
// pointers so a missing field can be told apart from an empty one; a
// response that omits a required field is rejected whole.
type Response struct {
	Preconditions  *[]string           `json:"preconditions"`
	Postconditions *[]string           `json:"postconditions"`
	Invariants     *[]string           `json:"invariants"`
	EdgeCases      *[]string           `json:"edge_cases"`
	Complexity     *ComplexityEstimate `json:"complexity"`
	Security       *SecurityNotes      `json:"security,omitempty"`
	Confidence     *float64            `json:"confidence"`
	Rationale      string              `json:"rationale,omitempty"`
}

// Validate enforces the schema contract: the four condition lists, the
// complexity record and a numeric confidence must all be present. Security
// notes are optional.
func (r *Response) Validate() error {
	if r.Preconditions == nil {
		return fmt.Errorf("response missing preconditions")
	}
	if r.Postconditions == nil {
		return fmt.Errorf("response missing postconditions")
	}
	if r.Invariants == nil {
		return fmt.Errorf("response missing invariants")
	}
	if r.EdgeCases == nil {
		return fmt.Errorf("response missing edge_cases")
	}
	if r.Complexity == nil {
		return fmt.Errorf("response missing complexity")
	}
	if r.Confidence == nil {
		return fmt.Errorf("response missing confidence")
	}
	return nil
}

// toRecord converts a validated response into a record.
func (r *Response) toRecord(req *Request, provenance string) *Record {
	rec := &Record{
		FunctionKey:    req.FunctionKey,
		Preconditions:  *r.Preconditions,
		Postconditions: *r.Postconditions,
		Invariants:     *r.Invariants,
		EdgeCases:      *r.EdgeCases,
		Complexity:     *r.Complexity,
		Confidence:     ClampConfidence(*r.Confidence),
		Rationale:      r.Rationale,
		Provenance:     provenance,
	}
	if r.Security != nil {
		rec.Security = *r.Security
	}
	if rec.Preconditions == nil {
		rec.Preconditions = []string{}
	}
	if rec.Postconditions == nil {
		rec.Postconditions = []string{}
	}
	if rec.Invariants == nil {
		rec.Invariants = []string{}
	}
	if rec.EdgeCases == nil {
		rec.EdgeCases = []string{}
	}
	return rec
}

// Backend produces candidate specifications. Backends may fail; the
// synthesizer tries them in order and falls back deterministically.
type Backend interface {
	// Name identifies the backend in logs and provenance.
	Name() string

	// Synthesize produces a specification response for the request.
	Synthesize(ctx context.Context, req *Request) (*Response, error)
}
