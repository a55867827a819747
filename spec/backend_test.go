package spec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseValidate_RejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Response)
	}{
		{"missing preconditions", func(r *Response) { r.Preconditions = nil }},
		{"missing postconditions", func(r *Response) { r.Postconditions = nil }},
		{"missing invariants", func(r *Response) { r.Invariants = nil }},
		{"missing edge cases", func(r *Response) { r.EdgeCases = nil }},
		{"missing complexity", func(r *Response) { r.Complexity = nil }},
		{"missing confidence", func(r *Response) { r.Confidence = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fullResponse(50)
			tt.mutate(resp)
			assert.Error(t, resp.Validate())
		})
	}
}

func TestResponseValidate_EmptyListsAreValid(t *testing.T) {
	empty := []string{}
	conf := 10.0
	resp := &Response{
		Preconditions:  &empty,
		Postconditions: &empty,
		Invariants:     &empty,
		EdgeCases:      &empty,
		Complexity:     &ComplexityEstimate{},
		Confidence:     &conf,
	}
	assert.NoError(t, resp.Validate())
}

func TestResponseDecode_OmittedFieldStaysNil(t *testing.T) {
	// A backend reply without confidence must be distinguishable from one
	// with confidence 0.
	raw := `{"preconditions":[],"postconditions":[],"invariants":[],"edge_cases":[],"complexity":{"time":"O(1)","space":"O(1)"}}`
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Nil(t, resp.Confidence)
	assert.Error(t, resp.Validate())
}

func TestRecordValidate(t *testing.T) {
	rec := &Record{
		FunctionKey:    "a.go:f",
		Preconditions:  []string{},
		Postconditions: []string{},
		Invariants:     []string{},
		EdgeCases:      []string{},
		Confidence:     50,
	}
	assert.NoError(t, rec.Validate())

	rec.Invariants = nil
	assert.Error(t, rec.Validate())

	rec.Invariants = []string{}
	rec.Confidence = 101
	assert.Error(t, rec.Validate())
}

func TestFunctionKey(t *testing.T) {
	assert.Equal(t, "pkg/a.go:Add", FunctionKey("pkg/a.go", "Add"))
}
