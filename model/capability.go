// Package model provides capability-based model selection with fallback
// chains and endpoint health tracking.
package model

// Capability identifies a semantic class of work a model is suited for.
// Callers request a capability; the registry resolves it to concrete models.
type Capability string

const (
	// CapabilitySynthesis is deep reasoning over code to produce
	// specifications. Prefers the strongest available model.
	CapabilitySynthesis Capability = "synthesis"

	// CapabilityReview is validation and critique of generated artifacts.
	CapabilityReview Capability = "review"

	// CapabilityFast is quick, low-stakes completions where latency matters
	// more than depth.
	CapabilityFast Capability = "fast"
)

// AllCapabilities lists every known capability.
func AllCapabilities() []Capability {
	return []Capability{CapabilitySynthesis, CapabilityReview, CapabilityFast}
}

// ParseCapability converts a string to a Capability, returning "" for
// unknown values.
func ParseCapability(s string) Capability {
	switch Capability(s) {
	case CapabilitySynthesis, CapabilityReview, CapabilityFast:
		return Capability(s)
	default:
		return ""
	}
}

// IsValid reports whether c is a known capability.
func (c Capability) IsValid() bool {
	return ParseCapability(string(c)) != ""
}

func (c Capability) String() string {
	return string(c)
}
