// Package drift compares the current structural shape of a function against
// its previously synthesized specification and flags significant divergence.
package drift

import (
	"log/slog"

	"github.com/c360studio/specdrift/flow"
	"github.com/c360studio/specdrift/spec"
)

// Reasons reported by the detector.
const (
	ReasonNoBaseline        = "no baseline"
	ReasonComplexityGrowth  = "complexity increased significantly"
	ReasonValidationChanged = "validation branching changed"
)

// Config holds the detection thresholds.
type Config struct {
	// ComplexityRatio is the growth factor over the recorded complexity
	// that counts as significant.
	ComplexityRatio float64 `yaml:"complexity_ratio"`

	// ConfidencePerReason is the confidence contributed by each drift
	// reason.
	ConfidencePerReason float64 `yaml:"confidence_per_reason"`

	// MaxConfidence caps the reported confidence.
	MaxConfidence float64 `yaml:"max_confidence"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ComplexityRatio:     1.5,
		ConfidencePerReason: 25,
		MaxConfidence:       100,
	}
}

// Result is the outcome of one drift check.
type Result struct {
	FunctionKey string   `json:"function_key"`
	HasDrift    bool     `json:"has_drift"`
	Reasons     []string `json:"reasons"`
	Confidence  float64  `json:"confidence"`
}

// Detector flags drift between current control-flow facts and a prior
// specification record.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithConfig overrides the default thresholds.
func WithConfig(cfg Config) Option {
	return func(d *Detector) {
		d.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// NewDetector creates a detector with default thresholds.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect compares current facts against the prior record for a function.
// A nil prior means there is nothing to drift from: the result reports no
// drift with the "no baseline" reason and zero confidence.
func (d *Detector) Detect(functionKey string, facts *flow.Facts, prior *spec.Record) *Result {
	if prior == nil {
		return &Result{
			FunctionKey: functionKey,
			HasDrift:    false,
			Reasons:     []string{ReasonNoBaseline},
			Confidence:  0,
		}
	}

	reasons := []string{}

	priorComplexity := prior.Fingerprint.Complexity
	if priorComplexity > 0 && float64(facts.Complexity) > d.cfg.ComplexityRatio*float64(priorComplexity) {
		reasons = append(reasons, ReasonComplexityGrowth)
	}

	if facts.HasValidation() != prior.Fingerprint.HasValidation {
		reasons = append(reasons, ReasonValidationChanged)
	}

	confidence := d.cfg.ConfidencePerReason * float64(len(reasons))
	if confidence > d.cfg.MaxConfidence {
		confidence = d.cfg.MaxConfidence
	}

	result := &Result{
		FunctionKey: functionKey,
		HasDrift:    len(reasons) > 0,
		Reasons:     reasons,
		Confidence:  confidence,
	}

	if result.HasDrift {
		d.logger.Debug("Drift detected",
			"function", functionKey,
			"reasons", reasons,
			"confidence", confidence)
	}
	return result
}
