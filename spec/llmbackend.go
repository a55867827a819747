package spec

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/specdrift/llm"
	"github.com/c360studio/specdrift/model"
)

const specSystemPrompt = `You are a program analysis assistant. Given control-flow facts about a single function, produce a behavioral specification as JSON with exactly these fields:

{
  "preconditions": ["..."],
  "postconditions": ["..."],
  "invariants": ["..."],
  "edge_cases": ["..."],
  "complexity": {"time": "O(...)", "space": "O(...)"},
  "security": {"vulnerabilities": [], "mitigations": []},
  "confidence": 0-100,
  "rationale": "one sentence"
}

Every list field must be present, even when empty. Respond with JSON only.`

// LLMBackend synthesizes specifications through the LLM client. A response
// that does not decode to the full schema is rejected whole; the synthesizer
// then moves on to the next backend.
type LLMBackend struct {
	client     *llm.Client
	capability model.Capability
	timeout    time.Duration
	logger     *slog.Logger
}

// LLMOption configures an LLMBackend.
type LLMOption func(*LLMBackend)

// WithCapability selects the model capability used for synthesis.
func WithCapability(cap model.Capability) LLMOption {
	return func(b *LLMBackend) {
		b.capability = cap
	}
}

// WithTimeout bounds each synthesis call. A timeout is an ordinary backend
// failure, not a pipeline error.
func WithTimeout(d time.Duration) LLMOption {
	return func(b *LLMBackend) {
		b.timeout = d
	}
}

// WithLLMLogger sets the logger.
func WithLLMLogger(logger *slog.Logger) LLMOption {
	return func(b *LLMBackend) {
		b.logger = logger
	}
}

// NewLLMBackend creates a backend over the given client.
func NewLLMBackend(client *llm.Client, opts ...LLMOption) *LLMBackend {
	b := &LLMBackend{
		client:     client,
		capability: model.CapabilitySynthesis,
		timeout:    60 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns "llm:<capability>".
func (b *LLMBackend) Name() string {
	return "llm:" + b.capability.String()
}

// Synthesize prompts the model with the facts and decodes the reply
// strictly against the response schema.
func (b *LLMBackend) Synthesize(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	prompt, err := b.buildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	temperature := 0.0
	resp, err := b.client.Complete(ctx, llm.Request{
		Capability: b.capability.String(),
		Messages: []llm.Message{
			{Role: "system", Content: specSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("extract JSON from reply: %w", err)
	}

	var out Response
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode specification: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("incomplete specification: %w", err)
	}

	b.logger.Debug("LLM synthesis succeeded",
		"function", req.FunctionKey,
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens)

	return &out, nil
}

// buildPrompt renders the facts and nearby comments for the model.
func (b *LLMBackend) buildPrompt(req *Request) (string, error) {
	factsJSON, err := json.MarshalIndent(req.Facts, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Function: %s\nLanguage: %s\n\nControl-flow facts:\n%s\n",
		req.FunctionName, req.Language, factsJSON)

	if len(req.Comments) > 0 {
		sb.WriteString("\nNearby comments:\n")
		for _, c := range req.Comments {
			fmt.Fprintf(&sb, "- [%s] %s\n", c.Kind, c.Text)
		}
	}

	sb.WriteString("\nProduce the behavioral specification JSON.")
	return sb.String(), nil
}
