// Package publish emits pipeline events to interested subscribers.
package publish

import (
	"context"

	"github.com/c360studio/specdrift/drift"
	"github.com/c360studio/specdrift/spec"
)

// Publisher broadcasts synthesis and drift events. Publishing is best
// effort: the pipeline logs failures and continues.
type Publisher interface {
	// PublishRecord announces a newly synthesized specification.
	PublishRecord(ctx context.Context, record *spec.Record) error

	// PublishDrift announces a drift detection result.
	PublishDrift(ctx context.Context, result *drift.Result) error
}

// NoopPublisher discards all events. Used when no NATS connection is
// configured.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that discards everything.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// PublishRecord discards the record.
func (p *NoopPublisher) PublishRecord(context.Context, *spec.Record) error {
	return nil
}

// PublishDrift discards the result.
func (p *NoopPublisher) PublishDrift(context.Context, *drift.Result) error {
	return nil
}
