package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360studio/specdrift/drift"
	"github.com/c360studio/specdrift/spec"
)

// Subjects for pipeline events.
const (
	SubjectRecordSynthesized = "spec.record.synthesized"
	SubjectDriftDetected     = "spec.drift.detected"
)

// envelope wraps every published payload with an event ID and timestamp so
// consumers can deduplicate and order events.
type envelope struct {
	EventID   string      `json:"event_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NATSPublisher publishes pipeline events on core NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher creates a publisher over an established connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// PublishRecord announces a newly synthesized specification.
func (p *NATSPublisher) PublishRecord(ctx context.Context, record *spec.Record) error {
	return p.publish(ctx, SubjectRecordSynthesized, record)
}

// PublishDrift announces a drift detection result.
func (p *NATSPublisher) PublishDrift(ctx context.Context, result *drift.Result) error {
	return p.publish(ctx, SubjectDriftDetected, result)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(envelope{
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
