package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/specdrift/spec"
)

// specBucket is the JetStream KV bucket holding specification records.
const specBucket = "SPECDRIFT_SPECS"

// NATSStore persists records in a JetStream key-value bucket, so multiple
// analysis runs (and multiple hosts) share one baseline.
type NATSStore struct {
	kv jetstream.KeyValue
}

// NewNATSStore binds to the spec bucket, creating it when absent. Keeping a
// short history lets operators inspect how a baseline evolved.
func NewNATSStore(ctx context.Context, js jetstream.JetStream) (*NATSStore, error) {
	kv, err := js.KeyValue(ctx, specBucket)
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, fmt.Errorf("bind spec bucket: %w", err)
		}
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      specBucket,
			Description: "Synthesized function specifications",
			History:     5,
		})
		if err != nil {
			return nil, fmt.Errorf("create spec bucket: %w", err)
		}
	}
	return &NATSStore{kv: kv}, nil
}

// Put stores a record under its sanitized function key.
func (s *NATSStore) Put(ctx context.Context, record *spec.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if _, err := s.kv.Put(ctx, sanitizeKey(record.FunctionKey), data); err != nil {
		return fmt.Errorf("put record %s: %w", record.FunctionKey, err)
	}
	return nil
}

// Get returns the record for a function key, or ErrNotFound.
func (s *NATSStore) Get(ctx context.Context, functionKey string) (*spec.Record, error) {
	entry, err := s.kv.Get(ctx, sanitizeKey(functionKey))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get record %s: %w", functionKey, err)
	}

	var record spec.Record
	if err := json.Unmarshal(entry.Value(), &record); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", functionKey, err)
	}
	return &record, nil
}

// sanitizeKey maps a function key onto the NATS KV key alphabet. KV keys
// allow alphanumerics plus - / _ = and non-leading dots.
func sanitizeKey(functionKey string) string {
	var sb strings.Builder
	sb.Grow(len(functionKey))
	for i, r := range functionKey {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '/', r == '_', r == '=':
			sb.WriteRune(r)
		case r == '.' && i > 0:
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
