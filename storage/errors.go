// Package storage persists synthesized specification records, either in
// memory or in a NATS JetStream key-value bucket.
package storage

import "errors"

// ErrNotFound is returned when no record exists for a function key.
var ErrNotFound = errors.New("record not found")
