package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specdrift/spec"
)

func record(key string, complexity int) *spec.Record {
	return &spec.Record{
		FunctionKey:    key,
		Preconditions:  []string{},
		Postconditions: []string{},
		Invariants:     []string{},
		EdgeCases:      []string{},
		Confidence:     50,
		Fingerprint:    spec.Fingerprint{Complexity: complexity},
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, record("a.go:f", 2)))
	got, err := s.Get(ctx, "a.go:f")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Fingerprint.Complexity)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, record("a.go:f", 2)))
	require.NoError(t, s.Put(ctx, record("a.go:f", 4)))

	got, err := s.Get(ctx, "a.go:f")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Fingerprint.Complexity)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_RejectsInvalidRecord(t *testing.T) {
	s := NewMemoryStore()
	bad := record("a.go:f", 1)
	bad.Invariants = nil
	assert.Error(t, s.Put(context.Background(), bad))
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Put(ctx, record("a.go:f", 1))
			_, _ = s.Get(ctx, "a.go:f")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pkg/file.go:Add", "pkg/file.go_Add"},
		{"simple", "simple"},
		{".leading", "_leading"},
		{"a b:c", "a_b_c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeKey(tt.in), tt.in)
	}
}
