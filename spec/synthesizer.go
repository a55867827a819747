package spec

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Synthesizer runs an ordered chain of backends and caches the resulting
// record per function key. Concurrent requests for the same key share one
// synthesis attempt; the deterministic fallback guarantees a record is
// always produced.
type Synthesizer struct {
	backends []Backend
	fallback Backend

	mu    sync.RWMutex
	cache map[string]*Record
	group singleflight.Group

	logger           *slog.Logger
	onBackendFailure func(backend string)
	onCacheHit       func()
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithBackends sets the ordered backend chain tried before the fallback.
func WithBackends(backends ...Backend) SynthesizerOption {
	return func(s *Synthesizer) {
		s.backends = backends
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// WithBackendFailureHook installs a callback invoked once per failed
// backend attempt, for metrics.
func WithBackendFailureHook(fn func(backend string)) SynthesizerOption {
	return func(s *Synthesizer) {
		s.onBackendFailure = fn
	}
}

// WithCacheHitHook installs a callback invoked on cache hits, for metrics.
func WithCacheHitHook(fn func()) SynthesizerOption {
	return func(s *Synthesizer) {
		s.onCacheHit = fn
	}
}

// NewSynthesizer creates a synthesizer. The deterministic fallback is always
// appended after any configured backends.
func NewSynthesizer(opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		fallback: NewFallbackBackend(),
		cache:    make(map[string]*Record),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns the specification record for a function, consulting the
// cache first. A cached record is served only while the request's facts
// fingerprint still matches it; an edited function re-synthesizes and
// overwrites the cache entry. It never fails: when every backend fails, or
// the context is cancelled mid-chain, the deterministic fallback supplies
// the record.
func (s *Synthesizer) Synthesize(ctx context.Context, req *Request) *Record {
	fp := fingerprintFor(req)

	if cached, ok := s.lookup(req.FunctionKey, fp); ok {
		if s.onCacheHit != nil {
			s.onCacheHit()
		}
		return cached
	}

	v, _, _ := s.group.Do(req.FunctionKey, func() (interface{}, error) {
		// Re-check under singleflight: a concurrent caller may have
		// populated the cache while we waited.
		if cached, ok := s.lookup(req.FunctionKey, fp); ok {
			return cached, nil
		}

		rec := s.synthesize(ctx, req)

		s.mu.Lock()
		s.cache[req.FunctionKey] = rec
		s.mu.Unlock()
		return rec, nil
	})
	return v.(*Record)
}

// lookup returns the cached record for a key when its fingerprint still
// matches the current facts. A stale entry reads as a miss.
func (s *Synthesizer) lookup(functionKey string, fp Fingerprint) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.cache[functionKey]
	if !ok || rec.Fingerprint != fp {
		return nil, false
	}
	return rec, true
}

// synthesize runs the backend chain in order. Cancellation is observed
// between backend calls; a cancelled context skips the remaining generative
// backends and goes straight to the fallback.
func (s *Synthesizer) synthesize(ctx context.Context, req *Request) *Record {
	for _, backend := range s.backends {
		if ctx.Err() != nil {
			s.logger.Debug("Context cancelled, using fallback", "function", req.FunctionKey)
			break
		}

		resp, err := backend.Synthesize(ctx, req)
		if err != nil {
			s.logger.Warn("Synthesis backend failed",
				"backend", backend.Name(),
				"function", req.FunctionKey,
				"error", err)
			if s.onBackendFailure != nil {
				s.onBackendFailure(backend.Name())
			}
			continue
		}
		if err := resp.Validate(); err != nil {
			s.logger.Warn("Synthesis backend returned incomplete response",
				"backend", backend.Name(),
				"function", req.FunctionKey,
				"error", err)
			if s.onBackendFailure != nil {
				s.onBackendFailure(backend.Name())
			}
			continue
		}
		return s.finish(resp, req, backend.Name())
	}

	// The fallback is deterministic and cannot fail.
	resp, _ := s.fallback.Synthesize(ctx, req)
	return s.finish(resp, req, FallbackName)
}

// finish converts a validated response into a finished record with
// fingerprint and timestamp.
func (s *Synthesizer) finish(resp *Response, req *Request, provenance string) *Record {
	rec := resp.toRecord(req, provenance)
	rec.Fingerprint = fingerprintFor(req)
	rec.CreatedAt = time.Now().UTC()
	return rec
}

// fingerprintFor derives the structural fingerprint of a request's facts.
func fingerprintFor(req *Request) Fingerprint {
	return Fingerprint{
		Complexity:    req.Facts.Complexity,
		HasValidation: req.Facts.HasValidation(),
		HasReturn:     req.Facts.HasReturn(),
		LineCount:     req.LineCount,
	}
}

// Cached returns the cached record for a key, if present.
func (s *Synthesizer) Cached(functionKey string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.cache[functionKey]
	return rec, ok
}

// Invalidate drops the cached record for a key.
func (s *Synthesizer) Invalidate(functionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, functionKey)
}
