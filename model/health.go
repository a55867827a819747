package model

import (
	"sync"
	"time"
)

// Health defaults. An endpoint is taken out of rotation after
// FailureThreshold consecutive failures and probed again after
// RecoveryTimeout.
const (
	FailureThreshold = 3
	RecoveryTimeout  = 30 * time.Second
)

// endpointHealth tracks consecutive failures for one endpoint.
type endpointHealth struct {
	mu                  sync.Mutex
	consecutiveFailures int
	lastFailure         time.Time
}

// markSuccess resets the failure counter.
func (h *endpointHealth) markSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFailures = 0
}

// markFailure increments the failure counter.
func (h *endpointHealth) markFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFailures++
	h.lastFailure = time.Now()
}

// available reports whether the endpoint should be tried. Once the failure
// threshold is reached, the endpoint stays unavailable until the recovery
// timeout elapses, after which one probe is allowed.
func (h *endpointHealth) available() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.consecutiveFailures < FailureThreshold {
		return true
	}
	return time.Since(h.lastFailure) >= RecoveryTimeout
}
