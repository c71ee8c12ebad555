// Package health implements liveness and readiness checks with periodic
// background evaluation and HTTP endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// check holds one registered check and its last observed result.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu      sync.Mutex
	lastErr error
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)

	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *check) healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr == nil
}

func (c *check) status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		return c.lastErr.Error()
	}
	return "ok"
}

// Health runs registered checks in the background and serves their
// aggregate state over HTTP.
type Health struct {
	mu        sync.Mutex
	liveness  []*check
	readiness []*check
	ready     bool
	cancel    context.CancelFunc
}

// New creates an empty Health service. It reports not-ready until
// SetReady(true) is called.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check evaluated on every cycle.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a readiness check evaluated on every cycle.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &check{name: name, timeout: timeout, fn: fn})
}

// Start begins periodic evaluation of all checks until Stop is called
// or ctx is cancelled. Checks run once immediately.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append(append([]*check(nil), h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, c := range checks {
		go func() {
			c.run(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}()
	}
}

// Stop halts background evaluation.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Readiness requires both the
// gate and every readiness check to pass.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady reports the manual readiness gate.
func (h *Health) IsReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

// LiveEndpoint serves the liveness state.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check(nil), h.liveness...)
	h.mu.Unlock()

	respond(w, checks, true)
}

// ReadyEndpoint serves the readiness state, gated by SetReady.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check(nil), h.readiness...)
	gate := h.ready
	h.mu.Unlock()

	respond(w, checks, gate)
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func respond(w http.ResponseWriter, checks []*check, gate bool) {
	resp := response{Status: "ok", Checks: make(map[string]string, len(checks))}
	healthy := gate
	for _, c := range checks {
		resp.Checks[c.name] = c.status()
		if !c.healthy() {
			healthy = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		resp.Status = "unavailable"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
