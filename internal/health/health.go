// Package health provides health check endpoints for the employees API.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultCheckInterval = 15 * time.Second
	checkTimeout         = 5 * time.Second

	spreadsheetCheck = "spreadsheet"
)

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// StatusRecorder receives every readiness transition.
type StatusRecorder interface {
	SetHealthStatus(healthy bool)
}

// HealthCheck manages health check functionality.
type HealthCheck struct {
	check         Checker
	recorder      StatusRecorder
	logger        *zap.Logger
	mu            sync.RWMutex
	ready         bool
	draining      bool
	lastCheck     time.Time
	checkInterval time.Duration
}

// NewHealthCheck creates a new HealthCheck instance. recorder may be nil.
func NewHealthCheck(check Checker, recorder StatusRecorder, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		check:         check,
		recorder:      recorder,
		logger:        logger,
		checkInterval: defaultCheckInterval,
	}
}

// LivenessResponse represents the response for the liveness check.
type LivenessResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the response for the readiness check.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// LivenessHandler handles GET /health requests.
// Returns 200 OK if the process is running.
func (hc *HealthCheck) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Status: "healthy"})
}

// ReadinessHandler handles GET /ready requests.
// Returns 200 OK if the spreadsheet can be read.
func (hc *HealthCheck) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if hc.IsDraining() {
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{
			Status: "shutting_down",
		})
		return
	}

	if hc.IsReady() {
		writeJSON(w, http.StatusOK, ReadinessResponse{
			Status: "ready",
			Checks: map[string]string{spreadsheetCheck: "healthy"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	if err := hc.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{
			Status: "not_ready",
			Checks: map[string]string{spreadsheetCheck: "unhealthy"},
			Error:  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ReadinessResponse{
		Status: "ready",
		Checks: map[string]string{spreadsheetCheck: "healthy"},
	})
}

// Check runs the dependency check once and records the outcome.
func (hc *HealthCheck) Check(ctx context.Context) error {
	err := hc.check(ctx)
	if err != nil {
		hc.logger.Warn("health check failed", zap.Error(err))
	}

	hc.mu.Lock()
	hc.ready = err == nil && !hc.draining
	hc.lastCheck = time.Now()
	ready := hc.ready
	hc.mu.Unlock()

	if hc.recorder != nil {
		hc.recorder.SetHealthStatus(ready)
	}
	return err
}

// Run re-checks readiness periodically until ctx is cancelled.
func (hc *HealthCheck) Run(ctx context.Context) {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			_ = hc.Check(checkCtx)
			cancel()
		}
	}
}

// IsReady returns the current readiness status.
func (hc *HealthCheck) IsReady() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.ready
}

// IsDraining reports whether Drain has been called.
func (hc *HealthCheck) IsDraining() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.draining
}

// Drain takes the service out of rotation for good. Later checks never
// report it ready again.
func (hc *HealthCheck) Drain() {
	hc.mu.Lock()
	hc.draining = true
	hc.ready = false
	hc.mu.Unlock()

	if hc.recorder != nil {
		hc.recorder.SetHealthStatus(false)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
