package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is anything whose liveness can be probed, such as a storage backend
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Status    string            `json:"status"`
}

// HealthChecker manages health checks for the service
type HealthChecker struct {
	checks map[string]Pinger
}

// NewHealthChecker creates a new HealthChecker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]Pinger)}
}

// Register adds a named dependency to the health check
func (h *HealthChecker) Register(name string, p Pinger) {
	h.checks[name] = p
}

// Check performs health checks and returns the status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	checks := make(map[string]string, len(h.checks))
	overallStatus := "healthy"

	for name, p := range h.checks {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.Ping(pingCtx)
		cancel()

		if err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks[name] = "healthy"
		}
	}

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// Healthy reports whether every registered dependency answered
func (h *HealthChecker) Healthy(ctx context.Context) bool {
	return h.Check(ctx).Status == "healthy"
}

// HealthHandler returns an HTTP handler for health checks
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(status)
	}
}
