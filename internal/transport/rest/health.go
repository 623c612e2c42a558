package rest

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// PingFunc checks one backing dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler serves the liveness, readiness and health endpoints.
type HealthHandler struct {
	checks  map[string]PingFunc
	version string
}

// NewHealthHandler creates a HealthHandler. checks maps component names
// ("database", "redis") to their ping.
func NewHealthHandler(version string, checks map[string]PingFunc) *HealthHandler {
	return &HealthHandler{checks: checks, version: version}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live always answers 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Ready answers 503 as soon as any component is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status, _ := h.probe(r.Context())
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Timestamp: time.Now()})
}

// Health reports every component with its ping latency and the build version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, components := h.probe(r.Context())
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:     status,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func (h *HealthHandler) probe(ctx context.Context) (string, map[string]CompStatus) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := "ok"
	components := make(map[string]CompStatus, len(names))
	for _, name := range names {
		start := time.Now()
		if err := h.checks[name](ctx); err != nil {
			components[name] = CompStatus{Status: "down"}
			overall = "down"
			continue
		}
		components[name] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
	}
	return overall, components
}
