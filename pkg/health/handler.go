package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// Handler provides HTTP endpoints for health checks
type Handler struct {
	checker *HealthChecker
	service string
	version string
}

// NewHandler creates a new health check HTTP handler
func NewHandler(checker *HealthChecker, service, version string) *Handler {
	return &Handler{
		checker: checker,
		service: service,
		version: version,
	}
}

// HealthCheckHandler handles health check HTTP requests
func (h *Handler) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		detailed := r.URL.Query().Get("detailed") == "true"

		report := h.checker.Check(r.Context(), h.service, h.version)

		statusCode := http.StatusOK
		if report.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		var response interface{}
		if detailed {
			response = report
		} else {
			response = map[string]interface{}{
				"status":    report.Status,
				"timestamp": report.Timestamp,
				"version":   report.Version,
				"service":   report.Service,
				"summary":   report.Summary,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.WriteHeader(statusCode)

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			http.Error(w, "Failed to encode health check response", http.StatusInternalServerError)
		}
	}
}

// ReadinessHandler handles readiness probe requests
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		report := h.checker.Check(r.Context(), h.service, h.version)

		ready := true
		for _, check := range report.Checks {
			if check.Critical && check.Status != StatusHealthy {
				ready = false
				break
			}
		}

		statusCode := http.StatusOK
		status := "ready"
		if !ready {
			statusCode = http.StatusServiceUnavailable
			status = "not ready"
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.WriteHeader(statusCode)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    status,
			"ready":     ready,
			"timestamp": time.Now(),
			"service":   h.service,
			"version":   h.version,
		})
	}
}

// LivenessHandler handles liveness probe requests
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "alive",
			"timestamp": time.Now(),
			"service":   h.service,
		})
	}
}
