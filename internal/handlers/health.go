package handlers

import (
	"net/http"
	"runtime"
	"time"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Index summary
	TotalImages int `json:"totalImages"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// ready reports whether the initial scan has completed.
func (h *Handlers) ready() bool {
	select {
	case <-h.index.Ready():
		return true
	default:
		return false
	}
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	isReady := h.ready()

	response := HealthResponse{
		Ready:        isReady,
		Version:      h.buildInfo.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if isReady {
		response.Status = statusHealthy
		if snap, err := h.index.Snapshot(r.Context()); err == nil {
			response.TotalImages = len(snap.Images)
		}
	} else {
		response.Status = statusStarting
	}

	w.Header().Set("Content-Type", "application/json")
	if !isReady {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if the
// server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only once the initial scan has completed
// and the index can serve a meaningful snapshot.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.ready() {
		writeJSONStatus(w, "ready")
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not_ready"})
	}
}
