package boundary

import (
	"context"
	"net/http"
	"time"

	"github.com/pepperjack/objectstore/internal/blobstore"
)

// liveness handles GET /health: a fast unconditional 200 while the process
// is alive, grounded on marmos91-dittofs's HealthHandler.Liveness.
func (h *handlers) liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessResponse carries the catalog status plus, when the configured
// store supports it, a snapshot of hot/cold disk capacity — generalized
// from the teacher's handler/routes.go Readiness disk-space check.
type readinessResponse struct {
	Status string                        `json:"status"`
	Reason string                        `json:"reason,omitempty"`
	Disk   []blobstore.StorageClassUsage `json:"disk,omitempty"`
}

// readiness handles GET /health/ready: 503 if the catalog cannot be pinged
// within a short timeout (§6 "503 on catalog failure"). Disk capacity is
// informational only — it never fails the probe, since a tight hot root
// doesn't mean the cold root (or the catalog) can't serve requests.
func (h *handlers) readiness(w http.ResponseWriter, r *http.Request) {
	resp := readinessResponse{Status: "ok"}
	if reporter, ok := h.deps.Store.(blobstore.DiskUsageReporter); ok {
		if usage, err := reporter.DiskUsage(); err == nil {
			resp.Disk = usage
		}
	}

	if h.deps.Pinger == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.deps.Pinger.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Reason = "catalog unreachable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
