package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Reclaimer runs an on-demand sweep of orphaned uploads.
type Reclaimer interface {
	Sweep(ctx context.Context) ([]string, error)
}

// ReclaimHandler exposes the orphan reclaimer to administrators.
type ReclaimHandler struct {
	Reclaimer Reclaimer
	Log       *zap.Logger
}

// Reclaim handles POST /admin/reclaim. It answers 409 while another sweep runs.
func (h *ReclaimHandler) Reclaim(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Reclaimer.Sweep(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"deleted": deleted})
}
