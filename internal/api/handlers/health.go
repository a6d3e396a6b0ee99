package handlers

import (
	"net/http"
)

type HealthHandler struct {
	// FeedStatus reports the realtime connection status, e.g. "connected"
	// or "reconnecting".
	FeedStatus func() string
}

// Health provides a minimal liveness check endpoint.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	res := map[string]string{"status": "ok"}
	if h.FeedStatus != nil {
		res["feed"] = h.FeedStatus()
	}
	writeJSON(w, r, http.StatusOK, res)
}
