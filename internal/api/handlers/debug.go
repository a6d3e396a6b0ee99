package handlers

import (
	"net/http"

	"fleet-dashboard-service/internal/api/dto"
	"fleet-dashboard-service/internal/services"
)

type DebugHandler struct {
	Rec        *services.Reconciler
	Notifier   *services.ProximityNotifier
	FeedStatus func() string
}

// Notified exposes the fired notification keys and pickup-point counts for
// operator introspection.
func (h *DebugHandler) Notified(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	active, total := h.Rec.Counts()
	res := dto.DebugResponse{
		NotifiedKeys:      h.Notifier.NotifiedKeys(),
		ActivePickupCount: active,
		TotalPickupCount:  total,
	}
	if h.FeedStatus != nil {
		res.FeedStatus = h.FeedStatus()
	}

	writeJSON(w, r, http.StatusOK, res)
}
