package api

import (
	"net/http"

	"fleet-dashboard-service/internal/api/handlers"
	"fleet-dashboard-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root; handlers stay unaware of
// concrete adapters.
func NewRouter(rec *services.Reconciler, notifier *services.ProximityNotifier, feedStatus func() string) http.Handler {
	mux := http.NewServeMux()

	healthHandler := &handlers.HealthHandler{FeedStatus: feedStatus}
	routesHandler := &handlers.RoutesHandler{Rec: rec}
	debugHandler := &handlers.DebugHandler{
		Rec:        rec,
		Notifier:   notifier,
		FeedStatus: feedStatus,
	}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/routes", routesHandler.List)
	mux.HandleFunc("/routes/", routesHandler.Detail)
	mux.HandleFunc("/debug/notified", debugHandler.Notified)

	return requestIDMiddleware(loggingMiddleware(mux))
}
