package handlers

import (
	"net/http"
	"strings"

	"fleet-dashboard-service/internal/api/dto"
	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/services"
)

type RoutesHandler struct {
	Rec *services.Reconciler
}

// List serves the current ranked route set as the display layer sees it.
func (h *RoutesHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	set := h.Rec.RankedRoutes()

	others := make([]dto.RankedEntryResponse, 0, len(set.Others))
	for i := range set.Others {
		others = append(others, toEntryResponse(&set.Others[i]))
	}

	res := dto.RankedRoutesResponse{
		Others:           others,
		TotalActiveCount: set.TotalActiveCount,
	}
	if set.Closest != nil {
		e := toEntryResponse(set.Closest)
		res.Closest = &e
	}
	if set.SecondClosest != nil {
		e := toEntryResponse(set.SecondClosest)
		res.SecondClosest = &e
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Detail serves the latest route snapshot for one pickup point.
func (h *RoutesHandler) Detail(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	pointID := strings.TrimPrefix(r.URL.Path, "/routes/")
	if pointID == "" || strings.Contains(pointID, "/") {
		writeError(w, r, http.StatusBadRequest, "pickup point id is required")
		return
	}

	snap, ok := h.Rec.RouteDetail(pointID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "no route for pickup point")
		return
	}

	geometry := make([][]float64, 0, len(snap.Geometry))
	for _, c := range snap.Geometry {
		geometry = append(geometry, c.CoordsToList())
	}

	writeJSON(w, r, http.StatusOK, dto.RouteDetailResponse{
		PickupPointID:   pointID,
		DistanceMeters:  snap.DistanceMeters,
		DurationSeconds: snap.DurationSeconds,
		Geometry:        geometry,
		SpeedMps:        snap.Annotations.SpeedMps,
		Congestion:      snap.Annotations.Congestion,
		MaxspeedKmh:     snap.Annotations.MaxspeedKmh,
		UpdatedAt:       snap.UpdatedAt,
	})
}

func toEntryResponse(entry *domain.RankedPickup) dto.RankedEntryResponse {
	res := dto.RankedEntryResponse{
		PickupPointID:  entry.Point.ID,
		Name:           entry.Point.Name,
		StraightLineKm: entry.StraightLineKm,
	}
	if entry.Route != nil {
		meters := entry.Route.DistanceMeters
		seconds := entry.Route.DurationSeconds
		res.DistanceMeters = &meters
		res.DurationSeconds = &seconds
	}
	return res
}
