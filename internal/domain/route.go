package domain

import "time"

// Per-segment route annotations. Arrays are parallel and keyed by segment
// index (segment i connects geometry points i and i+1).
type RouteAnnotations struct {
	SpeedMps    []float64
	Congestion  []string
	MaxspeedKmh []float64
}

// One computed driving route from the vehicle to a single pickup point.
// A RouteSnapshot is immutable once produced; a later successful fetch
// replaces it wholesale. Keyed by pickup-point id in the route store.
type RouteSnapshot struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []Coordinates
	Annotations     RouteAnnotations
	UpdatedAt       time.Time
}

// DistanceKm returns the route distance in kilometers.
func (s RouteSnapshot) DistanceKm() float64 { return s.DistanceMeters / 1000 }

// One pickup point with its ranking distance and, when a fetch has
// succeeded at least once, the latest route snapshot.
type RankedPickup struct {
	Point          *PickupPoint
	StraightLineKm float64
	Route          *RouteSnapshot
}

// EffectiveKm is the best available distance estimate: the real route
// distance when known, else the straight-line fallback.
func (r RankedPickup) EffectiveKm() float64 {
	if r.Route != nil {
		return r.Route.DistanceKm()
	}
	return r.StraightLineKm
}

// The published result of one reconciliation pass: the top two routes are
// rendered distinctly, up to five more are drawn as "other" paths, and any
// remainder is summarized by TotalActiveCount only.
type RankedRouteSet struct {
	Closest          *RankedPickup
	SecondClosest    *RankedPickup
	Others           []RankedPickup
	TotalActiveCount int
}
