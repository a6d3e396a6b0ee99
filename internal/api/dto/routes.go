package dto

import "time"

type RankedEntryResponse struct {
	PickupPointID   string   `json:"pickup_point_id"`
	Name            string   `json:"name"`
	StraightLineKm  float64  `json:"straight_line_km"`
	DistanceMeters  *float64 `json:"distance_meters,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

type RankedRoutesResponse struct {
	Closest          *RankedEntryResponse  `json:"closest"`
	SecondClosest    *RankedEntryResponse  `json:"second_closest"`
	Others           []RankedEntryResponse `json:"others"`
	TotalActiveCount int                   `json:"total_active_count"`
}

type RouteDetailResponse struct {
	PickupPointID   string      `json:"pickup_point_id"`
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds float64     `json:"duration_seconds"`
	Geometry        [][]float64 `json:"geometry"`
	SpeedMps        []float64   `json:"speed_mps,omitempty"`
	Congestion      []string    `json:"congestion,omitempty"`
	MaxspeedKmh     []float64   `json:"maxspeed_kmh,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type DebugResponse struct {
	NotifiedKeys      []string `json:"notified_keys"`
	ActivePickupCount int      `json:"active_pickup_count"`
	TotalPickupCount  int      `json:"total_pickup_count"`
	FeedStatus        string   `json:"feed_status"`
}
