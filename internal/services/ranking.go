package services

import (
	"slices"

	"fleet-dashboard-service/internal/domain"
)

// RankByStraightLine orders pickup points ascending by great-circle
// distance from the vehicle. Callers filter by IsActive before ranking;
// inactive points must never be passed in.
//
// Ties keep the input order (stable sort). There is no secondary key:
// straight-line ranking is only a provisional order and a selection
// trigger for real-route fetches, so a deterministic tie-break beyond
// stability buys nothing.
func RankByStraightLine(vehicle domain.Coordinates, points []*domain.PickupPoint) []domain.RankedPickup {
	ranked := make([]domain.RankedPickup, 0, len(points))
	for _, p := range points {
		ranked = append(ranked, domain.RankedPickup{
			Point:          p,
			StraightLineKm: domain.HaversineKm(vehicle, p.Coordinates()),
		})
	}

	slices.SortStableFunc(ranked, func(a, b domain.RankedPickup) int {
		if a.StraightLineKm < b.StraightLineKm {
			return -1
		}
		if a.StraightLineKm > b.StraightLineKm {
			return 1
		}
		return 0
	})

	return ranked
}
