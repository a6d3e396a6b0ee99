package ports

import (
	"context"

	"fleet-dashboard-service/internal/domain"
)

// Contract for computing a driving route between two coordinates.
//
// Providers perform no retries; a transport failure or a non-Ok provider
// status is returned as a recoverable error and the caller decides whether
// to keep last-known-good state or retry on the next pass.
type RouteProvider interface {
	// Return the best driving route from origin to destination with full
	// geometry and per-segment annotations.
	FetchRoute(ctx context.Context, origin, destination domain.Coordinates) (domain.RouteSnapshot, error)
}

// Optional extension of RouteProvider that routes through an ordered list
// of waypoints in a single request (at most 25 coordinates total). The
// result carries one snapshot per leg, in waypoint order.
type MultiRouteProvider interface {
	RouteProvider
	FetchMultiRoute(ctx context.Context, origin domain.Coordinates, destinations []domain.Coordinates) ([]domain.RouteSnapshot, error)
}
