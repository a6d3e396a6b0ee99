package routing

import (
	"context"
	"fmt"

	"fleet-dashboard-service/internal/domain"
)

type MockRoute struct {
	To      domain.Coordinates
	Meters  float64
	Seconds float64
}

// MockRouteProvider serves canned routes keyed by destination. Geometry is
// synthesized as a straight origin->destination segment.
type MockRouteProvider struct {
	m map[string]MockRoute
}

func coordKey(c domain.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}

func NewMockRouteProvider(routes []MockRoute) *MockRouteProvider {
	m := make(map[string]MockRoute, len(routes))
	for _, r := range routes {
		m[coordKey(r.To)] = r
	}
	return &MockRouteProvider{m: m}
}

func (p *MockRouteProvider) FetchRoute(ctx context.Context, origin, destination domain.Coordinates) (domain.RouteSnapshot, error) {
	r, ok := p.m[coordKey(destination)]
	if !ok {
		return domain.RouteSnapshot{}, fmt.Errorf("missing route to %s", coordKey(destination))
	}

	return domain.RouteSnapshot{
		DistanceMeters:  r.Meters,
		DurationSeconds: r.Seconds,
		Geometry:        []domain.Coordinates{origin, destination},
	}, nil
}
