package ports

import (
	"context"

	"fleet-dashboard-service/internal/domain"
)

// Port: last-known-good route snapshots keyed by pickup-point id. The
// cache warms the route store after a restart so the map does not flash
// empty while the first reconciliation pass runs. Entries expire on their
// own; the cache is never authoritative.
type RouteCache interface {
	GetAll(ctx context.Context) (map[string]domain.RouteSnapshot, error)
	Put(ctx context.Context, pointID string, snap domain.RouteSnapshot) error
	Delete(ctx context.Context, pointID string) error
}
