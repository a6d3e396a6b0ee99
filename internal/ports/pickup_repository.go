package ports

import (
	"context"

	"fleet-dashboard-service/internal/domain"
)

// Port: a boundary for the persistent mirror of the fleet dataset. The
// realtime feed delivers deltas only; the repository provides the initial
// snapshot at startup.
type PickupPointRepository interface {
	// Retrieve all pickup points for the organization, active or not.
	ListPickupPoints(ctx context.Context) ([]*domain.PickupPoint, error)
	// Retrieve the vehicle record owning this dashboard.
	GetVehicle(ctx context.Context, deviceID string) (*domain.Vehicle, error)
}
