package ports

import (
	"context"
	"time"
)

// Payload for a proximity notification.
type Notification struct {
	VehicleID        string
	OrganizationID   string
	UserID           string
	DistanceKm       float64
	PickupPointID    string
	PickupPointName  string
	EstimatedArrival time.Time
}

// Port: out-of-band notification delivery. Dispatch is fire-and-forget;
// a failure is logged by the caller and never retried.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}
