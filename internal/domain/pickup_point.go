package domain

// Represents a single pickup location mirrored from the external feed.
// The core never mutates pickup points; it re-filters by IsActive before
// every use so that an inactive point can never reach ranking, routing,
// or notification.
type PickupPoint struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	OwnerUserID string
	DeviceID    string
	Lat         float64
	Lon         float64
	IsActive    bool
}

func (p *PickupPoint) Coordinates() Coordinates {
	return Coordinates{Lon: p.Lon, Lat: p.Lat}
}
