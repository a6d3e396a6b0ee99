package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"slices"
	"sync"
	"time"

	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/ports"
)

// ProximityNotifier emits at most one notification per (owner, distance
// band) while the vehicle is inside the [minKm, maxKm] window. Band is the
// integer kilometer floor of the measured route distance.
//
// Hysteresis: once the distance exceeds maxKm, the fired keys for that
// owner's bands are cleared, so a vehicle that leaves and re-enters the
// window notifies again.
type ProximityNotifier struct {
	dispatcher ports.NotificationDispatcher

	vehicleID      string
	organizationID string
	minKm          float64
	maxKm          float64

	mu    sync.Mutex
	fired map[string]struct{}

	now func() time.Time
}

func NewProximityNotifier(dispatcher ports.NotificationDispatcher, vehicleID, organizationID string, minKm, maxKm float64) *ProximityNotifier {
	return &ProximityNotifier{
		dispatcher:     dispatcher,
		vehicleID:      vehicleID,
		organizationID: organizationID,
		minKm:          minKm,
		maxKm:          maxKm,
		fired:          make(map[string]struct{}),
		now:            time.Now,
	}
}

func firedKey(userID string, band int) string {
	return fmt.Sprintf("%s|%d", userID, band)
}

// Observe processes one measured route distance for a pickup point.
// Points without an owner never notify.
func (n *ProximityNotifier) Observe(ctx context.Context, point *domain.PickupPoint, distanceKm, durationSeconds float64) {
	if point.OwnerUserID == "" {
		return
	}

	if distanceKm > n.maxKm {
		n.rearm(point.OwnerUserID)
		return
	}

	if distanceKm < n.minKm {
		return
	}

	band := int(math.Floor(distanceKm))
	key := firedKey(point.OwnerUserID, band)

	n.mu.Lock()
	if _, done := n.fired[key]; done {
		n.mu.Unlock()
		return
	}
	n.fired[key] = struct{}{}
	n.mu.Unlock()

	eta := n.now().Add(time.Duration(durationSeconds * float64(time.Second)))
	err := n.dispatcher.Dispatch(ctx, ports.Notification{
		VehicleID:        n.vehicleID,
		OrganizationID:   n.organizationID,
		UserID:           point.OwnerUserID,
		DistanceKm:       distanceKm,
		PickupPointID:    point.ID,
		PickupPointName:  point.Name,
		EstimatedArrival: eta,
	})
	if err != nil {
		// Fire-and-forget: the key stays fired even when delivery fails.
		log.Printf("notify failed: point_id=%s user_id=%s err=%v", point.ID, point.OwnerUserID, err)
	}
}

// rearm clears every band key for the owner inside the notify window.
func (n *ProximityNotifier) rearm(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for band := int(math.Floor(n.minKm)); band <= int(math.Floor(n.maxKm)); band++ {
		delete(n.fired, firedKey(userID, band))
	}
}

// Reset clears all fired keys. Called when the active pickup-point set is
// replaced wholesale, so a dataset refresh cannot suppress legitimate
// notifications.
func (n *ProximityNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fired = make(map[string]struct{})
}

// NotifiedKeys returns the fired keys in sorted order, for introspection.
func (n *ProximityNotifier) NotifiedKeys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	keys := make([]string, 0, len(n.fired))
	for k := range n.fired {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
