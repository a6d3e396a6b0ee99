package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/ports"
)

// Collections delivered by the realtime backend.
const (
	CollectionLocations    = "device_locations"
	CollectionVehicles     = "vehicles"
	CollectionPickupPoints = "pickup_points"
)

type locationDocument struct {
	DeviceID  string  `json:"device_id"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type vehicleDocument struct {
	DeviceID       string `json:"device_id"`
	OrganizationID string `json:"organization_id"`
	PlateNumber    string `json:"plate_number"`
	Status         string `json:"status"`
}

type pickupPointDocument struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	OwnerUserID string  `json:"owner_user_id"`
	DeviceID    string  `json:"device_id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	IsActive    bool    `json:"is_active"`
}

func (d pickupPointDocument) toDomain() *domain.PickupPoint {
	return &domain.PickupPoint{
		ID:          d.ID,
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		OwnerUserID: d.OwnerUserID,
		DeviceID:    d.DeviceID,
		Lat:         d.Latitude,
		Lon:         d.Longitude,
		IsActive:    d.IsActive,
	}
}

// FeedBinder owns the three realtime subscriptions (vehicle location,
// vehicle record, organization pickup points), decodes their change events
// and forwards them to the reconciler, touching the stream clock on every
// event. It is the resubscription target of the health monitor.
type FeedBinder struct {
	feed           ports.RealtimeFeed
	rec            *Reconciler
	clock          *StreamClock
	deviceID       string
	organizationID string

	mu     sync.Mutex
	subs   []ports.Subscription
	status string
}

func NewFeedBinder(feed ports.RealtimeFeed, rec *Reconciler, clock *StreamClock, deviceID, organizationID string) *FeedBinder {
	return &FeedBinder{
		feed:           feed,
		rec:            rec,
		clock:          clock,
		deviceID:       deviceID,
		organizationID: organizationID,
		status:         "disconnected",
	}
}

// Start establishes all three subscriptions. A partial failure closes
// whatever was opened; the binder holds subscriptions all-or-nothing so
// the whole-group recovery policy stays simple.
func (b *FeedBinder) Start(ctx context.Context) error {
	locSub, err := b.feed.Subscribe(ctx, CollectionLocations,
		map[string]string{"device_id": b.deviceID}, b.onLocation)
	if err != nil {
		return fmt.Errorf("feed binder: subscribe locations: %w", err)
	}

	vehSub, err := b.feed.Subscribe(ctx, CollectionVehicles,
		map[string]string{"device_id": b.deviceID}, b.onVehicle)
	if err != nil {
		_ = locSub.Close()
		return fmt.Errorf("feed binder: subscribe vehicles: %w", err)
	}

	pickupSub, err := b.feed.Subscribe(ctx, CollectionPickupPoints,
		map[string]string{"organization_id": b.organizationID}, b.onPickupPoint)
	if err != nil {
		_ = locSub.Close()
		_ = vehSub.Close()
		return fmt.Errorf("feed binder: subscribe pickup points: %w", err)
	}

	b.mu.Lock()
	b.subs = []ports.Subscription{locSub, vehSub, pickupSub}
	b.status = "connected"
	b.mu.Unlock()
	return nil
}

// Close tears down all subscriptions.
func (b *FeedBinder) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.status = "disconnected"
	b.mu.Unlock()

	for _, s := range subs {
		if err := s.Close(); err != nil {
			log.Printf("feed unsubscribe failed: %v", err)
		}
	}
}

// Resubscribe tears down and re-establishes all three subscriptions.
// Healthy channels are torn down along with stale ones: the group policy
// trades redundant work for not tracking per-channel health.
func (b *FeedBinder) Resubscribe(ctx context.Context) error {
	b.Close()
	return b.Start(ctx)
}

// SetStatus records a UI status transition such as "reconnecting".
func (b *FeedBinder) SetStatus(status string) {
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()
}

// Status returns the current connection status.
func (b *FeedBinder) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *FeedBinder) onLocation(ev ports.ChangeEvent) {
	b.clock.TouchLocation()
	if ev.Kind == ports.EventDelete {
		return
	}

	var doc locationDocument
	if err := json.Unmarshal(ev.Document, &doc); err != nil {
		log.Printf("decode location event failed: %v", err)
		return
	}
	b.rec.HandleVehiclePosition(context.Background(), domain.Coordinates{Lon: doc.Longitude, Lat: doc.Latitude})
}

func (b *FeedBinder) onVehicle(ev ports.ChangeEvent) {
	b.clock.TouchVehicle()
	if ev.Kind == ports.EventDelete {
		return
	}

	var doc vehicleDocument
	if err := json.Unmarshal(ev.Document, &doc); err != nil {
		log.Printf("decode vehicle event failed: %v", err)
		return
	}
	log.Printf("vehicle status: device_id=%s status=%s", doc.DeviceID, doc.Status)
}

func (b *FeedBinder) onPickupPoint(ev ports.ChangeEvent) {
	b.clock.TouchPickups()

	var doc pickupPointDocument
	if err := json.Unmarshal(ev.Document, &doc); err != nil {
		log.Printf("decode pickup point event failed: %v", err)
		return
	}
	b.rec.HandlePickupEvent(doc.toDomain(), ev.Kind)
}
