package view

import (
	"sync"

	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/ports"
)

// SlotBoard is the display layer's implementation of the MapView port: a
// keyed store of current slot geometries plus the vehicle marker, which
// the rendering frontend polls and draws. Writes are idempotent and
// independent per slot, so a consumer can never observe a globally cleared
// frame between two reconciliation passes.
type SlotBoard struct {
	mu     sync.Mutex
	slots  map[ports.RouteSlot][]domain.Coordinates
	marker *domain.Coordinates
}

func NewSlotBoard() *SlotBoard {
	return &SlotBoard{slots: make(map[ports.RouteSlot][]domain.Coordinates)}
}

func (b *SlotBoard) SetRouteGeometry(slot ports.RouteSlot, geometry []domain.Coordinates) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(geometry) == 0 {
		delete(b.slots, slot)
		return
	}
	cp := make([]domain.Coordinates, len(geometry))
	copy(cp, geometry)
	b.slots[slot] = cp
}

func (b *SlotBoard) SetMarkerPosition(pos domain.Coordinates) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := pos
	b.marker = &p
}

// SlotGeometry returns the current geometry for one slot; an empty slice
// means the slot is cleared.
func (b *SlotBoard) SlotGeometry(slot ports.RouteSlot) []domain.Coordinates {
	b.mu.Lock()
	defer b.mu.Unlock()
	geom := b.slots[slot]
	cp := make([]domain.Coordinates, len(geom))
	copy(cp, geom)
	return cp
}

// MarkerPosition returns the vehicle marker, if one has been set.
func (b *SlotBoard) MarkerPosition() (domain.Coordinates, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.marker == nil {
		return domain.Coordinates{}, false
	}
	return *b.marker, true
}
