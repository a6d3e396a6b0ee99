package ports

import "fleet-dashboard-service/internal/domain"

// One of the eight rendered path channels on the map.
type RouteSlot int

const (
	SlotClosest RouteSlot = iota
	SlotSecondClosest
	SlotOther1
	SlotOther2
	SlotOther3
	SlotOther4
	SlotOther5
)

// Number of "other" path slots after closest and second-closest.
const OtherSlotCount = 5

// OtherSlot maps rank index 0..4 to its slot.
func OtherSlot(i int) RouteSlot { return SlotOther1 + RouteSlot(i) }

// AllRouteSlots lists every slot in render order.
func AllRouteSlots() []RouteSlot {
	return []RouteSlot{
		SlotClosest, SlotSecondClosest,
		SlotOther1, SlotOther2, SlotOther3, SlotOther4, SlotOther5,
	}
}

// Port: the narrow capability surface the reconciler needs from the display
// layer. Each write is independent and idempotent; an empty geometry clears
// the slot. There is deliberately no "clear all then redraw" operation, so
// the display can never show an empty frame between route updates.
type MapView interface {
	SetRouteGeometry(slot RouteSlot, geometry []domain.Coordinates)
	SetMarkerPosition(pos domain.Coordinates)
}
