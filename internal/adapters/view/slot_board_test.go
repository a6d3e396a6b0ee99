package view

import (
	"testing"

	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/ports"
)

func TestSlotBoardSetAndClear(t *testing.T) {
	b := NewSlotBoard()
	geom := []domain.Coordinates{{Lon: 73.0, Lat: 33.6}, {Lon: 73.1, Lat: 33.7}}

	b.SetRouteGeometry(ports.SlotClosest, geom)
	got := b.SlotGeometry(ports.SlotClosest)
	if len(got) != 2 || got[1] != geom[1] {
		t.Fatalf("slot geometry = %v, want %v", got, geom)
	}

	// An empty write clears the slot without touching its neighbors.
	b.SetRouteGeometry(ports.SlotSecondClosest, geom)
	b.SetRouteGeometry(ports.SlotClosest, nil)
	if len(b.SlotGeometry(ports.SlotClosest)) != 0 {
		t.Fatal("closest slot should be cleared")
	}
	if len(b.SlotGeometry(ports.SlotSecondClosest)) != 2 {
		t.Fatal("neighbor slot should be untouched")
	}
}

func TestSlotBoardReturnsCopies(t *testing.T) {
	b := NewSlotBoard()
	geom := []domain.Coordinates{{Lon: 1, Lat: 1}}
	b.SetRouteGeometry(ports.SlotClosest, geom)

	// Mutating either the input or the returned slice must not leak into
	// the board.
	geom[0] = domain.Coordinates{Lon: 9, Lat: 9}
	out := b.SlotGeometry(ports.SlotClosest)
	out[0] = domain.Coordinates{Lon: 8, Lat: 8}

	fresh := b.SlotGeometry(ports.SlotClosest)
	if fresh[0] != (domain.Coordinates{Lon: 1, Lat: 1}) {
		t.Fatalf("stored geometry mutated: %v", fresh[0])
	}
}

func TestSlotBoardMarker(t *testing.T) {
	b := NewSlotBoard()
	if _, ok := b.MarkerPosition(); ok {
		t.Fatal("marker should be unset initially")
	}

	pos := domain.Coordinates{Lon: 73.0479, Lat: 33.6844}
	b.SetMarkerPosition(pos)
	got, ok := b.MarkerPosition()
	if !ok || got != pos {
		t.Fatalf("marker = %v/%v, want %v", got, ok, pos)
	}
}
