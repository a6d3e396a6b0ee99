package domain

import (
	"math"
	"testing"
)

func TestHaversineKmOneDegreeLatitude(t *testing.T) {
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	a := Coordinates{Lon: 0, Lat: 0}
	b := Coordinates{Lon: 0, Lat: 1}

	got := HaversineKm(a, b)
	if math.Abs(got-111.19) > 0.05 {
		t.Fatalf("distance = %v km, want ~111.19", got)
	}
}

func TestHaversineKmZeroDistance(t *testing.T) {
	p := Coordinates{Lon: 73.0479, Lat: 33.6844}
	if got := HaversineKm(p, p); got != 0 {
		t.Fatalf("distance = %v, want 0", got)
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	a := Coordinates{Lon: 73.0479, Lat: 33.6844}
	b := Coordinates{Lon: 74.3587, Lat: 31.5204}

	ab := HaversineKm(a, b)
	ba := HaversineKm(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("asymmetric: %v vs %v", ab, ba)
	}
	// Islamabad to Lahore is roughly 270 km great-circle.
	if ab < 250 || ab > 290 {
		t.Fatalf("distance = %v km, want ~270", ab)
	}
}

func TestHaversineMetersMatchesKm(t *testing.T) {
	a := Coordinates{Lon: 0, Lat: 0}
	b := Coordinates{Lon: 0.001, Lat: 0.001}

	km := HaversineKm(a, b)
	m := HaversineMeters(a, b)
	if math.Abs(m-km*1000) > 1e-6 {
		t.Fatalf("meters = %v, km*1000 = %v", m, km*1000)
	}
}
