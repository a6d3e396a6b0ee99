package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fleet-dashboard-service/internal/domain"
)

const twoLegResponse = `{
	"code": "Ok",
	"routes": [{
		"distance": 4500,
		"duration": 600,
		"geometry": {
			"type": "LineString",
			"coordinates": [[73.0,33.6],[73.1,33.61],[73.2,33.62],[73.3,33.63],[73.4,33.64]]
		},
		"legs": [
			{
				"distance": 2000,
				"duration": 260,
				"annotation": {
					"speed": [8.5, 9.1],
					"congestion": ["low", "moderate"],
					"maxspeed": [{"speed": 50, "unit": "km/h"}, {"unknown": true}]
				}
			},
			{
				"distance": 2500,
				"duration": 340,
				"annotation": {
					"speed": [10.0, 7.2],
					"congestion": ["low", "heavy"],
					"maxspeed": [{"speed": 30, "unit": "mph"}, {"speed": 60, "unit": "km/h"}]
				}
			}
		]
	}]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*DirectionsProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewDirectionsProvider("test-key", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p, srv
}

func TestFetchMultiRouteSplitsLegs(t *testing.T) {
	var gotPath, gotQuery string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(twoLegResponse)); err != nil {
			t.Errorf("write response: %v", err)
		}
	})

	origin := domain.Coordinates{Lon: 73.0, Lat: 33.6}
	dests := []domain.Coordinates{
		{Lon: 73.2, Lat: 33.62},
		{Lon: 73.4, Lat: 33.64},
	}

	snaps, err := p.FetchMultiRoute(context.Background(), origin, dests)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(gotPath, "/directions/v5/mapbox/driving/") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	for _, want := range []string{"annotations=", "geometries=geojson", "overview=full", "access_token=test-key"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}

	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}

	if snaps[0].DistanceMeters != 2000 || snaps[0].DurationSeconds != 260 {
		t.Fatalf("leg 0 metrics = %v/%v", snaps[0].DistanceMeters, snaps[0].DurationSeconds)
	}
	if len(snaps[0].Geometry) != 3 {
		t.Fatalf("leg 0 geometry length = %d, want 3", len(snaps[0].Geometry))
	}
	if snaps[0].Geometry[0] != (domain.Coordinates{Lon: 73.0, Lat: 33.6}) {
		t.Fatalf("leg 0 does not start at origin: %+v", snaps[0].Geometry[0])
	}

	// Leg 1 shares the boundary coordinate with leg 0.
	if len(snaps[1].Geometry) != 3 {
		t.Fatalf("leg 1 geometry length = %d, want 3", len(snaps[1].Geometry))
	}
	if snaps[1].Geometry[0] != snaps[0].Geometry[2] {
		t.Fatalf("leg boundary mismatch: %+v vs %+v", snaps[1].Geometry[0], snaps[0].Geometry[2])
	}

	if snaps[0].Annotations.MaxspeedKmh[0] != 50 {
		t.Fatalf("maxspeed[0] = %v, want 50", snaps[0].Annotations.MaxspeedKmh[0])
	}
	if snaps[0].Annotations.MaxspeedKmh[1] != 0 {
		t.Fatalf("unknown maxspeed = %v, want 0", snaps[0].Annotations.MaxspeedKmh[1])
	}
	if got := snaps[1].Annotations.MaxspeedKmh[0]; got < 48.2 || got > 48.3 {
		t.Fatalf("mph conversion = %v, want ~48.28", got)
	}
	if snaps[1].Annotations.Congestion[1] != "heavy" {
		t.Fatalf("congestion = %q, want heavy", snaps[1].Annotations.Congestion[1])
	}
}

func TestFetchMultiRouteCoordinateCap(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be issued")
	})

	dests := make([]domain.Coordinates, 25)
	_, err := p.FetchMultiRoute(context.Background(), domain.Coordinates{}, dests)
	if err == nil {
		t.Fatal("expected coordinate cap error")
	}
	if !strings.Contains(err.Error(), "provider limit") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchRouteNonOkCode(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"code":"NoRoute","message":"no route found","routes":[]}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	})

	_, err := p.FetchRoute(context.Background(), domain.Coordinates{}, domain.Coordinates{Lon: 1, Lat: 1})
	if err == nil {
		t.Fatal("expected provider status error")
	}
	if !strings.Contains(err.Error(), "NoRoute") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchRouteTransportFailure(t *testing.T) {
	p, srv := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})
	_ = srv

	_, err := p.FetchRoute(context.Background(), domain.Coordinates{}, domain.Coordinates{Lon: 1, Lat: 1})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchRouteSingleLegWithoutAnnotations(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := `{
			"code": "Ok",
			"routes": [{
				"distance": 1200,
				"duration": 180,
				"geometry": {"type": "LineString", "coordinates": [[73.0,33.6],[73.05,33.61]]},
				"legs": [{"distance": 1200, "duration": 180, "annotation": {}}]
			}]
		}`
		if _, err := w.Write([]byte(body)); err != nil {
			t.Errorf("write response: %v", err)
		}
	})

	snap, err := p.FetchRoute(context.Background(), domain.Coordinates{Lon: 73.0, Lat: 33.6}, domain.Coordinates{Lon: 73.05, Lat: 33.61})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.DistanceMeters != 1200 {
		t.Fatalf("distance = %v, want 1200", snap.DistanceMeters)
	}
	if len(snap.Geometry) != 2 {
		t.Fatalf("geometry length = %d, want 2", len(snap.Geometry))
	}
}
