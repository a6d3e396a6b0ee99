package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/platform/obs"
)

// Hard provider limit on coordinates per directions request.
const maxCoordinatesPerRequest = 25

const milesToKm = 1.60934

// DirectionsProvider implements RouteProvider against a Mapbox-style
// directions API: driving profile, full GeoJSON geometry, per-segment
// speed/congestion/maxspeed annotations.
//
// The provider performs no retries and keeps no state; the caller owns
// retry policy and last-known-good handling. Safe for concurrent use.
type DirectionsProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
}

func NewDirectionsProvider(apiKey string, baseURL string) (*DirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("directions api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://api.mapbox.com"
	}

	return &DirectionsProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "mapbox/driving",
	}, nil
}

// FetchRoute returns the driving route to a single destination.
func (p *DirectionsProvider) FetchRoute(
	ctx context.Context,
	origin, destination domain.Coordinates,
) (domain.RouteSnapshot, error) {
	snaps, err := p.FetchMultiRoute(ctx, origin, []domain.Coordinates{destination})
	if err != nil {
		return domain.RouteSnapshot{}, err
	}
	if len(snaps) != 1 {
		return domain.RouteSnapshot{}, fmt.Errorf("directions: expected 1 leg, got %d", len(snaps))
	}
	return snaps[0], nil
}

// FetchMultiRoute routes through the ordered destinations in one request
// and returns one snapshot per leg. The caller must stay within the
// 25-coordinate provider limit; this adapter refuses rather than truncates.
func (p *DirectionsProvider) FetchMultiRoute(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ []domain.RouteSnapshot, err error) {
	defer obs.Time(ctx, "directions.FetchMultiRoute")(&err)

	if len(destinations) == 0 {
		return nil, errors.New("directions: at least one destination is required")
	}
	if 1+len(destinations) > maxCoordinatesPerRequest {
		return nil, fmt.Errorf(
			"directions: %d coordinates exceed the provider limit of %d",
			1+len(destinations), maxCoordinatesPerRequest,
		)
	}

	endpoint := fmt.Sprintf(
		"%s/directions/v5/%s/%s?%s",
		p.baseURL, p.profile, coordinatePath(origin, destinations), p.query(),
	)

	req, err := p.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("directions request: %w", err)
	}

	resp, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	if dr.Code != "Ok" {
		return nil, fmt.Errorf("directions: provider returned code %q: %s", dr.Code, dr.Message)
	}
	if len(dr.Routes) == 0 {
		return nil, errors.New("directions: provider returned no routes")
	}

	return splitRouteByLegs(dr.Routes[0], len(destinations))
}

func (p *DirectionsProvider) query() string {
	q := url.Values{}
	q.Set("alternatives", "false")
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("annotations", "speed,congestion,maxspeed")
	q.Set("access_token", p.apiKey)
	return q.Encode()
}

func coordinatePath(origin domain.Coordinates, destinations []domain.Coordinates) string {
	parts := make([]string, 0, 1+len(destinations))
	parts = append(parts, fmt.Sprintf("%f,%f", origin.Lon, origin.Lat))
	for _, d := range destinations {
		parts = append(parts, fmt.Sprintf("%f,%f", d.Lon, d.Lat))
	}
	return strings.Join(parts, ";")
}

// splitRouteByLegs cuts the full route geometry into per-leg snapshots.
// Annotation arrays hold one value per segment, so leg i spans
// len(annotation.speed) segments, which pins down its coordinate range
// within the overview geometry.
func splitRouteByLegs(route directionsRoute, wantLegs int) ([]domain.RouteSnapshot, error) {
	if len(route.Legs) != wantLegs {
		return nil, fmt.Errorf("directions: expected %d legs, got %d", wantLegs, len(route.Legs))
	}
	if len(route.Geometry.Coordinates) < 2 {
		return nil, errors.New("directions: route geometry is missing")
	}

	geometry := make([]domain.Coordinates, 0, len(route.Geometry.Coordinates))
	for i, c := range route.Geometry.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("directions: malformed coordinate at index %d", i)
		}
		geometry = append(geometry, domain.Coordinates{Lon: c[0], Lat: c[1]})
	}

	snaps := make([]domain.RouteSnapshot, 0, len(route.Legs))
	offset := 0
	for li, leg := range route.Legs {
		segments := len(leg.Annotation.Speed)

		var legGeometry []domain.Coordinates
		if segments > 0 {
			if offset+segments+1 > len(geometry) {
				return nil, fmt.Errorf(
					"directions: leg %d annotation spans %d segments past geometry end",
					li, segments,
				)
			}
			legGeometry = geometry[offset : offset+segments+1]
			offset += segments
		} else if wantLegs == 1 {
			// Annotations can be absent; a single leg still owns the
			// whole overview geometry.
			legGeometry = geometry
		} else {
			return nil, fmt.Errorf("directions: leg %d has no annotations to split geometry by", li)
		}

		snaps = append(snaps, domain.RouteSnapshot{
			DistanceMeters:  leg.Distance,
			DurationSeconds: leg.Duration,
			Geometry:        legGeometry,
			Annotations: domain.RouteAnnotations{
				SpeedMps:    leg.Annotation.Speed,
				Congestion:  leg.Annotation.Congestion,
				MaxspeedKmh: maxspeedsKmh(leg.Annotation.Maxspeed),
			},
		})
	}

	return snaps, nil
}

// maxspeedsKmh converts posted limits to km/h; unknown segments map to 0.
func maxspeedsKmh(entries []maxspeedEntry) []float64 {
	if len(entries) == 0 {
		return nil
	}
	out := make([]float64, len(entries))
	for i, e := range entries {
		if e.Unknown || e.Speed == nil {
			continue
		}
		switch e.Unit {
		case "mph":
			out[i] = *e.Speed * milesToKm
		default:
			out[i] = *e.Speed
		}
	}
	return out
}
