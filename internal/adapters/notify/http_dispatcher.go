package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleet-dashboard-service/internal/ports"
)

type notificationPayload struct {
	VehicleID        string  `json:"vehicleId"`
	OrganizationID   string  `json:"organizationId"`
	UserID           string  `json:"userId"`
	DistanceKm       float64 `json:"distanceKm"`
	PickupPointID    string  `json:"pickupPointId"`
	PickupPointName  string  `json:"pickupPointName"`
	EstimatedArrival string  `json:"estimatedArrivalISO8601"`
}

// HTTPDispatcher posts proximity notifications to the alerting endpoint.
// Delivery is fire-and-forget: callers log a failure and move on.
type HTTPDispatcher struct {
	session  *http.Client
	endpoint string
	apiKey   string
}

func NewHTTPDispatcher(endpoint, apiKey string) (*HTTPDispatcher, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("notify dispatcher: endpoint must be non-empty")
	}

	return &HTTPDispatcher{
		session:  &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
		apiKey:   apiKey,
	}, nil
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, n ports.Notification) error {
	payload := notificationPayload{
		VehicleID:        n.VehicleID,
		OrganizationID:   n.OrganizationID,
		UserID:           n.UserID,
		DistanceKm:       n.DistanceKm,
		PickupPointID:    n.PickupPointID,
		PickupPointName:  n.PickupPointName,
		EstimatedArrival: n.EstimatedArrival.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dispatch notification: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dispatch notification: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.session.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf(
			"dispatch notification: endpoint returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(b)),
		)
	}
	return nil
}
