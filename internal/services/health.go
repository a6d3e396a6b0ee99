package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// StreamClock records the last-update timestamp of each external stream.
// Feed handlers touch it; only the health monitor reads it.
type StreamClock struct {
	mu       sync.Mutex
	location time.Time
	vehicle  time.Time
	pickups  time.Time
}

func NewStreamClock() *StreamClock {
	now := time.Now()
	return &StreamClock{location: now, vehicle: now, pickups: now}
}

func (c *StreamClock) TouchLocation() { c.touch(&c.location) }
func (c *StreamClock) TouchVehicle()  { c.touch(&c.vehicle) }
func (c *StreamClock) TouchPickups()  { c.touch(&c.pickups) }

func (c *StreamClock) touch(t *time.Time) {
	c.mu.Lock()
	*t = time.Now()
	c.mu.Unlock()
}

// Ages returns how long ago each stream last delivered an event.
func (c *StreamClock) Ages(now time.Time) (location, vehicle, pickups time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.location), now.Sub(c.vehicle), now.Sub(c.pickups)
}

// HealthMonitor watches the stream clock and recovers dead subscriptions.
//
// The policy is coarse: when either the location or the vehicle-status
// stream goes stale, ALL three subscriptions are torn down and
// re-established after a short delay. Redundantly resubscribing healthy
// channels is accepted in exchange for not keeping per-channel state.
type HealthMonitor struct {
	Clock            *StreamClock
	CheckInterval    time.Duration
	MaxAge           time.Duration
	ResubscribeDelay time.Duration

	// Resubscribe tears down and re-establishes all three subscriptions.
	Resubscribe func(ctx context.Context) error
	// OnStatus receives UI status transitions such as "reconnecting".
	OnStatus func(status string)

	now func() time.Time
}

func NewHealthMonitor(clock *StreamClock, checkInterval, maxAge, resubscribeDelay time.Duration, resubscribe func(ctx context.Context) error, onStatus func(string)) *HealthMonitor {
	return &HealthMonitor{
		Clock:            clock,
		CheckInterval:    checkInterval,
		MaxAge:           maxAge,
		ResubscribeDelay: resubscribeDelay,
		Resubscribe:      resubscribe,
		OnStatus:         onStatus,
		now:              time.Now,
	}
}

// Run performs the periodic staleness check until ctx is cancelled.
func (m *HealthMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckOnce(ctx)
		}
	}
}

// CheckOnce runs a single staleness check and returns whether a
// resubscription was attempted.
func (m *HealthMonitor) CheckOnce(ctx context.Context) bool {
	locationAge, vehicleAge, _ := m.Clock.Ages(m.now())
	if locationAge <= m.MaxAge && vehicleAge <= m.MaxAge {
		return false
	}

	log.Printf("stale streams detected: location_age=%s vehicle_age=%s", locationAge, vehicleAge)
	if m.OnStatus != nil {
		m.OnStatus("reconnecting")
	}

	if m.ResubscribeDelay > 0 {
		timer := time.NewTimer(m.ResubscribeDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	if err := m.Resubscribe(ctx); err != nil {
		// Leave the clock untouched: the next check retries.
		log.Printf("resubscribe failed: %v", err)
		return true
	}

	// A fresh baseline so the very next check does not re-fire before any
	// event has had a chance to arrive.
	m.Clock.TouchLocation()
	m.Clock.TouchVehicle()
	m.Clock.TouchPickups()

	if m.OnStatus != nil {
		m.OnStatus("connected")
	}
	return true
}
