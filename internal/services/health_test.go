package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func staleClock(t *testing.T, locationAge, vehicleAge, pickupsAge time.Duration) *StreamClock {
	t.Helper()
	now := time.Now()
	c := NewStreamClock()
	c.mu.Lock()
	c.location = now.Add(-locationAge)
	c.vehicle = now.Add(-vehicleAge)
	c.pickups = now.Add(-pickupsAge)
	c.mu.Unlock()
	return c
}

func TestCheckOnceFreshStreamsDoNothing(t *testing.T) {
	clock := staleClock(t, time.Second, time.Second, time.Second)
	resubscribed := false
	m := NewHealthMonitor(clock, time.Second, 120*time.Second, 0,
		func(ctx context.Context) error { resubscribed = true; return nil }, nil)

	if m.CheckOnce(context.Background()) {
		t.Fatal("fresh streams should not trigger recovery")
	}
	if resubscribed {
		t.Fatal("resubscribe called for fresh streams")
	}
}

func TestCheckOnceStaleLocationResubscribesWholeGroup(t *testing.T) {
	clock := staleClock(t, 130*time.Second, time.Second, time.Second)
	var statuses []string
	resubscribes := 0
	m := NewHealthMonitor(clock, time.Second, 120*time.Second, 0,
		func(ctx context.Context) error { resubscribes++; return nil },
		func(s string) { statuses = append(statuses, s) })

	if !m.CheckOnce(context.Background()) {
		t.Fatal("stale location stream should trigger recovery")
	}
	if resubscribes != 1 {
		t.Fatalf("resubscribes = %d, want 1", resubscribes)
	}
	if len(statuses) != 2 || statuses[0] != "reconnecting" || statuses[1] != "connected" {
		t.Fatalf("statuses = %v, want [reconnecting connected]", statuses)
	}

	// Success resets the baseline so the next check is quiet.
	if m.CheckOnce(context.Background()) {
		t.Fatal("check right after successful recovery should be quiet")
	}
}

func TestCheckOnceStaleVehicleAlsoTriggers(t *testing.T) {
	clock := staleClock(t, time.Second, 130*time.Second, time.Second)
	resubscribes := 0
	m := NewHealthMonitor(clock, time.Second, 120*time.Second, 0,
		func(ctx context.Context) error { resubscribes++; return nil }, nil)

	if !m.CheckOnce(context.Background()) || resubscribes != 1 {
		t.Fatalf("stale vehicle stream should trigger recovery (resubscribes=%d)", resubscribes)
	}
}

func TestCheckOnceIgnoresPickupStreamAge(t *testing.T) {
	// Pickup-point changes are legitimately rare; only the location and
	// vehicle streams define liveness.
	clock := staleClock(t, time.Second, time.Second, time.Hour)
	m := NewHealthMonitor(clock, time.Second, 120*time.Second, 0,
		func(ctx context.Context) error { t.Fatal("unexpected resubscribe"); return nil }, nil)

	if m.CheckOnce(context.Background()) {
		t.Fatal("pickup stream age alone should not trigger recovery")
	}
}

func TestCheckOnceFailedResubscribeRetriesNextCheck(t *testing.T) {
	clock := staleClock(t, 130*time.Second, time.Second, time.Second)
	resubscribes := 0
	m := NewHealthMonitor(clock, time.Second, 120*time.Second, 0,
		func(ctx context.Context) error { resubscribes++; return errors.New("dial failed") }, nil)

	if !m.CheckOnce(context.Background()) {
		t.Fatal("expected a recovery attempt")
	}
	// Clock untouched on failure: the next check attempts again.
	if !m.CheckOnce(context.Background()) {
		t.Fatal("expected a retry on the next check")
	}
	if resubscribes != 2 {
		t.Fatalf("resubscribes = %d, want 2", resubscribes)
	}
}
