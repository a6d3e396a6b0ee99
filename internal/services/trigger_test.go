package services

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitForCount(t *testing.T, counter *int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt64(counter) < want && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if got := atomic.LoadInt64(counter); got != want {
		t.Fatalf("fire count = %d, want %d", got, want)
	}
}

func TestTriggerCoalescesBursts(t *testing.T) {
	var fires int64
	tr := NewDebouncedTrigger(10*time.Millisecond, func() {
		atomic.AddInt64(&fires, 1)
	})

	for i := 0; i < 10; i++ {
		tr.Trigger()
	}
	if atomic.LoadInt64(&fires) != 0 {
		t.Fatal("fired before the quiet delay elapsed")
	}

	waitForCount(t, &fires, 1)

	// No trailing extra fire.
	time.Sleep(30 * time.Millisecond)
	if got := atomic.LoadInt64(&fires); got != 1 {
		t.Fatalf("fire count = %d, want 1", got)
	}
}

func TestTriggerNowBypassesDelayAndCancelsPending(t *testing.T) {
	var fires int64
	tr := NewDebouncedTrigger(50*time.Millisecond, func() {
		atomic.AddInt64(&fires, 1)
	})

	tr.Trigger()
	tr.TriggerNow()
	if got := atomic.LoadInt64(&fires); got != 1 {
		t.Fatalf("fire count = %d immediately after TriggerNow, want 1", got)
	}

	// The pending debounced fire was absorbed.
	time.Sleep(80 * time.Millisecond)
	if got := atomic.LoadInt64(&fires); got != 1 {
		t.Fatalf("fire count = %d, want 1", got)
	}
}

func TestTriggerDuringFireSchedulesNewCycle(t *testing.T) {
	var fires int64
	var tr *DebouncedTrigger
	tr = NewDebouncedTrigger(5*time.Millisecond, func() {
		if atomic.AddInt64(&fires, 1) == 1 {
			// A change arriving mid-fire must not be lost.
			tr.Trigger()
		}
	})

	tr.Trigger()
	waitForCount(t, &fires, 2)
}

func TestStopCancelsPendingFire(t *testing.T) {
	var fires int64
	tr := NewDebouncedTrigger(10*time.Millisecond, func() {
		atomic.AddInt64(&fires, 1)
	})

	tr.Trigger()
	tr.Stop()

	time.Sleep(40 * time.Millisecond)
	if got := atomic.LoadInt64(&fires); got != 0 {
		t.Fatalf("fire count = %d after Stop, want 0", got)
	}

	// The trigger stays usable after Stop.
	tr.Trigger()
	waitForCount(t, &fires, 1)
}
