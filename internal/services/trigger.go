package services

import (
	"sync"
	"time"
)

type triggerState int

const (
	triggerIdle triggerState = iota
	triggerPending
	triggerFiring
)

// DebouncedTrigger coalesces bursts of trigger events into a single
// invocation of fire after a quiet delay. TriggerNow bypasses the delay:
// any pending timer is cancelled and fire runs synchronously.
//
// The state machine is {idle, pending, firing}. A Trigger while pending
// restarts the delay; a Trigger while firing schedules a fresh pending
// cycle so a change that arrives mid-fire is not lost.
type DebouncedTrigger struct {
	mu    sync.Mutex
	state triggerState
	delay time.Duration
	timer *time.Timer
	fire  func()
}

func NewDebouncedTrigger(delay time.Duration, fire func()) *DebouncedTrigger {
	return &DebouncedTrigger{delay: delay, fire: fire}
}

// Trigger requests a debounced fire.
func (t *DebouncedTrigger) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case triggerPending:
		t.timer.Reset(t.delay)
	default:
		t.state = triggerPending
		t.timer = time.AfterFunc(t.delay, t.expire)
	}
}

// TriggerNow cancels any pending delay and fires synchronously.
func (t *DebouncedTrigger) TriggerNow() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.state = triggerFiring
	t.mu.Unlock()

	t.fire()

	t.mu.Lock()
	if t.state == triggerFiring {
		t.state = triggerIdle
	}
	t.mu.Unlock()
}

// Stop cancels any pending fire. The trigger remains usable.
func (t *DebouncedTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.state = triggerIdle
}

func (t *DebouncedTrigger) expire() {
	t.mu.Lock()
	if t.state != triggerPending {
		t.mu.Unlock()
		return
	}
	t.state = triggerFiring
	t.mu.Unlock()

	t.fire()

	t.mu.Lock()
	if t.state == triggerFiring {
		t.state = triggerIdle
	}
	t.mu.Unlock()
}
