package ports

import (
	"context"
	"encoding/json"
)

type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// One change delivered by the realtime backend for a subscribed collection.
type ChangeEvent struct {
	Kind     EventKind
	Document json.RawMessage
}

type ChangeHandler func(ChangeEvent)

// Handle for an established subscription. Closing it stops delivery.
type Subscription interface {
	Close() error
}

// Port: a boundary for the external realtime backend. Given a collection
// and an equality filter, deliver change events until the subscription is
// closed. Subscriptions can silently die upstream; staleness detection and
// resubscription belong to the caller.
type RealtimeFeed interface {
	Subscribe(ctx context.Context, collection string, filter map[string]string, onChange ChangeHandler) (Subscription, error)
}
