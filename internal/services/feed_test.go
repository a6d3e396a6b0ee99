package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/ports"
)

type fakeFeed struct {
	mu       sync.Mutex
	handlers map[string]ports.ChangeHandler
	filters  map[string]map[string]string
	failOn   map[string]bool
	closed   int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		handlers: make(map[string]ports.ChangeHandler),
		filters:  make(map[string]map[string]string),
		failOn:   make(map[string]bool),
	}
}

func (f *fakeFeed) Subscribe(ctx context.Context, collection string, filter map[string]string, onChange ports.ChangeHandler) (ports.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[collection] {
		return nil, fmt.Errorf("subscribe %s refused", collection)
	}
	f.handlers[collection] = onChange
	f.filters[collection] = filter
	return &fakeFeedSub{feed: f, collection: collection}, nil
}

func (f *fakeFeed) emit(t *testing.T, collection string, kind ports.EventKind, doc string) {
	t.Helper()
	f.mu.Lock()
	h := f.handlers[collection]
	f.mu.Unlock()
	if h == nil {
		t.Fatalf("no handler for %s", collection)
	}
	h(ports.ChangeEvent{Kind: kind, Document: json.RawMessage(doc)})
}

func (f *fakeFeed) subscribedCollections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type fakeFeedSub struct {
	feed       *fakeFeed
	collection string
	once       sync.Once
	closeErr   error
}

func (s *fakeFeedSub) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.handlers, s.collection)
		delete(s.feed.filters, s.collection)
		s.feed.closed++
		s.feed.mu.Unlock()
	})
	return s.closeErr
}

func newTestBinder(feed *fakeFeed) (*FeedBinder, *Reconciler, *fakeProvider) {
	provider := newFakeProvider()
	rec := newTestReconciler(provider, newFakeView())
	clock := NewStreamClock()
	return NewFeedBinder(feed, rec, clock, "dev-1", "org-1"), rec, provider
}

func TestBinderStartSubscribesAllThree(t *testing.T) {
	feed := newFakeFeed()
	binder, _, _ := newTestBinder(feed)

	if err := binder.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer binder.Close()

	if feed.subscribedCollections() != 3 {
		t.Fatalf("subscriptions = %d, want 3", feed.subscribedCollections())
	}
	if got := feed.filters[CollectionLocations]["device_id"]; got != "dev-1" {
		t.Fatalf("location filter device_id = %q, want dev-1", got)
	}
	if got := feed.filters[CollectionPickupPoints]["organization_id"]; got != "org-1" {
		t.Fatalf("pickup filter organization_id = %q, want org-1", got)
	}
	if binder.Status() != "connected" {
		t.Fatalf("status = %q, want connected", binder.Status())
	}
}

func TestBinderPartialFailureClosesOpened(t *testing.T) {
	feed := newFakeFeed()
	feed.failOn[CollectionPickupPoints] = true
	binder, _, _ := newTestBinder(feed)

	if err := binder.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail")
	}
	if feed.subscribedCollections() != 0 {
		t.Fatalf("leaked subscriptions = %d, want 0", feed.subscribedCollections())
	}
	if binder.Status() != "disconnected" {
		t.Fatalf("status = %q, want disconnected", binder.Status())
	}
}

func TestBinderForwardsPickupEvents(t *testing.T) {
	feed := newFakeFeed()
	binder, rec, _ := newTestBinder(feed)

	if err := binder.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer binder.Close()

	feed.emit(t, CollectionPickupPoints, ports.EventInsert,
		`{"id":"p1","name":"Point p1","latitude":33.7,"longitude":73.0,"is_active":true}`)

	_, total := rec.Counts()
	if total != 1 {
		t.Fatalf("mirrored points = %d, want 1", total)
	}

	feed.emit(t, CollectionPickupPoints, ports.EventDelete, `{"id":"p1"}`)
	_, total = rec.Counts()
	if total != 0 {
		t.Fatalf("mirrored points = %d after delete, want 0", total)
	}
}

func TestBinderForwardsLocationEvents(t *testing.T) {
	feed := newFakeFeed()
	binder, rec, provider := newTestBinder(feed)

	if err := binder.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer binder.Close()

	p := pointAt("a", vehicleStart, 2, true)
	provider.addRoute(p.Coordinates(), 2000, 300)
	rec.ReplaceAllPoints([]*domain.PickupPoint{p})

	feed.emit(t, CollectionLocations, ports.EventInsert,
		fmt.Sprintf(`{"device_id":"dev-1","longitude":%f,"latitude":%f}`, vehicleStart.Lon, vehicleStart.Lat))

	set := rec.RankedRoutes()
	if set.Closest == nil || set.Closest.Point.ID != "a" {
		t.Fatalf("closest = %+v, want a", set.Closest)
	}
}

func TestBinderDropsMalformedDocuments(t *testing.T) {
	feed := newFakeFeed()
	binder, rec, _ := newTestBinder(feed)

	if err := binder.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer binder.Close()

	feed.emit(t, CollectionPickupPoints, ports.EventInsert, `{not json`)

	_, total := rec.Counts()
	if total != 0 {
		t.Fatalf("mirrored points = %d after bad document, want 0", total)
	}
}

func TestBinderResubscribeReplacesSubscriptions(t *testing.T) {
	feed := newFakeFeed()
	binder, _, _ := newTestBinder(feed)

	if err := binder.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := binder.Resubscribe(context.Background()); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	defer binder.Close()

	if feed.closed != 3 {
		t.Fatalf("closed subscriptions = %d, want 3", feed.closed)
	}
	if feed.subscribedCollections() != 3 {
		t.Fatalf("active subscriptions = %d, want 3", feed.subscribedCollections())
	}
	if binder.Status() != "connected" {
		t.Fatalf("status = %q, want connected", binder.Status())
	}
}
