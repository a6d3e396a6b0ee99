package services

import (
	"context"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/ports"
)

// Tunables for the reconciliation loop. Zero values fall back to the
// defaults set by Normalize.
type ReconcilerConfig struct {
	// Period of the timer-driven reconciliation pass.
	ReconcileInterval time.Duration
	// Quiet delay applied to pickup-set change triggers.
	DebounceDelay time.Duration
	// Displacement below which timer/position triggers skip recomputation.
	MovementGateMeters float64
	// Maximum number of concurrently in-flight route fetches.
	BatchSize int
	// Pause between consecutive fetch batches.
	InterBatchDelay time.Duration
}

func (c ReconcilerConfig) Normalize() ReconcilerConfig {
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = 15 * time.Second
	}
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = time.Second
	}
	if c.MovementGateMeters <= 0 {
		c.MovementGateMeters = 5
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 3
	}
	if c.InterBatchDelay < 0 {
		c.InterBatchDelay = 0
	} else if c.InterBatchDelay == 0 {
		c.InterBatchDelay = 100 * time.Millisecond
	}
	return c
}

type storedRoute struct {
	snap domain.RouteSnapshot
}

// Reconciler continuously recomputes driving routes from the moving
// vehicle to the active pickup points and publishes the ranked result to
// the map view, one idempotent slot write at a time.
//
// Exactly one pass runs at a time; a pass that starts while another is
// active exits immediately instead of queuing. Failed fetches keep the
// previous snapshot for their point, so a flaky provider degrades to
// stale-but-present routes rather than disappearing ones.
type Reconciler struct {
	cfg      ReconcilerConfig
	provider ports.RouteProvider
	view     ports.MapView
	notifier *ProximityNotifier
	cache    ports.RouteCache

	calculating atomic.Bool
	trigger     *DebouncedTrigger

	mu                sync.Mutex
	points            map[string]*domain.PickupPoint
	vehiclePos        *domain.Coordinates
	lastReconciledPos *domain.Coordinates
	routeStore        map[string]storedRoute
	ranked            domain.RankedRouteSet
	runCtx            context.Context

	now func() time.Time
}

// The cache may be nil; everything else is required.
func NewReconciler(cfg ReconcilerConfig, provider ports.RouteProvider, view ports.MapView, notifier *ProximityNotifier, cache ports.RouteCache) *Reconciler {
	r := &Reconciler{
		cfg:        cfg.Normalize(),
		provider:   provider,
		view:       view,
		notifier:   notifier,
		cache:      cache,
		points:     make(map[string]*domain.PickupPoint),
		routeStore: make(map[string]storedRoute),
		now:        time.Now,
	}
	r.trigger = NewDebouncedTrigger(r.cfg.DebounceDelay, func() {
		r.pass(r.passCtx(), true)
	})
	return r
}

// Run drives the periodic reconciliation pass until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.mu.Lock()
	r.runCtx = ctx
	r.mu.Unlock()

	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()
	defer r.trigger.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx, false)
		}
	}
}

func (r *Reconciler) passCtx() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runCtx != nil {
		return r.runCtx
	}
	return context.Background()
}

// WarmFromCache preloads last-known-good snapshots so the first pass after
// a restart starts from stale-but-present routes.
func (r *Reconciler) WarmFromCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	snaps, err := r.cache.GetAll(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	for id, snap := range snaps {
		r.routeStore[id] = storedRoute{snap: snap}
	}
	r.mu.Unlock()
	return nil
}

// HandleVehiclePosition processes one location event: the marker always
// moves, route recomputation stays behind the movement gate.
func (r *Reconciler) HandleVehiclePosition(ctx context.Context, pos domain.Coordinates) {
	r.mu.Lock()
	p := pos
	r.vehiclePos = &p
	r.mu.Unlock()

	r.view.SetMarkerPosition(pos)
	r.pass(ctx, false)
}

// HandlePickupEvent mirrors one pickup-point change event. Deactivations,
// deletions and an emptied active set reconcile immediately (removing a
// route must be instantaneous); everything else is debounced.
func (r *Reconciler) HandlePickupEvent(point *domain.PickupPoint, kind ports.EventKind) {
	immediate := false

	r.mu.Lock()
	switch kind {
	case ports.EventDelete:
		delete(r.points, point.ID)
		immediate = true
	default:
		cp := *point
		r.points[point.ID] = &cp
		if !cp.IsActive {
			immediate = true
		}
	}
	if r.activeCountLocked() == 0 {
		immediate = true
	}
	r.mu.Unlock()

	if immediate {
		r.trigger.TriggerNow()
		return
	}
	r.trigger.Trigger()
}

// ReplaceAllPoints swaps the whole mirrored set, as happens on the initial
// snapshot load or a dataset reload. Notification state resets so a
// refresh cannot suppress legitimate notifications, then a pass runs
// immediately.
func (r *Reconciler) ReplaceAllPoints(points []*domain.PickupPoint) {
	r.mu.Lock()
	r.points = make(map[string]*domain.PickupPoint, len(points))
	for _, p := range points {
		cp := *p
		r.points[cp.ID] = &cp
	}
	r.mu.Unlock()

	r.notifier.Reset()
	r.trigger.TriggerNow()
}

// Reconcile requests a movement-gated pass, as the periodic timer does.
func (r *Reconciler) Reconcile(ctx context.Context) {
	r.pass(ctx, false)
}

func (r *Reconciler) activeCountLocked() int {
	n := 0
	for _, p := range r.points {
		if p.IsActive {
			n++
		}
	}
	return n
}

// pass executes one reconciliation. force bypasses the movement gate and
// is used for pickup-set changes, where routes must change even when the
// vehicle has not moved.
func (r *Reconciler) pass(ctx context.Context, force bool) {
	if !r.calculating.CompareAndSwap(false, true) {
		// Another pass is running; drop rather than queue. The next
		// trigger or tick will pick the change up.
		return
	}
	defer r.calculating.Store(false)

	// Snapshot inputs so handler interleaving cannot shift them mid-pass.
	r.mu.Lock()
	var vehicle *domain.Coordinates
	if r.vehiclePos != nil {
		v := *r.vehiclePos
		vehicle = &v
	}
	var gatePos *domain.Coordinates
	if r.lastReconciledPos != nil {
		g := *r.lastReconciledPos
		gatePos = &g
	}
	active := make([]*domain.PickupPoint, 0, len(r.points))
	for _, p := range r.points {
		if p.IsActive {
			active = append(active, p)
		}
	}
	r.mu.Unlock()

	if len(active) == 0 {
		r.clearAll(ctx)
		return
	}

	// No vehicle marker yet: nothing to rank against, not an error.
	if vehicle == nil {
		return
	}

	if !force && gatePos != nil && domain.HaversineMeters(*gatePos, *vehicle) < r.cfg.MovementGateMeters {
		return
	}

	ranked := RankByStraightLine(*vehicle, active)

	r.fetchInBatches(ctx, *vehicle, ranked)

	set, merged := r.mergeAndRank(ctx, *vehicle, ranked)
	r.publish(set)

	// Notifier sees every active point with a known distance, drawn or not.
	for _, entry := range merged {
		if entry.Route == nil {
			continue
		}
		r.notifier.Observe(ctx, entry.Point, entry.Route.DistanceKm(), entry.Route.DurationSeconds)
	}
}

type fetchResult struct {
	pointID string
	snap    domain.RouteSnapshot
	err     error
}

// fetchInBatches issues route fetches in provisional rank order, at most
// BatchSize concurrently, awaiting each batch before starting the next.
// Successes merge into the route store as they land; failures leave the
// previous entry untouched.
func (r *Reconciler) fetchInBatches(ctx context.Context, vehicle domain.Coordinates, ranked []domain.RankedPickup) {
	for start := 0; start < len(ranked); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(ranked))
		batch := ranked[start:end]

		results := make([]fetchResult, len(batch))
		var wg sync.WaitGroup
		for i, entry := range batch {
			wg.Add(1)
			go func(i int, p *domain.PickupPoint) {
				defer wg.Done()
				snap, err := r.provider.FetchRoute(ctx, vehicle, p.Coordinates())
				results[i] = fetchResult{pointID: p.ID, snap: snap, err: err}
			}(i, entry.Point)
		}
		wg.Wait()

		r.mu.Lock()
		for _, res := range results {
			if res.err != nil {
				log.Printf("route fetch failed: point_id=%s err=%v", res.pointID, res.err)
				continue
			}
			snap := res.snap
			snap.UpdatedAt = r.now()
			r.routeStore[res.pointID] = storedRoute{snap: snap}
		}
		r.mu.Unlock()

		if r.cache != nil {
			for _, res := range results {
				if res.err != nil {
					continue
				}
				if err := r.cache.Put(ctx, res.pointID, res.snap); err != nil {
					log.Printf("route cache write failed: point_id=%s err=%v", res.pointID, err)
				}
			}
		}

		if end < len(ranked) && r.cfg.InterBatchDelay > 0 {
			timer := time.NewTimer(r.cfg.InterBatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}

// mergeAndRank prunes stale store entries, attaches snapshots to the
// provisional ranking, re-sorts by best available distance and records the
// published set. Returns the set plus the full merged ranking.
func (r *Reconciler) mergeAndRank(ctx context.Context, vehicle domain.Coordinates, ranked []domain.RankedPickup) (domain.RankedRouteSet, []domain.RankedPickup) {
	activeIDs := make(map[string]struct{}, len(ranked))
	for _, entry := range ranked {
		activeIDs[entry.Point.ID] = struct{}{}
	}

	r.mu.Lock()
	var pruned []string
	for id := range r.routeStore {
		if _, ok := activeIDs[id]; !ok {
			delete(r.routeStore, id)
			pruned = append(pruned, id)
		}
	}

	withRoutes := make([]domain.RankedPickup, len(ranked))
	copy(withRoutes, ranked)
	for i := range withRoutes {
		if stored, ok := r.routeStore[withRoutes[i].Point.ID]; ok {
			snap := stored.snap
			withRoutes[i].Route = &snap
		}
	}
	r.mu.Unlock()

	sortByEffectiveKm(withRoutes)

	set := buildRankedSet(withRoutes, len(ranked))

	r.mu.Lock()
	r.lastReconciledPos = &vehicle
	r.ranked = set
	r.mu.Unlock()

	for _, id := range pruned {
		r.dropCached(ctx, id)
	}

	return set, withRoutes
}

func sortByEffectiveKm(entries []domain.RankedPickup) {
	// Stable: equal distances keep their provisional order.
	slices.SortStableFunc(entries, func(a, b domain.RankedPickup) int {
		if a.EffectiveKm() < b.EffectiveKm() {
			return -1
		}
		if a.EffectiveKm() > b.EffectiveKm() {
			return 1
		}
		return 0
	})
}

func buildRankedSet(entries []domain.RankedPickup, activeCount int) domain.RankedRouteSet {
	set := domain.RankedRouteSet{TotalActiveCount: activeCount}
	if len(entries) > 0 {
		e := entries[0]
		set.Closest = &e
	}
	if len(entries) > 1 {
		e := entries[1]
		set.SecondClosest = &e
	}
	if len(entries) > 2 {
		limit := min(len(entries), 2+ports.OtherSlotCount)
		set.Others = append(set.Others, entries[2:limit]...)
	}
	return set
}

// publish writes every slot independently. A slot with no ranked entry is
// explicitly cleared; a slot whose entry has no geometry yet gets an empty
// write, never a transient clear of a still-valid neighbor.
func (r *Reconciler) publish(set domain.RankedRouteSet) {
	r.view.SetRouteGeometry(ports.SlotClosest, geometryOf(set.Closest))
	r.view.SetRouteGeometry(ports.SlotSecondClosest, geometryOf(set.SecondClosest))
	for i := 0; i < ports.OtherSlotCount; i++ {
		var entry *domain.RankedPickup
		if i < len(set.Others) {
			entry = &set.Others[i]
		}
		r.view.SetRouteGeometry(ports.OtherSlot(i), geometryOf(entry))
	}
}

func geometryOf(entry *domain.RankedPickup) []domain.Coordinates {
	if entry == nil || entry.Route == nil {
		return nil
	}
	return entry.Route.Geometry
}

// clearAll discards all derived state. Derived state is rebuildable by
// construction, so clearing is always safe.
func (r *Reconciler) clearAll(ctx context.Context) {
	r.mu.Lock()
	cleared := make([]string, 0, len(r.routeStore))
	for id := range r.routeStore {
		cleared = append(cleared, id)
	}
	r.routeStore = make(map[string]storedRoute)
	r.ranked = domain.RankedRouteSet{}
	r.lastReconciledPos = nil
	r.mu.Unlock()

	for _, slot := range ports.AllRouteSlots() {
		r.view.SetRouteGeometry(slot, nil)
	}
	for _, id := range cleared {
		r.dropCached(ctx, id)
	}
}

func (r *Reconciler) dropCached(ctx context.Context, pointID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, pointID); err != nil {
		log.Printf("route cache delete failed: point_id=%s err=%v", pointID, err)
	}
}

// RankedRoutes returns the currently published ranked set.
func (r *Reconciler) RankedRoutes() domain.RankedRouteSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ranked
}

// RouteDetail returns the latest snapshot for one pickup point.
func (r *Reconciler) RouteDetail(pointID string) (domain.RouteSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.routeStore[pointID]
	return stored.snap, ok
}

// Counts returns the active and total mirrored pickup-point counts.
func (r *Reconciler) Counts() (active, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCountLocked(), len(r.points)
}
