package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"fleet-dashboard-service/internal/adapters/cache"
	"fleet-dashboard-service/internal/adapters/notify"
	"fleet-dashboard-service/internal/adapters/realtime"
	"fleet-dashboard-service/internal/adapters/repositories"
	"fleet-dashboard-service/internal/adapters/routing"
	"fleet-dashboard-service/internal/adapters/view"
	"fleet-dashboard-service/internal/api"
	"fleet-dashboard-service/internal/config"
	"fleet-dashboard-service/internal/platform/db"
	"fleet-dashboard-service/internal/ports"
	"fleet-dashboard-service/internal/services"
)

// logDispatcher stands in when no notification endpoint is configured.
type logDispatcher struct{}

func (logDispatcher) Dispatch(_ context.Context, n ports.Notification) error {
	log.Printf("notification (no endpoint configured): user_id=%s point_id=%s distance_km=%.2f",
		n.UserID, n.PickupPointID, n.DistanceKm)
	return nil
}

// Avoid wrapping a nil concrete pointer in a non-nil interface.
func dispatcherOrNoop(d *notify.HTTPDispatcher) ports.NotificationDispatcher {
	if d == nil {
		return logDispatcher{}
	}
	return d
}

func cacheOrNil(c *cache.RedisRouteCache) ports.RouteCache {
	if c == nil {
		return nil
	}
	return c
}

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, directions API, realtime
// feed) behind ports and starts the reconciliation loop plus the HTTP
// view-projection server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	configPath := getEnv("CONFIG_PATH", "config.yml")
	deviceID := os.Getenv("DEVICE_ID")
	if strings.TrimSpace(deviceID) == "" {
		log.Fatal("DEVICE_ID is required")
	}

	routingKey := os.Getenv("ROUTING_API_KEY")
	if strings.TrimSpace(routingKey) == "" {
		log.Fatal("ROUTING_API_KEY is required")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The owning vehicle record pins down the organization whose pickup
	// points this dashboard follows.
	bootRepo := repositories.NewPgPickupRepository(sqlDB, "")
	vehicle, err := bootRepo.GetVehicle(ctx, deviceID)
	if err != nil {
		log.Fatal(err)
	}
	repo := repositories.NewPgPickupRepository(sqlDB, vehicle.OrganizationID)

	provider, err := routing.NewDirectionsProvider(routingKey, cfg.Routing.BaseURL)
	if err != nil {
		log.Fatal(err)
	}

	var routeCache *cache.RedisRouteCache
	if addr := os.Getenv("REDIS_ADDR"); strings.TrimSpace(addr) != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		routeCache, err = cache.NewRedisRouteCache(rdb, deviceID, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		log.Println("REDIS_ADDR not set; route snapshots will not survive restarts")
	}

	var dispatcher *notify.HTTPDispatcher
	if cfg.Notify.Endpoint != "" {
		dispatcher, err = notify.NewHTTPDispatcher(cfg.Notify.Endpoint, os.Getenv("NOTIFY_API_KEY"))
		if err != nil {
			log.Fatal(err)
		}
	}

	notifier := services.NewProximityNotifier(
		dispatcherOrNoop(dispatcher), deviceID, vehicle.OrganizationID,
		cfg.Notify.MinKm, cfg.Notify.MaxKm,
	)

	board := view.NewSlotBoard()

	rec := services.NewReconciler(
		services.ReconcilerConfig{
			ReconcileInterval:  time.Duration(cfg.Reconciler.ReconcileIntervalMS) * time.Millisecond,
			DebounceDelay:      time.Duration(cfg.Reconciler.DebounceDelayMS) * time.Millisecond,
			MovementGateMeters: cfg.Reconciler.MovementGateMeters,
			BatchSize:          cfg.Reconciler.BatchSize,
			InterBatchDelay:    time.Duration(cfg.Reconciler.InterBatchDelayMS) * time.Millisecond,
		},
		provider, board, notifier, cacheOrNil(routeCache),
	)

	if err := rec.WarmFromCache(ctx); err != nil {
		log.Printf("route cache warm failed: %v", err)
	}

	// Initial snapshot: the feed only delivers deltas.
	points, err := repo.ListPickupPoints(ctx)
	if err != nil {
		log.Fatal(err)
	}
	rec.ReplaceAllPoints(points)
	log.Printf("initial snapshot loaded: pickup_points=%d", len(points))

	feedClient := realtime.NewClient(cfg.Realtime.URL)
	clock := services.NewStreamClock()
	binder := services.NewFeedBinder(feedClient, rec, clock, deviceID, vehicle.OrganizationID)
	if err := binder.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer binder.Close()

	monitor := services.NewHealthMonitor(
		clock,
		time.Duration(cfg.Health.CheckIntervalMS)*time.Millisecond,
		time.Duration(cfg.Health.MaxStreamAgeMS)*time.Millisecond,
		time.Duration(cfg.Health.ResubscribeDelayMS)*time.Millisecond,
		binder.Resubscribe,
		binder.SetStatus,
	)

	go rec.Run(ctx)
	go monitor.Run(ctx)

	router := api.NewRouter(rec, notifier, binder.Status)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Server listening addr=:%d device_id=%s org_id=%s", cfg.Server.Port, deviceID, vehicle.OrganizationID)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
