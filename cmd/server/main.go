package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/app"
	"carpool/internal/config"
	"carpool/internal/domain"
	"carpool/internal/handler"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository/postgres"
	"carpool/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, dispatcher := wireServer(db, redisClient, nrApp, cfg)
	defer dispatcher.Close()

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server along
// with the notification dispatcher so the caller can drain it on exit.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.Dispatcher) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	rideRepo := postgres.NewRideRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	profileRepo := postgres.NewProfileRepository(db)

	// Initialize the routing collaborator when configured.
	var routes service.RouteClient
	if cfg.Routing.Enabled {
		routes = service.NewOSRMClient(cfg.Routing.Endpoint, cfg.Routing.Timeout)
	}

	// Initialize services.
	dispatcher := service.NewDispatcher(service.LogSender{}, 256)
	ledger := service.NewSeatLedger(rideRepo, cacheStore)
	uow := postgres.NewUnitOfWork(db)
	catalog := service.NewCatalogService(rideRepo, bookingRepo, routes, lockStore, cacheStore, dispatcher,
		domain.DateMatchMode(cfg.Search.DateMatch))
	bookings := service.NewBookingService(bookingRepo, rideRepo, uow, ledger, dispatcher, cacheStore)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(catalog)
	bookingHandler := handler.NewBookingHandler(bookings)
	profileHandler := handler.NewProfileHandler(profileRepo, cacheStore)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:    rideHandler,
		BookingHandler: bookingHandler,
		ProfileHandler: profileHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, dispatcher
}
