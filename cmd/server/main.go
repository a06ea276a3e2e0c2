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
	"github.com/robfig/cron/v3"

	"evrental/internal/app"
	"evrental/internal/config"
	"evrental/internal/handler"
	internalRedis "evrental/internal/redis"
	"evrental/internal/repository/postgres"
	"evrental/internal/service"
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
	server, reservationService := wireServer(db, redisClient, nrApp, cfg)

	// Hold-expiry sweep: cancels unpaid reservations whose hold lapsed.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Booking.SweepSchedule, func() {
		sweepCtx, sweepCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer sweepCancel()

		expired, err := reservationService.ExpireHolds(sweepCtx)
		if err != nil {
			log.Printf("hold-expiry sweep failed: %v", err)
			return
		}
		if expired > 0 {
			log.Printf("hold-expiry sweep cancelled %d lapsed reservations", expired)
		}
	}); err != nil {
		log.Fatalf("failed to schedule hold-expiry sweep: %v", err)
	}
	sweeper.Start()

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

	// Stop the sweep first; a sweep mid-flight finishes before Stop returns.
	<-sweeper.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server along
// with the reservation service used by the hold-expiry sweep.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.ReservationService) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	numberStore := internalRedis.NewNumberStore(redisClient)

	// Initialize repositories.
	bookingRepo := postgres.NewBookingRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	stationRepo := postgres.NewStationRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	receiptService := service.NewReceiptService(notificationService)
	pricingService := service.NewPricingService(vehicleRepo, cacheStore)
	gatewayService := service.NewGatewayService(service.GatewayConfig{
		MerchantCode: cfg.Gateway.MerchantCode,
		HashSecret:   cfg.Gateway.HashSecret,
		PayURL:       cfg.Gateway.PayURL,
		ReturnURL:    cfg.Gateway.ReturnURL,
	})
	reservationService := service.NewReservationService(
		bookingRepo, vehicleRepo, stationRepo,
		lockStore, numberStore,
		pricingService, notificationService,
		cfg.Booking.HoldTTL, cfg.Booking.LeadTime,
	)
	bookingService := service.NewBookingService(
		bookingRepo, vehicleRepo,
		lockStore, cacheStore,
		gatewayService, notificationService, receiptService,
	)

	// Initialize handlers.
	bookingHandler := handler.NewBookingHandler(reservationService, bookingService)
	pricingHandler := handler.NewPricingHandler(pricingService)
	paymentHandler := handler.NewPaymentHandler(bookingService)
	vehicleHandler := handler.NewVehicleHandler(vehicleRepo)
	stationHandler := handler.NewStationHandler(stationRepo)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		BookingHandler: bookingHandler,
		PricingHandler: pricingHandler,
		PaymentHandler: paymentHandler,
		VehicleHandler: vehicleHandler,
		StationHandler: stationHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, reservationService
}
