package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"

	"hotel-ops-backend/config"
	"hotel-ops-backend/internal/access"
	"hotel-ops-backend/internal/api"
	"hotel-ops-backend/internal/availability"
	"hotel-ops-backend/internal/booking"
	"hotel-ops-backend/internal/condition"
	"hotel-ops-backend/internal/db"
	"hotel-ops-backend/internal/events"
	"hotel-ops-backend/internal/notification"
	"hotel-ops-backend/internal/scheduler"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/task"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "hotel-ops ", log.LstdFlags)

	// A .env file is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("ignoring .env: %v", err)
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	trigger, err := scheduler.ParseTrigger(cfg.Scheduler.RunAt, cfg.Scheduler.Timezone)
	if err != nil {
		logger.Fatalf("invalid scheduler configuration: %v", err)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.Events.NATSURL)
		if err != nil {
			logger.Fatalf("failed to connect to NATS at %s: %v", cfg.Events.NATSURL, err)
		}
		publisher = natsPublisher
		logger.Printf("publishing domain events to %s", cfg.Events.NATSURL)
	} else {
		logger.Println("events.nats_url is empty; domain events are dropped")
	}
	defer publisher.Close()

	var webpushOptions *webpush.Options
	var notifier task.Notifier
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
		pool.Start(ctx)
		notifier = pool
	} else {
		logger.Println("VAPID keys are not configured; staff push notifications are disabled")
	}

	rooms := condition.NewTracker(appStore)
	tasks := task.NewService(appStore, rooms, notifier, publisher)
	bookings := booking.NewService(appStore, tasks, publisher, booking.Config{
		ReferenceAttempts:      cfg.Booking.ReferenceAttempts,
		StrictPublicAssignment: cfg.Booking.StrictPublicAssignment,
	})

	if cfg.Scheduler.Enabled {
		daily := scheduler.New(appStore, tasks, trigger, cfg.Scheduler.RunTimeout)
		go daily.Run(ctx)
	}

	// Initialize router
	router := api.NewRouter(cfg.Server, api.Deps{
		Store:        appStore,
		Bookings:     bookings,
		Tasks:        tasks,
		Rooms:        rooms,
		Availability: availability.NewCalculator(appStore),
		Access:       access.NewGate(appStore),
		Webpush:      webpushOptions,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
