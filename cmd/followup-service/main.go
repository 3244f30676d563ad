package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cartfollow/followup-service-go/internal/cart"
	"github.com/cartfollow/followup-service-go/internal/config"
	"github.com/cartfollow/followup-service-go/internal/conversion"
	"github.com/cartfollow/followup-service-go/internal/db"
	"github.com/cartfollow/followup-service-go/internal/dedup"
	"github.com/cartfollow/followup-service-go/internal/events"
	"github.com/cartfollow/followup-service-go/internal/followup"
	httpserver "github.com/cartfollow/followup-service-go/internal/http"
	"github.com/cartfollow/followup-service-go/internal/order"
	"github.com/cartfollow/followup-service-go/internal/scheduler"
	"github.com/cartfollow/followup-service-go/internal/session"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[followup-service] ", log.LstdFlags|log.Lshortfile)

	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	database := db.MustOpen(cfg.DatabaseDSN)
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	snapshots := cart.NewRepository(database)
	orders := order.NewRepository(database)
	sessions := session.NewRepository(database)
	tracker := dedup.NewTracker(
		dedup.NewSQLStore(database),
		dedup.NewSessionStore(session.NewRedisKV(redisClient)),
	)

	schedClient, err := scheduler.NewClient(rabbitConn, database)
	if err != nil {
		logger.Fatalf("create scheduler client: %v", err)
	}

	sequenceRepo := events.NewSequenceRepository(database)
	publisher, err := events.NewPublisher(rabbitConn, sequenceRepo)
	if err != nil {
		logger.Fatalf("create events publisher: %v", err)
	}

	orchestrator := followup.NewOrchestrator(snapshots, tracker, schedClient, sessions, orders, publisher, logger)
	attributor := conversion.NewAttributor(schedClient, orders, publisher, cfg.ConversionDays, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := events.StartStorefrontConsumers(ctx, rabbitConn, orchestrator, attributor, logger); err != nil {
		logger.Fatalf("start storefront consumers: %v", err)
	}

	admin := httpserver.NewAdminHandler(orchestrator, cfg.AdminTokenSecret, cfg.ReportsURL)
	reports := httpserver.NewReportsHandler(snapshots, cart.Threshold{
		Value: cfg.AbandonedCartValue,
		Unit:  cfg.AbandonedCartUnit,
	})
	mux := httpserver.NewRouter(admin, reports)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("followup-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Printf("publisher close error: %v", err)
	}
	if err := schedClient.Close(); err != nil {
		logger.Printf("scheduler client close error: %v", err)
	}
}
