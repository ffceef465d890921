package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/prohmpiriya/session-ticketing/internal/worker"
	"github.com/prohmpiriya/session-ticketing/pkg/config"
	"github.com/prohmpiriya/session-ticketing/pkg/database"
	"github.com/prohmpiriya/session-ticketing/pkg/kafka"
	"github.com/prohmpiriya/session-ticketing/pkg/logger"
	pkgredis "github.com/prohmpiriya/session-ticketing/pkg/redis"
	"github.com/prohmpiriya/session-ticketing/pkg/retry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "availability-worker",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Availability Worker...")

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		appLog.Fatal("Availability worker requires STORAGE_DRIVER=postgres")
	}
	if !cfg.Kafka.Enabled() {
		appLog.Fatal("Availability worker requires KAFKA_BROKERS")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      int32(cfg.Database.MaxConns),
		MinConns:      int32(cfg.Database.MinConns),
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Initialize Redis connection
	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	}
	redisClient, err := pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Initialize Kafka consumer
	consumerCfg := &kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.ConsumerGroup,
		Topics:         []string{cfg.Kafka.RegistrationsTopic},
		ClientID:       "availability-worker",
		SessionTimeout: 30 * time.Second,
		MaxPollRecords: cfg.Worker.BatchSize,
	}
	consumer, err := kafka.NewConsumer(ctx, consumerCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to create Kafka consumer: %v", err))
	}
	defer consumer.Close()
	appLog.Info("Kafka consumer connected")

	eventRepo := repository.NewPostgresEventRepository(db.Pool())
	cache := repository.NewRedisAvailabilityCache(redisClient.Client(), cfg.Cache.AvailabilityTTL)
	availability := service.NewAvailabilityService(eventRepo, cache)

	workerCfg := &worker.AvailabilityWorkerConfig{
		FlushInterval:  cfg.Worker.FlushInterval,
		MaxBatchSize:   cfg.Worker.BatchSize,
		RebuildOnStart: cfg.Worker.RebuildOnStart,
		Retry:          retry.DefaultPolicy(),
	}
	availabilityWorker := worker.NewAvailabilityWorker(workerCfg, consumer, availability, eventRepo, appLog)

	// Warm the cache from the database on startup if enabled
	if workerCfg.RebuildOnStart {
		appLog.Info("Rebuilding availability cache from database...")
		if err := availabilityWorker.Rebuild(ctx); err != nil {
			appLog.Error(fmt.Sprintf("Failed to rebuild availability cache: %v", err))
			// Continue anyway, events will catch up
		}
	}

	done := make(chan struct{})
	go func() {
		availabilityWorker.Start(ctx)
		close(done)
	}()
	appLog.Info("Availability worker started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down availability worker...")
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		appLog.Warn("Availability worker did not stop in time")
	}
	appLog.Info("Availability worker stopped")
}
