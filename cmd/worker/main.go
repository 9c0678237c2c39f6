package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"classlink/internal/audit"
	"classlink/internal/config"
	"classlink/internal/queue"
	"classlink/internal/store"
)

// Worker consumes audit events from the redis queue and appends them to the audit log.
// Run the API with AUDIT_IN_PROCESS=false when this worker is deployed.
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.QueueBackend != "redis" {
		log.Fatalf("worker needs QUEUE_BACKEND=redis, got %q", cfg.QueueBackend)
	}
	if cfg.StoreBackend == "memory" {
		log.Fatal("worker needs a shared STORE_BACKEND (sqlite, redis or postgres)")
	}

	backend, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		SQLitePath:  cfg.SQLitePath,
		RedisAddr:   cfg.RedisAddr,
		RedisPrefix: cfg.RedisPrefix,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer backend.Close()

	redisClient := store.NewRedis(cfg.RedisAddr, "")
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Fatalf("redis %s not reachable", cfg.RedisAddr)
	}

	q, err := queue.New("redis", redisClient.Client, cfg.QueueKey)
	if err != nil {
		log.Fatalf("queue init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	if err := audit.NewRecorder(backend).Run(ctx, q); err != nil {
		log.Fatalf("queue consume failed: %v", err)
	}
	log.Println("worker stopped")
}
