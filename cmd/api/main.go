package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classlink/internal/account"
	"classlink/internal/attendance"
	"classlink/internal/audit"
	"classlink/internal/config"
	"classlink/internal/handler"
	"classlink/internal/httpmiddleware"
	"classlink/internal/queue"
	"classlink/internal/store"
	"classlink/internal/view"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	if cfg.JWTSigningKey == config.DevSigningKey {
		if cfg.Production() {
			return errors.New("JWT_SIGNING_KEY must be set in production")
		}
		log.Println("WARNING: JWT_SIGNING_KEY not set, using the development key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		SQLitePath:  cfg.SQLitePath,
		RedisAddr:   cfg.RedisAddr,
		RedisPrefix: cfg.RedisPrefix,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return err
	}
	defer backend.Close()
	log.Printf("store backend: %s", cfg.StoreBackend)

	q, closeQueue, err := newQueue(ctx, cfg, backend)
	if err != nil {
		return err
	}
	defer closeQueue()
	// a memory queue has no other reader
	if cfg.AuditInProcess || cfg.QueueBackend == "memory" {
		go func() {
			if err := audit.NewRecorder(backend).Run(ctx, q); err != nil {
				log.Printf("audit recorder stopped: %v", err)
			}
		}()
	}

	accounts := account.NewManager(ctx, backend)
	ledger := attendance.NewLedger(attendance.NewRepository(ctx, backend), accounts)
	views := view.NewController(accounts, ledger)
	if sess, ok := accounts.Current(); ok {
		log.Printf("restored %s session for %s", sess.Role, sess.Username)
	}

	h := handler.New(accounts, ledger, views, backend, audit.NewPublisher(q), handler.TokenConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		TTL:        cfg.AccessTTL,
	})

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS for browser clients
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          24 * time.Hour,
	}))

	// Security headers
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware()
	h.Routes(r, limit)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// newQueue builds the audit queue. The returned func releases any connection
// opened for it.
func newQueue(ctx context.Context, cfg config.App, backend store.Backend) (queue.Queue, func(), error) {
	noop := func() {}
	if cfg.QueueBackend != "redis" {
		q, err := queue.New(cfg.QueueBackend, nil, cfg.QueueKey)
		return q, noop, err
	}
	// share the store's connection when it already is redis
	if r, ok := backend.(*store.Redis); ok {
		q, err := queue.New("redis", r.Client, cfg.QueueKey)
		return q, noop, err
	}

	redisClient := store.NewRedis(cfg.RedisAddr, "")
	closeClient := func() { _ = redisClient.Close() }
	if !redisClient.Healthy(ctx) {
		closeClient()
		return nil, noop, fmt.Errorf("redis %s not reachable", cfg.RedisAddr)
	}
	q, err := queue.New("redis", redisClient.Client, cfg.QueueKey)
	if err != nil {
		closeClient()
		return nil, noop, err
	}
	return q, closeClient, nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
