package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podcast-kb/internal/admission"
	"podcast-kb/internal/config"
	"podcast-kb/internal/database"
	"podcast-kb/internal/handlers"
	"podcast-kb/internal/middleware"
	"podcast-kb/internal/models"
	"podcast-kb/internal/repository"
	"podcast-kb/internal/router"
	"podcast-kb/internal/scheduler"
	"podcast-kb/internal/search"
	"podcast-kb/internal/services"
	"podcast-kb/internal/websocket"
	"podcast-kb/internal/worker"
)

const messagesPath = "/api/v1/messages"

func main() {
	log.Println("🚀 Starting Podcast Knowledge Base...")

	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Configuration invalid: %v", err)
	}
	log.Printf("✓ Configuration loaded (env: %s, source: %s)", cfg.Env, cfg.DataSource)

	// ──── Step 2: Load Corpus ────
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	corpus, err := loadCorpus(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("✗ Corpus load failed: %v", err)
	}
	if err := repository.Validate(corpus); err != nil {
		log.Fatalf("✗ Corpus invalid: %v", err)
	}
	log.Printf("✓ Corpus loaded: %d episodes, %d hosts, %d series, %d comments, %d transcripts",
		len(corpus.Episodes), len(corpus.Hosts), len(corpus.Series), len(corpus.Comments), len(corpus.Transcripts))

	// ──── Step 3: Build Search Engine ────
	engine := search.NewEngine(corpus,
		search.WithEpisodeFuzzyThreshold(cfg.EpisodeFuzzyThreshold),
		search.WithHostFuzzyThreshold(cfg.HostFuzzyThreshold),
	)
	ops := services.NewOperations(engine)
	log.Println("✓ Search engine ready")

	// ──── Step 4: Admission Controller ────
	controller := admission.NewController(admission.Config{
		MaxConcurrent:    cfg.MaxConcurrent,
		MemoryThreshold:  cfg.MemoryThresholdBytes(),
		Timeout:          cfg.RequestTimeout,
		FailureThreshold: cfg.CircuitFailureThreshold,
		Cooldown:         cfg.CircuitCooldown,
	})
	log.Printf("✓ Admission controller ready (max %d in flight, timeout %s)", cfg.MaxConcurrent, cfg.RequestTimeout)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(messagesPath, controller.Precheck)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start Worker Pool ────
	workerPool := worker.NewPool(ops, wsHub, cfg.WorkerCount, cfg.QueueSize)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Schedule Housekeeping ────
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	sched, err := scheduler.New(
		scheduler.Job{Name: "session heartbeat", Every: cfg.HeartbeatInterval, Run: wsHub.Heartbeat},
		scheduler.Job{Name: "rate limiter sweep", Every: cfg.RateLimitWindow, Run: limiter.Sweep},
	)
	if err != nil {
		log.Fatalf("✗ Scheduler setup failed: %v", err)
	}
	sched.Start()
	log.Println("✓ Scheduler started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		handlers.NewMessageHandler(wsHub, controller, workerPool),
		handlers.NewHealthHandler(controller, wsHub),
		handlers.NewStatsHandler(ops),
		handlers.NewAdminHandler(controller),
		wsHub,
		router.Options{
			CORSOrigins: cfg.CORSOrigins,
			AdminToken:  cfg.AdminToken,
			RateLimiter: limiter,
		},
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		sched.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)

		workerPool.Stop()
		wsHub.CloseAll()
	}()

	if cfg.AdminToken == "" {
		log.Println("⚠ ADMIN_TOKEN is not set; admin routes are open")
	}
	log.Printf("✓ Podcast Knowledge Base ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func loadCorpus(ctx context.Context, cfg *config.Config) (*models.Corpus, error) {
	switch cfg.DataSource {
	case config.SourceSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return repository.NewSQLSource(db).Load(ctx)

	case config.SourcePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return repository.NewPostgresSource(pool).Load(ctx)

	default:
		return repository.NewJSONSource(cfg.DataDir).Load(ctx)
	}
}
