package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/brutalball/internal/api/rest"
	"github.com/fortuna/brutalball/internal/api/websocket"
	"github.com/fortuna/brutalball/internal/cache"
	"github.com/fortuna/brutalball/internal/config"
	"github.com/fortuna/brutalball/internal/jobs"
	"github.com/fortuna/brutalball/internal/publisher"
	"github.com/fortuna/brutalball/internal/scheduler"
	"github.com/fortuna/brutalball/internal/scrape"
	"github.com/fortuna/brutalball/internal/service"
	"github.com/fortuna/brutalball/internal/store"
	"github.com/fortuna/brutalball/internal/store/repository"
)

const (
	redisMaxRetries = 30
	redisRetryDelay = 2 * time.Second
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the REST API, the websocket progress feed, the job worker and the refresh scheduler.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	log.Printf("Starting %s v%s", serviceName, serviceVersion)

	checks := make(map[string]rest.HealthChecker)

	var (
		tableStore service.TableStore
		teamStore  service.TeamStore
		jobStore   jobs.Store = jobs.NewMemoryStore()
	)
	if cfg.DatabaseURL != "" {
		db, err := store.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Println("✓ Connected to database")

		if err := db.RunMigrations(); err != nil {
			return err
		}
		log.Println("✓ Database migrations applied")

		tableStore = repository.NewTableRepository(db)
		teamStore = repository.NewTeamRepository(db)
		jobStore = jobs.NewRepository(db)
		checks["postgres"] = db
	} else {
		log.Println("⚠️  DATABASE_URL not set, jobs are kept in memory")
	}

	var (
		tableCache cache.Cache = cache.NewFileCache(cfg.OutDir)
		pub        service.Publisher
	)
	if cfg.RedisURL != "" {
		redisCache, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		log.Println("✓ Connected to Redis")

		tableCache = redisCache
		pub = publisher.NewRedisStreamPublisher(redisCache.Client())
		checks["redis"] = redisCache
	} else {
		log.Printf("⚠️  REDIS_URL not set, caching tables under %s", cfg.OutDir)
	}

	tables := service.NewTableService(tableCache, tableStore, teamStore, pub, nil)

	fetcher, release := newFetcher(cfg)
	defer release()
	known, _ := tables.Teams(ctx)
	runner := scrape.NewRunner(fetcher, known, cfg.ScrapeConfig(), nil)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	jobService := jobs.NewService(jobStore, runner, tables, hub, nil)
	jobService.Start()
	log.Println("✓ Job worker started")

	interval, _ := cfg.Refresh()
	pages, _ := cfg.Pages()
	sched := scheduler.NewOrchestrator(jobService, &scheduler.Config{
		Interval:   interval,
		Pages:      pages,
		RunOnStart: true,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	})
	go sched.Start(ctx)
	log.Println("✓ Scheduler started")

	ws := websocket.NewHandler(hub)
	router := rest.NewRouter(rest.NewHandler(tables, checks), rest.NewScrapeHandler(jobService), ws)
	router.HandleFunc("/ws/health", ws.HealthHandler).Methods("GET")
	server := rest.NewServer(cfg.Port, router)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Printf("✓ %s v%s listening", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s/api/v1", cfg.Port)
	log.Printf("  WebSocket: ws://0.0.0.0:%s/ws", cfg.Port)

	select {
	case <-ctx.Done():
		log.Println("Shutting down gracefully...")
	case err := <-errCh:
		log.Printf("❌ REST server error: %v", err)
		return err
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := jobService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Job worker shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
	return nil
}

// connectRedis retries while Redis starts up alongside the service.
func connectRedis(ctx context.Context, url string) (*cache.RedisCache, error) {
	var err error
	for i := 0; i < redisMaxRetries; i++ {
		var rc *cache.RedisCache
		if rc, err = cache.NewRedisCache(url); err == nil {
			return rc, nil
		}
		log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, redisMaxRetries, err, redisRetryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisRetryDelay):
		}
	}
	return nil, err
}
