// Package scheduler periodically queues scrape jobs so the cached tables stay
// fresh.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/jobs"
	"github.com/fortuna/brutalball/internal/scrape"
)

// Enqueuer queues scrape jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, req scrape.Request) (*jobs.Job, error)
}

// Config holds scheduler configuration
type Config struct {
	Interval   time.Duration  // Default: 6h
	Pages      []extract.Page // Default: teams, players, game_results, injuries
	RunOnStart bool           // Default: true
	MaxRetries int            // Default: 3
	RetryDelay time.Duration  // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:   6 * time.Hour,
		Pages:      []extract.Page{extract.PageTeams, extract.PagePlayers, extract.PageGameResults, extract.PageInjuries},
		RunOnStart: true,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	}
}

// Orchestrator queues a refresh of every configured page on an interval.
type Orchestrator struct {
	queue  Enqueuer
	config *Config

	mu      sync.Mutex
	lastRun time.Time
	queued  int
	cancel  context.CancelFunc
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(queue Enqueuer, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	return &Orchestrator{queue: queue, config: config}
}

// Start runs the refresh loop until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer cancel()

	if o.config.Interval <= 0 {
		log.Println("[scheduler] periodic refresh disabled")
		<-ctx.Done()
		return
	}

	log.Printf("[scheduler] → refreshing %v every %v", o.config.Pages, o.config.Interval)

	ticker := time.NewTicker(o.config.Interval)
	defer ticker.Stop()

	if o.config.RunOnStart {
		o.refresh(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("[scheduler] → stopped")
			return
		case <-ticker.C:
			o.refresh(ctx)
		}
	}
}

// Stop ends a running Start loop.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// refresh queues one job per configured page.
func (o *Orchestrator) refresh(ctx context.Context) {
	n := 0
	for _, p := range o.config.Pages {
		if err := o.enqueueWithRetry(ctx, scrape.Request{Page: p}); err != nil {
			log.Printf("[scheduler] ❌ %s: %v", p, err)
			continue
		}
		n++
	}

	o.mu.Lock()
	o.lastRun = time.Now()
	o.queued += n
	o.mu.Unlock()

	log.Printf("[scheduler] ✓ queued %d/%d refresh jobs", n, len(o.config.Pages))
}

func (o *Orchestrator) enqueueWithRetry(ctx context.Context, req scrape.Request) error {
	var err error
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		if _, err = o.queue.Enqueue(ctx, req); err == nil {
			return nil
		}
		log.Printf("[scheduler] ⚠️  enqueue %s attempt %d/%d failed: %v", req.Page, attempt, o.config.MaxRetries, err)
		if attempt == o.config.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.config.RetryDelay):
		}
	}
	return err
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := map[string]interface{}{
		"interval":    o.config.Interval.String(),
		"pages":       o.config.Pages,
		"jobs_queued": o.queued,
	}
	if !o.lastRun.IsZero() {
		status["last_run"] = o.lastRun
	}
	return status
}
