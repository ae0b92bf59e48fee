// Package jobs queues scrape requests and executes them one at a time in the
// background.
package jobs

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/scrape"
	"github.com/fortuna/brutalball/internal/service"
	"github.com/fortuna/brutalball/internal/teams"
)

// Scraper executes one scrape request.
type Scraper interface {
	Run(ctx context.Context, req scrape.Request, reporter scrape.Reporter) (extract.Bundle, error)
}

// Sink receives the table a job produced.
type Sink interface {
	Apply(ctx context.Context, jobID string, p extract.Page, b extract.Bundle) (service.ApplyResult, error)
}

// PollInterval is how often an idle worker looks for queued jobs.
const PollInterval = 3 * time.Second

// Service coordinates job persistence, execution and status reporting.
type Service struct {
	store   Store
	scraper Scraper
	sink    Sink
	// observer also receives every runner callback, e.g. the websocket hub.
	observer scrape.Reporter

	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	wake   chan struct{}

	logger *log.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(store Store, scraper Scraper, sink Sink, observer scrape.Reporter, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[jobs] ", log.LstdFlags)
	}

	return &Service{
		store:        store,
		scraper:      scraper,
		sink:         sink,
		observer:     observer,
		historyLimit: 10,
		ctx:          ctx,
		cancel:       cancel,
		wake:         make(chan struct{}, 1),
		logger:       logger,
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.store.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Printf("failed to reset jobs: %v", err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for it to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue validates req and queues it.
func (s *Service) Enqueue(ctx context.Context, req scrape.Request) (*Job, error) {
	page, err := extract.ParsePage(string(req.Page))
	if err != nil {
		return nil, err
	}
	req.Page = page
	for _, id := range req.TeamIDs {
		if id >= teams.MaxTeams {
			return nil, fmt.Errorf("team id %d out of range (must be < %d)", id, teams.MaxTeams)
		}
	}
	if len(req.TeamIDs) > 0 && req.Page != extract.PagePlayers {
		return nil, fmt.Errorf("team selection only applies to %s", extract.PagePlayers)
	}

	job, err := s.store.CreateJob(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.AppendEvent(ctx, job.JobID, "queued", "Job queued"); err != nil {
		s.logger.Printf("⚠️  job %s: record queued event: %v", job.JobID, err)
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return job, nil
}

// Get returns one job.
func (s *Service) Get(ctx context.Context, jobID string) (*Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.store.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		job, err := s.store.MarkNextJobRunning(s.ctx)
		if err != nil {
			s.logger.Printf("claim job error: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
			case <-s.wake:
			}
			continue
		}

		s.executeJob(job)
	}
}

func (s *Service) executeJob(job *Job) {
	s.logger.Printf("▶ job %s: %s", job.JobID, job.Request.Page)
	reporter := &jobReporter{ctx: s.ctx, store: s.store, jobID: job.JobID, next: s.observer}

	table, err := s.scraper.Run(s.ctx, job.Request, reporter)
	if err != nil {
		s.fail(job, "Scrape failed", err)
		return
	}

	res, err := s.sink.Apply(s.ctx, job.JobID, job.Request.Page, table)
	if err != nil {
		s.fail(job, "Storing results failed", err)
		return
	}

	fp := strconv.FormatUint(res.Table.Fingerprint(), 16)
	_ = s.store.RecordResult(s.ctx, job.JobID, res.Table.Len(), fp)
	msg := fmt.Sprintf("Job completed: %d rows scraped, %d stored", table.Len(), res.Table.Len())
	if err := s.store.AppendEvent(s.ctx, job.JobID, "completed", msg); err != nil {
		s.logger.Printf("⚠️  job %s: record completed event: %v", job.JobID, err)
	}
	_ = s.store.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, msg, nil)
	s.logger.Printf("✓ job %s: %s", job.JobID, msg)
}

func (s *Service) fail(job *Job, message string, err error) {
	s.logger.Printf("❌ job %s: %s: %v", job.JobID, message, err)
	if evErr := s.store.AppendEvent(s.ctx, job.JobID, "failed", err.Error()); evErr != nil {
		s.logger.Printf("⚠️  job %s: record failed event: %v", job.JobID, evErr)
	}
	_ = s.store.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, message, err)
}

// jobReporter records runner progress on the job and forwards it.
type jobReporter struct {
	ctx   context.Context
	store Store
	jobID string
	next  scrape.Reporter

	mu    sync.Mutex
	total int
}

func (r *jobReporter) OnStart(req scrape.Request, total int) {
	r.mu.Lock()
	r.total = total
	r.mu.Unlock()
	_ = r.store.UpdateProgress(r.ctx, r.jobID, 0, total, "Job starting")
	if r.next != nil {
		r.next.OnStart(req, total)
	}
}

func (r *jobReporter) OnProgress(message string, current, total int) {
	_ = r.store.UpdateProgress(r.ctx, r.jobID, current, total, message)
	if r.next != nil {
		r.next.OnProgress(message, current, total)
	}
}

func (r *jobReporter) OnTeamError(team teams.Team, err error) {
	_ = r.store.AppendEvent(r.ctx, r.jobID, "team_error", fmt.Sprintf("Team %d (%s): %v", team.ID, team.Name, err))
	if r.next != nil {
		r.next.OnTeamError(team, err)
	}
}

func (r *jobReporter) OnComplete(p extract.Page, rows int) {
	r.mu.Lock()
	total := r.total
	r.mu.Unlock()
	_ = r.store.UpdateProgress(r.ctx, r.jobID, total, total, fmt.Sprintf("Scraped %d rows", rows))
	if r.next != nil {
		r.next.OnComplete(p, rows)
	}
}
