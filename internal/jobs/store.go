package jobs

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fortuna/brutalball/internal/scrape"
)

// Store persists jobs and their event log.
type Store interface {
	CreateJob(ctx context.Context, req scrape.Request) (*Job, error)
	// MarkNextJobRunning claims the oldest queued job; nil when none is queued.
	MarkNextJobRunning(ctx context.Context) (*Job, error)
	UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error
	RecordResult(ctx context.Context, jobID string, rows int, fingerprint string) error
	AppendEvent(ctx context.Context, jobID, eventType, message string) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	GetActiveJob(ctx context.Context) (*Job, error)
	ListRecentJobs(ctx context.Context, limit int) ([]*Job, error)
	// ResetStuckJobs requeues jobs left running by a previous process.
	ResetStuckJobs(ctx context.Context) error
}

// Event is one entry of a job's log.
type Event struct {
	JobID     string    `json:"job_id"`
	Type      string    `json:"event_type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryStore keeps jobs in process. It backs the CLI and tests.
type MemoryStore struct {
	mu     sync.Mutex
	seq    int
	jobs   map[string]*Job
	events []Event
	now    func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job), now: time.Now}
}

func (m *MemoryStore) CreateJob(_ context.Context, req scrape.Request) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	now := m.now()
	job := &Job{
		JobID:         strconv.Itoa(m.seq),
		Request:       req,
		Status:        JobStatusQueued,
		StatusMessage: "Queued",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.jobs[job.JobID] = job
	return job.Copy(), nil
}

func (m *MemoryStore) MarkNextJobRunning(_ context.Context) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var next *Job
	for _, j := range m.sorted() {
		if j.Status == JobStatusQueued {
			next = j
			break
		}
	}
	if next == nil {
		return nil, nil
	}
	now := m.now()
	next.Status = JobStatusRunning
	next.StatusMessage = "Starting job..."
	next.UpdatedAt = now
	if next.StartedAt == nil {
		next.StartedAt = &now
	}
	return next.Copy(), nil
}

func (m *MemoryStore) UpdateProgress(_ context.Context, jobID string, current, total int, message string) error {
	return m.update(jobID, func(j *Job) {
		j.ProgressCurrent, j.ProgressTotal, j.StatusMessage = current, total, message
	})
}

func (m *MemoryStore) UpdateStatus(_ context.Context, jobID string, status JobStatus, message string, lastErr error) error {
	return m.update(jobID, func(j *Job) {
		j.Status, j.StatusMessage = status, message
		j.LastError = ""
		if lastErr != nil {
			j.LastError = lastErr.Error()
		}
		if status.Terminal() {
			now := m.now()
			j.CompletedAt = &now
		}
	})
}

func (m *MemoryStore) RecordResult(_ context.Context, jobID string, rows int, fingerprint string) error {
	return m.update(jobID, func(j *Job) { j.Rows, j.Fingerprint = rows, fingerprint })
}

func (m *MemoryStore) AppendEvent(_ context.Context, jobID, eventType, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[jobID]; !ok {
		return fmt.Errorf("%s: %w", jobID, ErrJobNotFound)
	}
	m.events = append(m.events, Event{JobID: jobID, Type: eventType, Message: message, CreatedAt: m.now()})
	return nil
}

// Events returns the log of one job.
func (m *MemoryStore) Events(jobID string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemoryStore) GetJob(_ context.Context, jobID string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", jobID, ErrJobNotFound)
	}
	return j.Copy(), nil
}

func (m *MemoryStore) GetActiveJob(_ context.Context) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.sorted() {
		if j.Status == JobStatusRunning {
			return j.Copy(), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListRecentJobs(_ context.Context, limit int) ([]*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	var out []*Job
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i].Copy())
	}
	return out, nil
}

func (m *MemoryStore) ResetStuckJobs(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Status == JobStatusRunning {
			j.Status = JobStatusQueued
			j.StatusMessage = "Reset after service restart"
		}
	}
	return nil
}

func (m *MemoryStore) update(jobID string, fn func(*Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("%s: %w", jobID, ErrJobNotFound)
	}
	fn(j)
	j.UpdatedAt = m.now()
	return nil
}

// sorted returns jobs oldest first. Callers hold mu.
func (m *MemoryStore) sorted() []*Job {
	out := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool {
		ia, _ := strconv.Atoi(out[a].JobID)
		ib, _ := strconv.Atoi(out[b].JobID)
		return ia < ib
	})
	return out
}
