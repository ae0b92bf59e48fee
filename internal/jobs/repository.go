package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/scrape"
	"github.com/fortuna/brutalball/internal/store"
)

const jobColumns = `job_id, page, team_ids, keep_hash, season, status, status_message,
	progress_current, progress_total, row_count, fingerprint, last_error,
	created_at, updated_at, started_at, completed_at`

// Repository handles persistence for scrape jobs and events.
type Repository struct {
	db *store.Database
}

// NewRepository constructs a Repository.
func NewRepository(db *store.Database) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// CreateJob inserts a new job row and returns the stored record.
func (r *Repository) CreateJob(ctx context.Context, req scrape.Request) (*Job, error) {
	ids := make(pq.Int64Array, len(req.TeamIDs))
	for i, id := range req.TeamIDs {
		ids[i] = int64(id)
	}
	query := `
		INSERT INTO scrape_jobs (page, team_ids, keep_hash, season, status, status_message)
		VALUES ($1, $2, $3, $4, 'queued', 'Queued')
		RETURNING ` + jobColumns

	row := r.db.DB().QueryRowContext(ctx, query,
		string(req.Page), ids, req.KeepHash, sql.NullString{String: req.Season, Valid: req.Season != ""},
	)
	return scanJob(row)
}

// UpdateStatus updates status, message and optional error.
func (r *Repository) UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error {
	query := `
		UPDATE scrape_jobs
		SET status = $2::varchar,
			status_message = $3,
			last_error = $4,
			updated_at = NOW(),
			completed_at = CASE WHEN $2::varchar IN ('completed','failed','cancelled') THEN NOW() ELSE completed_at END
		WHERE job_id = $1
	`

	var errText sql.NullString
	if lastErr != nil {
		errText = sql.NullString{String: lastErr.Error(), Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, jobID, string(status), message, errText); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}

	return nil
}

// UpdateProgress updates the progress counters and message.
func (r *Repository) UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error {
	query := `
		UPDATE scrape_jobs
		SET progress_current = $2,
			progress_total = $3,
			status_message = $4,
			updated_at = NOW()
		WHERE job_id = $1
	`

	if _, err := r.db.DB().ExecContext(ctx, query, jobID, current, total, message); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}

	return nil
}

// RecordResult stores the size and fingerprint of the produced table.
func (r *Repository) RecordResult(ctx context.Context, jobID string, rows int, fingerprint string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE scrape_jobs
		SET row_count = $2, fingerprint = $3, updated_at = NOW()
		WHERE job_id = $1
	`, jobID, rows, fingerprint)
	if err != nil {
		return fmt.Errorf("record job result: %w", err)
	}
	return nil
}

// AppendEvent stores a log entry for a job.
func (r *Repository) AppendEvent(ctx context.Context, jobID, eventType, message string) error {
	query := `
		INSERT INTO scrape_job_events (job_id, event_type, message)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.DB().ExecContext(ctx, query, jobID, eventType, message); err != nil {
		return fmt.Errorf("insert job event: %w", err)
	}
	return nil
}

// ResetStuckJobs moves running jobs back to queued (used during service restarts).
func (r *Repository) ResetStuckJobs(ctx context.Context) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE scrape_jobs
		SET status = 'queued',
			status_message = 'Reset after service restart',
			updated_at = NOW()
		WHERE status = 'running'
	`)
	if err != nil {
		return fmt.Errorf("reset stuck jobs: %w", err)
	}
	return nil
}

// MarkNextJobRunning atomically claims the next queued job.
func (r *Repository) MarkNextJobRunning(ctx context.Context) (*Job, error) {
	query := `
		WITH next_job AS (
			SELECT job_id
			FROM scrape_jobs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE scrape_jobs j
		SET status = 'running',
			status_message = 'Starting job...',
			started_at = COALESCE(j.started_at, NOW()),
			updated_at = NOW()
		FROM next_job
		WHERE j.job_id = next_job.job_id
		RETURNING j.job_id, j.page, j.team_ids, j.keep_hash, j.season, j.status, j.status_message,
			j.progress_current, j.progress_total, j.row_count, j.fingerprint, j.last_error,
			j.created_at, j.updated_at, j.started_at, j.completed_at
	`

	job, err := scanJob(r.db.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// GetJob returns one job by id.
func (r *Repository) GetJob(ctx context.Context, jobID string) (*Job, error) {
	row := r.db.DB().QueryRowContext(ctx, `SELECT `+jobColumns+` FROM scrape_jobs WHERE job_id::text = $1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", jobID, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetActiveJob returns the currently running job, if any.
func (r *Repository) GetActiveJob(ctx context.Context) (*Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM scrape_jobs
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1
	`

	job, err := scanJob(r.db.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active job: %w", err)
	}
	return job, nil
}

// ListRecentJobs returns the most recent jobs, newest first.
func (r *Repository) ListRecentJobs(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM scrape_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func scanJob(scanner interface {
	Scan(dest ...interface{}) error
}) (*Job, error) {
	var (
		job                      Job
		page                     string
		ids                      pq.Int64Array
		season, msg, fp, lastErr sql.NullString
		startedAt, completedAt   sql.NullTime
	)
	err := scanner.Scan(
		&job.JobID,
		&page,
		&ids,
		&job.Request.KeepHash,
		&season,
		&job.Status,
		&msg,
		&job.ProgressCurrent,
		&job.ProgressTotal,
		&job.Rows,
		&fp,
		&lastErr,
		&job.CreatedAt,
		&job.UpdatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Request.Page = extract.Page(page)
	job.Request.Season = season.String
	for _, id := range ids {
		job.Request.TeamIDs = append(job.Request.TeamIDs, uint32(id))
	}
	job.StatusMessage, job.Fingerprint, job.LastError = msg.String, fp.String, lastErr.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}
