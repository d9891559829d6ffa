package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a queued job.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobDone       JobStatus = "DONE"
	JobFailed     JobStatus = "FAILED"
)

// Job is a unit of queued background work, such as a deferred
// re-optimization after a stock change.
type Job struct {
	ID        string
	Kind      string
	Payload   string
	Status    JobStatus
	Attempts  int
	LastError string
	LockedBy  string
	CreatedAt time.Time
}

// JobRepository handles job queue data access.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Enqueue inserts a new pending job and returns its ID.
func (r *JobRepository) Enqueue(ctx context.Context, kind, payload string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO jobs (id, kind, payload_json, status, attempts, last_error, locked_by, created_at, updated_at)
		VALUES (?, ?, ?, 'PENDING', 0, '', '', ?, ?)`

	_, err := r.db.ExecContext(ctx, query, id, kind, payload, now, now)
	if err != nil {
		return "", fmt.Errorf("enqueuing %s job: %w", kind, err)
	}
	return id, nil
}

// ClaimNext atomically claims the oldest pending job for the given worker.
// The claim is a conditional UPDATE on status, so two workers polling at
// once cannot take the same job. Returns nil when the queue is empty.
func (r *JobRepository) ClaimNext(ctx context.Context, workerID string) (*Job, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM jobs
		WHERE status = 'PENDING'
		ORDER BY rowid
		LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting pending job: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'PROCESSING', locked_by = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		workerID, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return nil, fmt.Errorf("claiming job %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claiming job %s: %w", id, err)
	}
	if affected == 0 {
		// Another worker took it between the select and the update.
		return nil, nil
	}

	return r.Get(ctx, id)
}

// Get retrieves a job by ID.
func (r *JobRepository) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	var status, createdAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, kind, payload_json, status, attempts, last_error, locked_by, created_at
		FROM jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.Kind, &job.Payload, &status, &job.Attempts,
		&job.LastError, &job.LockedBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "job", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.Status = JobStatus(status)
	job.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", createdAt, err)
	}
	return &job, nil
}

// MarkDone records successful completion of a processing job.
func (r *JobRepository) MarkDone(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'DONE', last_error = '', updated_at = ?
		WHERE id = ? AND status = 'PROCESSING'`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("marking job %s done: %w", id, err)
	}
	return nil
}

// MarkFailed records a processing failure. The job goes back to PENDING for
// another attempt until maxAttempts is reached, then stays FAILED.
func (r *JobRepository) MarkFailed(ctx context.Context, id string, cause error, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = CASE WHEN attempts >= ? THEN 'FAILED' ELSE 'PENDING' END,
			last_error = ?, locked_by = '', updated_at = ?
		WHERE id = ? AND status = 'PROCESSING'`,
		maxAttempts, cause.Error(), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("marking job %s failed: %w", id, err)
	}
	return nil
}
