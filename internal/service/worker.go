package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/database"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/repository"
)

// JobKindReoptimize asks the worker to recompute a stored plan against
// current stock.
const JobKindReoptimize = "reoptimize"

// ReoptimizePayload is the job payload for JobKindReoptimize.
type ReoptimizePayload struct {
	PlanID    string                   `json:"plan_id"`
	Overrides []model.MaterialOverride `json:"overrides,omitempty"`
}

// Worker polls the job queue and executes queued work. Stock changes enqueue
// re-optimization jobs rather than recomputing inline, so intake stays fast
// and plan recomputation survives restarts.
type Worker struct {
	ID           string
	PollInterval time.Duration
	MaxAttempts  int

	jobs  *repository.JobRepository
	alloc *AllocationService
	log   *logrus.Logger
}

// NewWorker creates a queue worker.
func NewWorker(id string, db *database.DB, alloc *AllocationService, pollInterval time.Duration, maxAttempts int, log *logrus.Logger) *Worker {
	return &Worker{
		ID:           id,
		PollInterval: pollInterval,
		MaxAttempts:  maxAttempts,
		jobs:         repository.NewJobRepository(db.DB),
		alloc:        alloc,
		log:          log,
	}
}

// EnqueueReoptimize queues a re-optimization of the given plan.
func (w *Worker) EnqueueReoptimize(ctx context.Context, payload ReoptimizePayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding job payload: %w", err)
	}
	return w.jobs.Enqueue(ctx, JobKindReoptimize, string(body))
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.WithField("worker", w.ID).Info("worker started")
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.WithField("worker", w.ID).Info("worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessOnce(ctx); err != nil {
				w.log.WithError(err).Warn("job processing failed")
			}
		}
	}
}

// ProcessOnce claims and runs at most one job. Returns nil when the queue
// is empty.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	job, err := w.jobs.ClaimNext(ctx, w.ID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}

	log := w.log.WithFields(logrus.Fields{
		"worker":  w.ID,
		"job":     job.ID,
		"kind":    job.Kind,
		"attempt": job.Attempts,
	})

	if err := w.execute(ctx, job); err != nil {
		log.WithError(err).Warn("job failed")
		if markErr := w.jobs.MarkFailed(ctx, job.ID, err, w.MaxAttempts); markErr != nil {
			return markErr
		}
		return err
	}

	log.Info("job done")
	return w.jobs.MarkDone(ctx, job.ID)
}

func (w *Worker) execute(ctx context.Context, job *repository.Job) error {
	switch job.Kind {
	case JobKindReoptimize:
		var payload ReoptimizePayload
		if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
			return fmt.Errorf("decoding job payload: %w", err)
		}
		_, err := w.alloc.Reoptimize(ctx, payload.PlanID, payload.Overrides)
		return err
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
