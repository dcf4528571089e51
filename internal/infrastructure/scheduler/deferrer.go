package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appreceipt "github.com/travelcrm/backend/internal/application/receipt"
)

// JobDeferrer schedules one-shot jobs keyed by (dealID, kind) on top of the
// job store. Deferring an already scheduled key moves its run time instead
// of creating a second record.
type JobDeferrer struct {
	repo       JobRepository
	maxRetries int
	logger     *zap.Logger
}

// NewJobDeferrer creates a deferrer backed by the given job store
func NewJobDeferrer(repo JobRepository, maxRetries int, logger *zap.Logger) *JobDeferrer {
	return &JobDeferrer{repo: repo, maxRetries: maxRetries, logger: logger}
}

// Defer schedules a job, superseding any live job with the same key
func (d *JobDeferrer) Defer(ctx context.Context, dealID uuid.UUID, kind string, runAt time.Time, payload []byte) error {
	existing, err := d.repo.FindLive(ctx, dealID, kind)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.RunAt = NormalizeRunAt(runAt)
		existing.Payload = payload
		existing.UpdatedAt = time.Now()
		d.logger.Debug("Superseding deferred job",
			zap.String("deal_id", dealID.String()),
			zap.String("kind", kind),
			zap.Time("run_at", existing.RunAt),
		)
		return d.repo.Update(ctx, existing)
	}

	job := NewJob(dealID, kind, runAt, payload, d.maxRetries)
	d.logger.Debug("Deferring job",
		zap.String("deal_id", dealID.String()),
		zap.String("kind", kind),
		zap.Time("run_at", job.RunAt),
	)
	return d.repo.Save(ctx, job)
}

// Cancel cancels the live job for the key. Canceling a key with no live
// job is a no-op.
func (d *JobDeferrer) Cancel(ctx context.Context, dealID uuid.UUID, kind string) error {
	existing, err := d.repo.FindLive(ctx, dealID, kind)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	existing.Cancel()
	return d.repo.Update(ctx, existing)
}

// Ensure JobDeferrer implements the application port
var _ appreceipt.Deferrer = (*JobDeferrer)(nil)
