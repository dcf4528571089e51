package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
	"github.com/travelcrm/backend/internal/infrastructure/scheduler"
)

// GormDeferredJobRepository implements the scheduler JobRepository using GORM
type GormDeferredJobRepository struct {
	db *gorm.DB
}

// NewGormDeferredJobRepository creates a new GormDeferredJobRepository
func NewGormDeferredJobRepository(db *gorm.DB) *GormDeferredJobRepository {
	return &GormDeferredJobRepository{db: db}
}

// Save persists a job record
func (r *GormDeferredJobRepository) Save(ctx context.Context, job *scheduler.Job) error {
	return r.db.WithContext(ctx).Create(jobModelFromDomain(job)).Error
}

// FindLive returns the pending or running job for (dealID, kind)
func (r *GormDeferredJobRepository) FindLive(ctx context.Context, dealID uuid.UUID, kind string) (*scheduler.Job, error) {
	var model models.DeferredJobModel
	err := r.db.WithContext(ctx).
		Where("deal_id = ? AND kind = ? AND status IN ?", dealID, kind,
			[]string{string(scheduler.JobStatusPending), string(scheduler.JobStatusRunning)}).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return jobModelToDomain(&model), nil
}

// ClaimDue atomically marks due pending jobs as running and returns them.
// SKIP LOCKED keeps concurrent scheduler instances from claiming the same row.
func (r *GormDeferredJobRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*scheduler.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	var jobModels []models.DeferredJobModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("status = ? AND run_at <= ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
				string(scheduler.JobStatusPending), now, now).
			Order("run_at ASC").
			Limit(limit).
			Find(&jobModels).Error; err != nil {
			return err
		}

		if len(jobModels) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(jobModels))
		for i := range jobModels {
			ids[i] = jobModels[i].ID
		}

		if err := tx.Model(&models.DeferredJobModel{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     string(scheduler.JobStatusRunning),
				"started_at": now,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		for i := range jobModels {
			jobModels[i].Status = string(scheduler.JobStatusRunning)
			startedAt := now
			jobModels[i].StartedAt = &startedAt
			jobModels[i].UpdatedAt = now
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	jobs := make([]*scheduler.Job, len(jobModels))
	for i := range jobModels {
		jobs[i] = jobModelToDomain(&jobModels[i])
	}
	return jobs, nil
}

// Update updates an existing job record
func (r *GormDeferredJobRepository) Update(ctx context.Context, job *scheduler.Job) error {
	return r.db.WithContext(ctx).Save(jobModelFromDomain(job)).Error
}

func jobModelFromDomain(job *scheduler.Job) *models.DeferredJobModel {
	return &models.DeferredJobModel{
		ID:          job.ID,
		DealID:      job.DealID,
		Kind:        job.Kind,
		RunAt:       job.RunAt,
		Status:      string(job.Status),
		Payload:     job.Payload,
		RetryCount:  job.RetryCount,
		MaxRetries:  job.MaxRetries,
		LastError:   job.LastError,
		NextRetryAt: job.NextRetryAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

func jobModelToDomain(m *models.DeferredJobModel) *scheduler.Job {
	return &scheduler.Job{
		ID:          m.ID,
		DealID:      m.DealID,
		Kind:        m.Kind,
		RunAt:       m.RunAt,
		Status:      scheduler.JobStatus(m.Status),
		Payload:     m.Payload,
		RetryCount:  m.RetryCount,
		MaxRetries:  m.MaxRetries,
		LastError:   m.LastError,
		NextRetryAt: m.NextRetryAt,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Ensure GormDeferredJobRepository implements JobRepository
var _ scheduler.JobRepository = (*GormDeferredJobRepository)(nil)
