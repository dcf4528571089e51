package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a deferred job
type JobStatus string

const (
	JobStatusPending  JobStatus = "PENDING"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusSuccess  JobStatus = "SUCCESS"
	JobStatusFailed   JobStatus = "FAILED"
	JobStatusCanceled JobStatus = "CANCELED"
)

// Midnight run times are shifted into business hours. A job landing exactly
// on 00:00:00 almost always means "the day the service starts", not an
// intent to fire at midnight.
const (
	shiftHour   = 10
	shiftMinute = 5
)

// NormalizeRunAt shifts a midnight run time to the same day's business
// window. Any other time passes through unchanged.
func NormalizeRunAt(runAt time.Time) time.Time {
	if runAt.Hour() == 0 && runAt.Minute() == 0 && runAt.Second() == 0 {
		return time.Date(runAt.Year(), runAt.Month(), runAt.Day(),
			shiftHour, shiftMinute, 0, 0, runAt.Location())
	}
	return runAt
}

// Job is one deferred unit of work keyed by (DealID, Kind). Deferring the
// same key again supersedes the previous record.
type Job struct {
	ID          uuid.UUID
	DealID      uuid.UUID
	Kind        string
	RunAt       time.Time
	Status      JobStatus
	Payload     []byte
	RetryCount  int
	MaxRetries  int
	LastError   string
	NextRetryAt *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewJob creates a pending job with a normalized run time
func NewJob(dealID uuid.UUID, kind string, runAt time.Time, payload []byte, maxRetries int) *Job {
	now := time.Now()
	return &Job{
		ID:         uuid.New(),
		DealID:     dealID,
		Kind:       kind,
		RunAt:      NormalizeRunAt(runAt),
		Status:     JobStatusPending,
		Payload:    payload,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.LastError = ""
	j.UpdatedAt = now
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Fail marks the job as failed with the given error
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.LastError = err
	j.UpdatedAt = now
}

// Cancel marks the job as canceled so the poller never claims it
func (j *Job) Cancel() {
	now := time.Now()
	j.Status = JobStatusCanceled
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry re-queues the job after the given delay
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.CompletedAt = nil
	j.UpdatedAt = time.Now()
}

// IsDue reports whether the job is ready to run at the given time
func (j *Job) IsDue(now time.Time) bool {
	if j.Status != JobStatusPending {
		return false
	}
	if now.Before(j.RunAt) {
		return false
	}
	if j.NextRetryAt != nil && now.Before(*j.NextRetryAt) {
		return false
	}
	return true
}

// JobRepository defines persistence for deferred jobs
type JobRepository interface {
	// Save persists a job record
	Save(ctx context.Context, job *Job) error
	// FindLive returns the pending or running job for (dealID, kind), nil when none
	FindLive(ctx context.Context, dealID uuid.UUID, kind string) (*Job, error)
	// ClaimDue atomically marks due pending jobs as running and returns them
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)
	// Update updates an existing job record
	Update(ctx context.Context, job *Job) error
}
