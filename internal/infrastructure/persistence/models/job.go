package models

import (
	"time"

	"github.com/google/uuid"
)

// DeferredJobModel is the persistence model for deferred job records.
// At most one live job exists per (deal_id, kind); re-deferring supersedes
// the previous record instead of stacking duplicates.
type DeferredJobModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	DealID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_deferred_job_deal_kind,priority:1"`
	Kind        string     `gorm:"type:varchar(50);not null;index:idx_deferred_job_deal_kind,priority:2"`
	RunAt       time.Time  `gorm:"not null;index:idx_deferred_job_due,priority:2"`
	Status      string     `gorm:"type:varchar(20);not null;default:PENDING;index:idx_deferred_job_due,priority:1"`
	Payload     []byte     `gorm:"type:jsonb"`
	RetryCount  int        `gorm:"default:0"`
	MaxRetries  int        `gorm:"default:3"`
	LastError   string     `gorm:"type:text"`
	NextRetryAt *time.Time `gorm:"index"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DeferredJobModel) TableName() string {
	return "deferred_jobs"
}
