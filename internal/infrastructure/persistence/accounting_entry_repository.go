package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
)

// GormAccountingEntryRepository implements AccountingEntryRepository using GORM
type GormAccountingEntryRepository struct {
	db *gorm.DB
}

// NewGormAccountingEntryRepository creates a new GormAccountingEntryRepository
func NewGormAccountingEntryRepository(db *gorm.DB) *GormAccountingEntryRepository {
	return &GormAccountingEntryRepository{db: db}
}

// Create persists a posting. The unique index on (deal_id, type) is the
// final guard against a double posting racing past the existence check.
func (r *GormAccountingEntryRepository) Create(ctx context.Context, e *finance.AccountingEntry) error {
	model := models.AccountingEntryModelFromDomain(e)
	return r.db.WithContext(ctx).Create(model).Error
}

// Exists reports whether a posting already exists for (dealId, entryType)
func (r *GormAccountingEntryRepository) Exists(ctx context.Context, dealID uuid.UUID, entryType finance.EntryType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AccountingEntryModel{}).
		Where("deal_id = ? AND type = ?", dealID, entryType).
		Count(&count).Error
	return count > 0, err
}

// Ensure GormAccountingEntryRepository implements AccountingEntryRepository
var _ finance.AccountingEntryRepository = (*GormAccountingEntryRepository)(nil)
