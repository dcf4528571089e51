package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
)

// GormCreditRepository implements CreditRepository using GORM
type GormCreditRepository struct {
	db *gorm.DB
}

// NewGormCreditRepository creates a new GormCreditRepository
func NewGormCreditRepository(db *gorm.DB) *GormCreditRepository {
	return &GormCreditRepository{db: db}
}

// Save persists a credit together with its operation history. History rows
// are append-only; existing rows are left untouched on conflict.
func (r *GormCreditRepository) Save(ctx context.Context, c *finance.Credit) error {
	model := models.CreditModelFromDomain(c)
	ops := model.Operations
	model.Operations = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if len(ops) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ops).Error
	})
}

// FindActiveByDeal returns the open credit plan for a deal
func (r *GormCreditRepository) FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*finance.Credit, error) {
	var model models.CreditModel
	err := r.db.WithContext(ctx).
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("credit_operations.seq ASC")
		}).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID retrieves a credit by ID
func (r *GormCreditRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Credit, error) {
	var model models.CreditModel
	err := r.db.WithContext(ctx).
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("credit_operations.seq ASC")
		}).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormCreditRepository implements CreditRepository
var _ finance.CreditRepository = (*GormCreditRepository)(nil)
