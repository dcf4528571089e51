package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
)

// GormFinancialCardRepository implements FinancialCardRepository using GORM
type GormFinancialCardRepository struct {
	db *gorm.DB
}

// NewGormFinancialCardRepository creates a new GormFinancialCardRepository
func NewGormFinancialCardRepository(db *gorm.DB) *GormFinancialCardRepository {
	return &GormFinancialCardRepository{db: db}
}

// Save persists a card, creating or updating by primary key
func (r *GormFinancialCardRepository) Save(ctx context.Context, fc *finance.FinancialCard) error {
	model := models.FinancialCardModelFromDomain(fc)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindActiveByDeal returns the non-superseded card for a deal
func (r *GormFinancialCardRepository) FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*finance.FinancialCard, error) {
	var model models.FinancialCardModel
	err := r.db.WithContext(ctx).
		Where("deal_id = ? AND superseded = ?", dealID, false).
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

// FindByID retrieves a card by ID
func (r *GormFinancialCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinancialCard, error) {
	var model models.FinancialCardModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormFinancialCardRepository implements FinancialCardRepository
var _ finance.FinancialCardRepository = (*GormFinancialCardRepository)(nil)
