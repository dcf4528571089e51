package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelcrm/backend/internal/domain/refund"
	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
)

// terminal statuses are excluded from the active-card lookup
var terminalRefundStatuses = []refund.Status{refund.StatusClose, refund.StatusCanceled}

// GormRefundCardRepository implements the refund Repository using GORM
type GormRefundCardRepository struct {
	db *gorm.DB
}

// NewGormRefundCardRepository creates a new GormRefundCardRepository
func NewGormRefundCardRepository(db *gorm.DB) *GormRefundCardRepository {
	return &GormRefundCardRepository{db: db}
}

// Save persists a refund card, creating or updating by primary key
func (r *GormRefundCardRepository) Save(ctx context.Context, rc *refund.RefundCard) error {
	model := models.RefundCardModelFromDomain(rc)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID retrieves a refund card by ID
func (r *GormRefundCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*refund.RefundCard, error) {
	var model models.RefundCardModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByDeal returns the attached, non-terminal card for a deal.
// Canceled cards never match because cancellation clears deal_id.
func (r *GormRefundCardRepository) FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*refund.RefundCard, error) {
	var model models.RefundCardModel
	err := r.db.WithContext(ctx).
		Where("deal_id = ? AND status NOT IN ?", dealID, terminalRefundStatuses).
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

// FindDelayedDue returns the IDs of delayed cards whose delay date has
// passed. Used by the background resume loop.
func (r *GormRefundCardRepository) FindDelayedDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.RefundCardModel{}).
		Where("status = ? AND delay_date IS NOT NULL AND delay_date <= ?", refund.StatusDelay, now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Ensure GormRefundCardRepository implements Repository
var _ refund.Repository = (*GormRefundCardRepository)(nil)
