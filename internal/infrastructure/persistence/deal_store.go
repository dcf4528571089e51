package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/travelcrm/backend/internal/domain/deal"
	"github.com/travelcrm/backend/internal/domain/shared"
	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
)

// GormDealStore implements the deal Store against the CRM deal table.
// Reads are unrestricted; the only write this module performs is a stage move.
type GormDealStore struct {
	db *gorm.DB

	// controlStageID is the stage whose deals are swept for realization
	controlStageID string
}

// NewGormDealStore creates a new GormDealStore
func NewGormDealStore(db *gorm.DB, controlStageID string) *GormDealStore {
	return &GormDealStore{db: db, controlStageID: controlStageID}
}

// GetDeal retrieves a deal by ID
func (s *GormDealStore) GetDeal(ctx context.Context, id uuid.UUID) (*deal.Deal, error) {
	var model models.DealModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateDealStage moves a deal to the given stage
func (s *GormDealStore) UpdateDealStage(ctx context.Context, id uuid.UUID, stageID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.DealModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stage_id":   stageID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListDueForRealization lists deals in the control stage whose service date
// is on or before the given day
func (s *GormDealStore) ListDueForRealization(ctx context.Context, day time.Time) ([]*deal.Deal, error) {
	var dealModels []models.DealModel
	err := s.db.WithContext(ctx).
		Where("stage_id = ? AND service_start <= ?", s.controlStageID, day).
		Order("service_start ASC").
		Find(&dealModels).Error
	if err != nil {
		return nil, err
	}
	deals := make([]*deal.Deal, len(dealModels))
	for i := range dealModels {
		deals[i] = dealModels[i].ToDomain()
	}
	return deals, nil
}

// Ensure GormDealStore implements Store
var _ deal.Store = (*GormDealStore)(nil)

// GormDepositStore implements DepositStore on the deposit accounts table
type GormDepositStore struct {
	db *gorm.DB
}

// NewGormDepositStore creates a new GormDepositStore
func NewGormDepositStore(db *gorm.DB) *GormDepositStore {
	return &GormDepositStore{db: db}
}

// CreditDeposit adds the amount to the contact's deposit balance, creating
// the account on first use
func (s *GormDepositStore) CreditDeposit(ctx context.Context, contactID uuid.UUID, amount decimal.Decimal) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DepositAccountModel{}).
			Where("contact_id = ?", contactID).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance + ?", amount),
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&models.DepositAccountModel{
			ContactID: contactID,
			Balance:   amount,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
	})
}

// Ensure GormDepositStore implements DepositStore
var _ deal.DepositStore = (*GormDepositStore)(nil)
