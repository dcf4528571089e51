package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelcrm/backend/internal/domain/receipt"
	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
)

// GormReceiptRepository implements the receipt Repository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Save persists a receipt row, creating or updating by primary key. Every
// save leaves an audit row with the field snapshots before and after the
// write.
func (r *GormReceiptRepository) Save(ctx context.Context, rec *receipt.Receipt) error {
	model := models.ReceiptModelFromDomain(rec)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior models.ReceiptModel
		event := models.ReceiptLogEventUpdate
		var before []byte

		err := tx.Where("id = ?", model.ID).First(&prior).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			event = models.ReceiptLogEventAdd
		case err != nil:
			return err
		default:
			if before, err = json.Marshal(&prior); err != nil {
				return err
			}
		}

		saveErr := tx.Save(model).Error

		after, err := json.Marshal(model)
		if err != nil {
			return err
		}
		logStatus := models.ReceiptLogStatusSuccess
		if saveErr != nil {
			logStatus = models.ReceiptLogStatusError
		}
		logRow := &models.ReceiptLogModel{
			ID:        uuid.New(),
			ReceiptID: model.ID,
			DealID:    model.DealID,
			Event:     event,
			Status:    logStatus,
			Before:    before,
			After:     after,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(logRow).Error; err != nil {
			return err
		}

		return saveErr
	})
}

// FindLogs returns the audit trail of a receipt, oldest first
func (r *GormReceiptRepository) FindLogs(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptLogModel, error) {
	var logs []models.ReceiptLogModel
	err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

// FindByID retrieves a receipt by ID
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	var model models.ReceiptModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLastByDeal returns the most recent receipt for a deal
func (r *GormReceiptRepository) FindLastByDeal(ctx context.Context, dealID uuid.UUID) (*receipt.Receipt, error) {
	var model models.ReceiptModel
	err := r.db.WithContext(ctx).
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

// FindUnfinished lists NEW receipts due for (re-)submission, oldest first
func (r *GormReceiptRepository) FindUnfinished(ctx context.Context, limit int) ([]*receipt.Receipt, error) {
	var recModels []models.ReceiptModel
	err := r.db.WithContext(ctx).
		Where("status = ?", receipt.StatusNew).
		Order("created_at ASC").
		Limit(limit).
		Find(&recModels).Error
	if err != nil {
		return nil, err
	}
	receipts := make([]*receipt.Receipt, len(recModels))
	for i := range recModels {
		receipts[i] = recModels[i].ToDomain()
	}
	return receipts, nil
}

// Ensure GormReceiptRepository implements Repository
var _ receipt.Repository = (*GormReceiptRepository)(nil)
