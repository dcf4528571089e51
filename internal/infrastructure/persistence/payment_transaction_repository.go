package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
)

// GormPaymentTransactionRepository implements the append-only ledger store
// using GORM
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewGormPaymentTransactionRepository creates a new GormPaymentTransactionRepository
func NewGormPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// Append persists a new ledger entry. The database assigns Seq; the value is
// written back to the domain object so callers see the final ordering.
func (r *GormPaymentTransactionRepository) Append(ctx context.Context, t *finance.PaymentTransaction) error {
	model := models.PaymentTransactionModelFromDomain(t)
	model.Seq = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	t.Seq = model.Seq
	return nil
}

// SumIncoming sums SUCCESS INCOMING amounts for a deal
func (r *GormPaymentTransactionRepository) SumIncoming(ctx context.Context, dealID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentTransactionModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("deal_id = ? AND type = ? AND status = ?",
			dealID, finance.PaymentTypeIncoming, finance.PaymentStatusSuccess).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// LastPointPayment returns the latest SUCCESS point-funded entry by sequence
func (r *GormPaymentTransactionRepository) LastPointPayment(ctx context.Context, dealID uuid.UUID) (*finance.PaymentTransaction, error) {
	var model models.PaymentTransactionModel
	err := r.db.WithContext(ctx).
		Where("deal_id = ? AND payment_by_point = ? AND status = ?",
			dealID, true, finance.PaymentStatusSuccess).
		Order("seq DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindSuccessIncomingSince lists SUCCESS INCOMING entries dated on or after
// the given time, in ledger order
func (r *GormPaymentTransactionRepository) FindSuccessIncomingSince(ctx context.Context, dealID uuid.UUID, since time.Time) ([]*finance.PaymentTransaction, error) {
	var txModels []models.PaymentTransactionModel
	err := r.db.WithContext(ctx).
		Where("deal_id = ? AND type = ? AND status = ? AND date >= ?",
			dealID, finance.PaymentTypeIncoming, finance.PaymentStatusSuccess, since).
		Order("seq ASC").
		Find(&txModels).Error
	if err != nil {
		return nil, err
	}
	txs := make([]*finance.PaymentTransaction, len(txModels))
	for i := range txModels {
		txs[i] = txModels[i].ToDomain()
	}
	return txs, nil
}

// HasPointPayments reports whether the deal has any SUCCESS point entries
func (r *GormPaymentTransactionRepository) HasPointPayments(ctx context.Context, dealID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentTransactionModel{}).
		Where("deal_id = ? AND payment_by_point = ? AND status = ?",
			dealID, true, finance.PaymentStatusSuccess).
		Count(&count).Error
	return count > 0, err
}

// ListByDeal lists all ledger entries for a deal ordered by a caller-chosen
// field. The sort field and direction pass through a whitelist before being
// interpolated into the query.
func (r *GormPaymentTransactionRepository) ListByDeal(ctx context.Context, dealID uuid.UUID, sortField, sortOrder string) ([]*finance.PaymentTransaction, error) {
	field := ValidateSortField(sortField, LedgerSortFields, "seq")
	order := ValidateSortOrder(sortOrder)

	var txModels []models.PaymentTransactionModel
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order(field + " " + order).
		Find(&txModels).Error
	if err != nil {
		return nil, err
	}
	txs := make([]*finance.PaymentTransaction, len(txModels))
	for i := range txModels {
		txs[i] = txModels[i].ToDomain()
	}
	return txs, nil
}

// FindByID retrieves a ledger entry by ID
func (r *GormPaymentTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.PaymentTransaction, error) {
	var model models.PaymentTransactionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormPaymentTransactionRepository implements PaymentTransactionRepository
var _ finance.PaymentTransactionRepository = (*GormPaymentTransactionRepository)(nil)
