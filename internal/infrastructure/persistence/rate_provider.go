package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/infrastructure/persistence/models"
)

// GormRateProvider resolves the per-deal currency conversion snapshot.
// A deal without a rate row converts one-to-one.
type GormRateProvider struct {
	db *gorm.DB
}

// NewGormRateProvider creates a new GormRateProvider
func NewGormRateProvider(db *gorm.DB) *GormRateProvider {
	return &GormRateProvider{db: db}
}

// SnapshotForDeal returns the conversion snapshot for a deal
func (p *GormRateProvider) SnapshotForDeal(ctx context.Context, dealID uuid.UUID) (finance.RateSnapshot, error) {
	var model models.DealRateModel
	err := p.db.WithContext(ctx).Where("deal_id = ?", dealID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return finance.RateSnapshot{
				AverageRate: decimal.NewFromInt(1),
				RateCount:   decimal.NewFromInt(1),
			}, nil
		}
		return finance.RateSnapshot{}, err
	}
	return finance.RateSnapshot{
		AverageRate: model.AverageRate,
		RateCount:   model.RateCount,
	}, nil
}

// SaveRate upserts the conversion snapshot for a deal
func (p *GormRateProvider) SaveRate(ctx context.Context, dealID uuid.UUID, averageRate, rateCount decimal.Decimal) error {
	model := models.DealRateModel{
		DealID:      dealID,
		AverageRate: averageRate,
		RateCount:   rateCount,
		UpdatedAt:   time.Now(),
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "deal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"average_rate", "rate_count", "updated_at"}),
		}).
		Create(&model).Error
}

// Ensure GormRateProvider implements RateProvider
var _ finance.RateProvider = (*GormRateProvider)(nil)

// LedgerDebtProvider derives the remaining balance of a deal from the
// active financial card and the payment ledger. Positive means the client
// still owes money.
type LedgerDebtProvider struct {
	cards  finance.FinancialCardRepository
	ledger finance.PaymentTransactionRepository
}

// NewLedgerDebtProvider creates a new LedgerDebtProvider
func NewLedgerDebtProvider(cards finance.FinancialCardRepository, ledger finance.PaymentTransactionRepository) *LedgerDebtProvider {
	return &LedgerDebtProvider{cards: cards, ledger: ledger}
}

// AmountDebt returns card price minus paid-in total. A deal without an
// active card carries no debt.
func (p *LedgerDebtProvider) AmountDebt(ctx context.Context, dealID uuid.UUID) (decimal.Decimal, error) {
	card, err := p.cards.FindActiveByDeal(ctx, dealID)
	if err != nil {
		return decimal.Zero, err
	}
	if card == nil {
		return decimal.Zero, nil
	}
	paid, err := p.ledger.SumIncoming(ctx, dealID)
	if err != nil {
		return decimal.Zero, err
	}
	return card.Price.Result.Sub(paid), nil
}

// Ensure LedgerDebtProvider implements DebtProvider
var _ finance.DebtProvider = (*LedgerDebtProvider)(nil)
