package persistence

import (
	"context"

	"gorm.io/gorm"

	apprefund "github.com/travelcrm/backend/internal/application/refund"
	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/refund"
)

// GormRefundTransactionScope implements the refund TransactionScope using
// GORM transactions. A workflow transition and its ledger side effects
// commit or roll back as one unit.
type GormRefundTransactionScope struct {
	db *gorm.DB
}

// NewGormRefundTransactionScope creates a new GormRefundTransactionScope
func NewGormRefundTransactionScope(db *gorm.DB) *GormRefundTransactionScope {
	return &GormRefundTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormRefundTransactionScope) Execute(ctx context.Context, fn func(repos apprefund.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRefundRepositories{tx: tx})
	})
}

// gormRefundRepositories provides the refund-side repositories scoped to one transaction
type gormRefundRepositories struct {
	tx *gorm.DB
}

// Cards returns the refund card repository scoped to the current transaction
func (r *gormRefundRepositories) Cards() refund.Repository {
	return NewGormRefundCardRepository(r.tx)
}

// Ledger returns the payment ledger scoped to the current transaction
func (r *gormRefundRepositories) Ledger() finance.PaymentTransactionRepository {
	return NewGormPaymentTransactionRepository(r.tx)
}

// Entries returns the accounting entry repository scoped to the current transaction
func (r *gormRefundRepositories) Entries() finance.AccountingEntryRepository {
	return NewGormAccountingEntryRepository(r.tx)
}

// FinancialCards returns the financial card repository scoped to the current transaction
func (r *gormRefundRepositories) FinancialCards() finance.FinancialCardRepository {
	return NewGormFinancialCardRepository(r.tx)
}

// Credits returns the installment plan repository scoped to the current transaction
func (r *gormRefundRepositories) Credits() finance.CreditRepository {
	return NewGormCreditRepository(r.tx)
}

// Ensure GormRefundTransactionScope implements TransactionScope
var _ apprefund.TransactionScope = (*GormRefundTransactionScope)(nil)

// Ensure gormRefundRepositories implements TransactionalRepositories
var _ apprefund.TransactionalRepositories = (*gormRefundRepositories)(nil)
