package persistence

import (
	"context"

	"gorm.io/gorm"

	apppayment "github.com/travelcrm/backend/internal/application/payment"
	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// GormPaymentTransactionScope implements the payment TransactionScope using
// GORM transactions. The ledger row, the accounting posting, and the outbox
// intent of one payment commit or roll back together.
type GormPaymentTransactionScope struct {
	db *gorm.DB
}

// NewGormPaymentTransactionScope creates a new GormPaymentTransactionScope
func NewGormPaymentTransactionScope(db *gorm.DB) *GormPaymentTransactionScope {
	return &GormPaymentTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormPaymentTransactionScope) Execute(ctx context.Context, fn func(repos apppayment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormPaymentRepositories{tx: tx})
	})
}

// gormPaymentRepositories provides the finance repositories scoped to one transaction
type gormPaymentRepositories struct {
	tx *gorm.DB
}

// Ledger returns the payment ledger scoped to the current transaction
func (r *gormPaymentRepositories) Ledger() finance.PaymentTransactionRepository {
	return NewGormPaymentTransactionRepository(r.tx)
}

// Entries returns the accounting entry repository scoped to the current transaction
func (r *gormPaymentRepositories) Entries() finance.AccountingEntryRepository {
	return NewGormAccountingEntryRepository(r.tx)
}

// Outbox returns the outbox repository scoped to the current transaction
func (r *gormPaymentRepositories) Outbox() shared.OutboxRepository {
	return NewGormOutboxRepository(r.tx)
}

// Ensure GormPaymentTransactionScope implements TransactionScope
var _ apppayment.TransactionScope = (*GormPaymentTransactionScope)(nil)

// Ensure gormPaymentRepositories implements TransactionalRepositories
var _ apppayment.TransactionalRepositories = (*gormPaymentRepositories)(nil)
