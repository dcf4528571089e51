package payment

import (
	"context"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to the finance stores.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. The ledger row, the accounting posting, and the outbox
// intent for one payment must land in a single transaction.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the finance repositories
// within a transaction. All repositories share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// Ledger returns the payment ledger scoped to the current transaction
	Ledger() finance.PaymentTransactionRepository
	// Entries returns the accounting entry repository scoped to the current transaction
	Entries() finance.AccountingEntryRepository
	// Outbox returns the outbox repository scoped to the current transaction
	Outbox() shared.OutboxRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests.
type NoOpTransactionScope struct {
	ledger  finance.PaymentTransactionRepository
	entries finance.AccountingEntryRepository
	outbox  shared.OutboxRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	ledger finance.PaymentTransactionRepository,
	entries finance.AccountingEntryRepository,
	outbox shared.OutboxRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{ledger: ledger, entries: entries, outbox: outbox}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Ledger returns the payment ledger
func (s *NoOpTransactionScope) Ledger() finance.PaymentTransactionRepository {
	return s.ledger
}

// Entries returns the accounting entry repository
func (s *NoOpTransactionScope) Entries() finance.AccountingEntryRepository {
	return s.entries
}

// Outbox returns the outbox repository
func (s *NoOpTransactionScope) Outbox() shared.OutboxRepository {
	return s.outbox
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
