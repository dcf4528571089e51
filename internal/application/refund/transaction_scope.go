package refund

import (
	"context"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/refund"
)

// TransactionScope provides transactional access to the refund stores.
// A workflow transition and its side effects commit or roll back as one
// unit, so a card can never advance while its ledger entry is lost.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the refund-side repositories
// within a transaction
type TransactionalRepositories interface {
	// Cards returns the refund card repository scoped to the current transaction
	Cards() refund.Repository
	// Ledger returns the payment ledger scoped to the current transaction
	Ledger() finance.PaymentTransactionRepository
	// Entries returns the accounting entry repository scoped to the current transaction
	Entries() finance.AccountingEntryRepository
	// FinancialCards returns the financial card repository scoped to the current transaction
	FinancialCards() finance.FinancialCardRepository
	// Credits returns the installment plan repository scoped to the current transaction
	Credits() finance.CreditRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests.
type NoOpTransactionScope struct {
	cards    refund.Repository
	ledger   finance.PaymentTransactionRepository
	entries  finance.AccountingEntryRepository
	finCards finance.FinancialCardRepository
	credits  finance.CreditRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	cards refund.Repository,
	ledger finance.PaymentTransactionRepository,
	entries finance.AccountingEntryRepository,
	finCards finance.FinancialCardRepository,
	credits finance.CreditRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{cards: cards, ledger: ledger, entries: entries, finCards: finCards, credits: credits}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Cards returns the refund card repository
func (s *NoOpTransactionScope) Cards() refund.Repository { return s.cards }

// Ledger returns the payment ledger
func (s *NoOpTransactionScope) Ledger() finance.PaymentTransactionRepository { return s.ledger }

// Entries returns the accounting entry repository
func (s *NoOpTransactionScope) Entries() finance.AccountingEntryRepository { return s.entries }

// FinancialCards returns the financial card repository
func (s *NoOpTransactionScope) FinancialCards() finance.FinancialCardRepository { return s.finCards }

// Credits returns the installment plan repository
func (s *NoOpTransactionScope) Credits() finance.CreditRepository { return s.credits }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
