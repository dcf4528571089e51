package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// EntryType identifies a bookkeeping posting
type EntryType string

const (
	EntryRefundRealization  EntryType = "REFUND_REALIZATION"
	EntryRefundIncome       EntryType = "REFUND_INCOME"
	EntryServiceActBuyer    EntryType = "SERVICE_ACT_BUYER"
	EntryServiceActSupplier EntryType = "SERVICE_ACT_SUPPLIER"
	EntryPointPayment       EntryType = "POINT_PAYMENT"
	EntryPointRefund        EntryType = "POINT_REFUND"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	switch t {
	case EntryRefundRealization, EntryRefundIncome, EntryServiceActBuyer,
		EntryServiceActSupplier, EntryPointPayment, EntryPointRefund:
		return true
	}
	return false
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// AccountingEntry is both a ledger posting and its own idempotency marker:
// at most one entry exists per (dealId, entryType) pair, and the existence
// check gates creation inside the same transaction.
type AccountingEntry struct {
	shared.BaseEntity
	DealID    uuid.UUID
	Type      EntryType
	PaymentID *uuid.UUID
	Amount    decimal.Decimal
	PostedAt  time.Time
}

// NewAccountingEntry creates a bookkeeping posting
func NewAccountingEntry(dealID uuid.UUID, entryType EntryType, amount decimal.Decimal) (*AccountingEntry, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Accounting entry type is not valid")
	}

	return &AccountingEntry{
		BaseEntity: shared.NewBaseEntity(),
		DealID:     dealID,
		Type:       entryType,
		Amount:     amount,
		PostedAt:   time.Now(),
	}, nil
}

// AccountingEntryRepository defines persistence for postings
type AccountingEntryRepository interface {
	// Create persists a posting
	Create(ctx context.Context, e *AccountingEntry) error
	// Exists reports whether a posting already exists for (dealId, entryType)
	Exists(ctx context.Context, dealID uuid.UUID, entryType EntryType) (bool, error)
}

// FinancialCardRepository defines persistence for financial cards
type FinancialCardRepository interface {
	// Save persists a card
	Save(ctx context.Context, fc *FinancialCard) error
	// FindActiveByDeal returns the non-superseded card for a deal, nil when none
	FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*FinancialCard, error)
	// FindByID retrieves a card by ID, nil when not found
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialCard, error)
}
