package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// PaymentType distinguishes ledger directions
type PaymentType string

const (
	PaymentTypeIncoming PaymentType = "INCOMING"
	PaymentTypeRefund   PaymentType = "REFUND"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeIncoming || t == PaymentTypeRefund
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

// PaymentStatus represents the status of a ledger entry
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusError   PaymentStatus = "ERROR"
)

// IsValid checks if the status is valid
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusPending || s == PaymentStatusError
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentTransaction is an immutable ledger entry. Corrections never mutate
// an existing row; they append a new one. Seq is assigned by the store and
// is the only ordering signal for "last payment" queries.
type PaymentTransaction struct {
	shared.BaseEntity
	Seq            int64
	DealID         uuid.UUID
	Type           PaymentType
	Status         PaymentStatus
	Amount         decimal.Decimal
	PointAmount    decimal.Decimal
	PaymentByPoint bool
	CurrencyCode   string
	Date           time.Time
}

// NewPaymentTransaction creates a cash ledger entry
func NewPaymentTransaction(dealID uuid.UUID, pType PaymentType, status PaymentStatus, amount decimal.Decimal, date time.Time) (*PaymentTransaction, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if !pType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Payment type is not valid")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_STATUS", "Payment status is not valid")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if date.IsZero() {
		date = time.Now()
	}

	return &PaymentTransaction{
		BaseEntity: shared.NewBaseEntity(),
		DealID:     dealID,
		Type:       pType,
		Status:     status,
		Amount:     amount,
		Date:       date,
	}, nil
}

// NewPointPaymentTransaction creates a point-funded ledger entry. The cash
// amount is the point amount converted at the program rate; the currency
// code identifies the loyalty program.
func NewPointPaymentTransaction(dealID uuid.UUID, pType PaymentType, amount, pointAmount decimal.Decimal, currencyCode string, date time.Time) (*PaymentTransaction, error) {
	t, err := NewPaymentTransaction(dealID, pType, PaymentStatusSuccess, amount, date)
	if err != nil {
		return nil, err
	}
	if pointAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Point amount must be positive")
	}
	if currencyCode == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Loyalty program code is required for point payments")
	}
	t.PointAmount = pointAmount
	t.PaymentByPoint = true
	t.CurrencyCode = currencyCode
	return t, nil
}

// PaymentTransactionRepository defines the append-only ledger store
type PaymentTransactionRepository interface {
	// Append persists a new ledger entry; entries are never updated
	Append(ctx context.Context, t *PaymentTransaction) error
	// SumIncoming sums SUCCESS INCOMING amounts for a deal
	SumIncoming(ctx context.Context, dealID uuid.UUID) (decimal.Decimal, error)
	// LastPointPayment returns the latest SUCCESS point-funded entry,
	// ordered by descending sequence; nil when none exists
	LastPointPayment(ctx context.Context, dealID uuid.UUID) (*PaymentTransaction, error)
	// FindSuccessIncomingSince lists SUCCESS INCOMING entries dated on or
	// after the given time
	FindSuccessIncomingSince(ctx context.Context, dealID uuid.UUID, since time.Time) ([]*PaymentTransaction, error)
	// HasPointPayments reports whether the deal has any SUCCESS point entries
	HasPointPayments(ctx context.Context, dealID uuid.UUID) (bool, error)
	// FindByID retrieves a ledger entry by ID; nil when not found
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentTransaction, error)
}
