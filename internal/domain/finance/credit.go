package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// OperationType classifies entries in a credit's financial history
type OperationType string

const (
	OperationPayment        OperationType = "PAYMENT"
	OperationFullPayment    OperationType = "FULL_PAYMENT"
	OperationRefund         OperationType = "REFUND"
	OperationRefundFullPaid OperationType = "REFUND_FULL_PAID"
)

// IsValid checks if the operation type is valid
func (t OperationType) IsValid() bool {
	switch t {
	case OperationPayment, OperationFullPayment, OperationRefund, OperationRefundFullPaid:
		return true
	}
	return false
}

// String returns the string representation of OperationType
func (t OperationType) String() string {
	return string(t)
}

// FinancialOperation is one entry in a credit's ordered history
type FinancialOperation struct {
	ID       uuid.UUID       `json:"id"`
	CreditID uuid.UUID       `json:"credit_id"`
	Type     OperationType   `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
}

// Credit tracks an installment plan for a deal. At most one active credit
// exists per deal. AmountRemaining = AmountTotal - AmountPaid at all times;
// remaining <= 0 freezes the plan as fully paid.
type Credit struct {
	shared.BaseAggregateRoot
	DealID            uuid.UUID
	AmountTotal       decimal.Decimal
	AmountPaid        decimal.Decimal
	AmountRemaining   decimal.Decimal
	AmountLastPayment decimal.Decimal
	Closed            bool
	Operations        []FinancialOperation
}

// NewCredit creates an installment plan for a deal
func NewCredit(dealID uuid.UUID, amountTotal decimal.Decimal) (*Credit, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if amountTotal.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit total must be positive")
	}

	c := &Credit{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DealID:            dealID,
		AmountTotal:       amountTotal,
		AmountPaid:        decimal.Zero,
		AmountRemaining:   amountTotal,
		Operations:        make([]FinancialOperation, 0),
	}

	c.AddDomainEvent(NewCreditOpenedEvent(c))

	return c, nil
}

// RegisterPayment applies an installment payment. When the remaining
// balance reaches zero the operation is recorded as a full payment and the
// plan is frozen.
func (c *Credit) RegisterPayment(amount decimal.Decimal, date time.Time) (*FinancialOperation, error) {
	if c.Closed {
		return nil, shared.NewDomainError("CREDIT_CLOSED", "Credit plan is closed")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	c.AmountPaid = c.AmountPaid.Add(amount)
	c.AmountRemaining = c.AmountTotal.Sub(c.AmountPaid)
	c.AmountLastPayment = amount

	opType := OperationPayment
	if c.AmountRemaining.LessThanOrEqual(decimal.Zero) {
		opType = OperationFullPayment
		c.Closed = true
	}

	op := c.appendOperation(opType, amount, date)
	c.IncrementVersion()

	c.AddDomainEvent(NewCreditPaymentRegisteredEvent(c, op))

	return op, nil
}

// RegisterRefund applies a refund against the plan. A full refund marks the
// history with REFUND_FULL_PAID and freezes the plan.
func (c *Credit) RegisterRefund(amount decimal.Decimal, full bool, date time.Time) (*FinancialOperation, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}

	c.AmountPaid = c.AmountPaid.Sub(amount)
	c.AmountRemaining = c.AmountTotal.Sub(c.AmountPaid)
	c.AmountLastPayment = amount.Neg()

	opType := OperationRefund
	if full {
		opType = OperationRefundFullPaid
		c.Closed = true
	}

	op := c.appendOperation(opType, amount, date)
	c.IncrementVersion()

	return op, nil
}

// Recalculate replaces the plan totals with verified figures from an audit
func (c *Credit) Recalculate(total, paid decimal.Decimal) error {
	if total.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit total must be positive")
	}
	c.AmountTotal = total
	c.AmountPaid = paid
	c.AmountRemaining = total.Sub(paid)
	c.Closed = c.AmountRemaining.LessThanOrEqual(decimal.Zero)
	c.IncrementVersion()
	return nil
}

func (c *Credit) appendOperation(opType OperationType, amount decimal.Decimal, date time.Time) *FinancialOperation {
	if date.IsZero() {
		date = time.Now()
	}
	op := FinancialOperation{
		ID:       uuid.New(),
		CreditID: c.ID,
		Type:     opType,
		Amount:   amount,
		Date:     date,
	}
	c.Operations = append(c.Operations, op)
	c.UpdatedAt = time.Now()
	return &c.Operations[len(c.Operations)-1]
}

// IsFullyPaid reports whether the remaining balance is zero or below
func (c *Credit) IsFullyPaid() bool {
	return c.AmountRemaining.LessThanOrEqual(decimal.Zero)
}

// IsFirstCheckpoint reports whether no installment has been receipted yet
func (c *Credit) IsFirstCheckpoint() bool {
	return len(c.Operations) == 0
}

// LastOperation returns the most recent history entry, nil when empty
func (c *Credit) LastOperation() *FinancialOperation {
	if len(c.Operations) == 0 {
		return nil
	}
	return &c.Operations[len(c.Operations)-1]
}

// HasFullPayment reports whether a full-payment operation exists in history
func (c *Credit) HasFullPayment() bool {
	for i := range c.Operations {
		if c.Operations[i].Type == OperationFullPayment {
			return true
		}
	}
	return false
}

// LastRefundIsFull reports whether the last history entry is a full refund
func (c *Credit) LastRefundIsFull() bool {
	last := c.LastOperation()
	return last != nil && last.Type == OperationRefundFullPaid
}

// NormalizedLastPayment returns the last payment magnitude. Refunds store a
// negative last payment but receipts always show a positive amount; the
// receipt kind carries the sign semantics instead.
func (c *Credit) NormalizedLastPayment() decimal.Decimal {
	return c.AmountLastPayment.Abs()
}

// CreditRepository defines persistence for installment plans
type CreditRepository interface {
	// Save persists a credit and its operations
	Save(ctx context.Context, c *Credit) error
	// FindActiveByDeal returns the active credit for a deal, nil when none
	FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*Credit, error)
	// FindByID retrieves a credit by ID, nil when not found
	FindByID(ctx context.Context, id uuid.UUID) (*Credit, error)
}
