package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// FinancialCardCreatedEvent is raised when a financial card is created
type FinancialCardCreatedEvent struct {
	shared.BaseDomainEvent
	CardID       uuid.UUID       `json:"card_id"`
	DealID       uuid.UUID       `json:"deal_id"`
	Scheme       SchemeWork      `json:"scheme"`
	IsCorrection bool            `json:"is_correction"`
	Result       decimal.Decimal `json:"result"`
}

// EventType returns the event type name
func (e *FinancialCardCreatedEvent) EventType() string {
	return "FinancialCardCreated"
}

// NewFinancialCardCreatedEvent creates a new FinancialCardCreatedEvent
func NewFinancialCardCreatedEvent(fc *FinancialCard) *FinancialCardCreatedEvent {
	return &FinancialCardCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialCardCreated", "FinancialCard", fc.ID),
		CardID:          fc.ID,
		DealID:          fc.DealID,
		Scheme:          fc.Scheme,
		IsCorrection:    fc.IsCorrectionAfterDeal,
		Result:          fc.Price.Result,
	}
}

// CreditOpenedEvent is raised when an installment plan is opened
type CreditOpenedEvent struct {
	shared.BaseDomainEvent
	CreditID    uuid.UUID       `json:"credit_id"`
	DealID      uuid.UUID       `json:"deal_id"`
	AmountTotal decimal.Decimal `json:"amount_total"`
}

// EventType returns the event type name
func (e *CreditOpenedEvent) EventType() string {
	return "CreditOpened"
}

// NewCreditOpenedEvent creates a new CreditOpenedEvent
func NewCreditOpenedEvent(c *Credit) *CreditOpenedEvent {
	return &CreditOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CreditOpened", "Credit", c.ID),
		CreditID:        c.ID,
		DealID:          c.DealID,
		AmountTotal:     c.AmountTotal,
	}
}

// CreditPaymentRegisteredEvent is raised when an installment payment lands
type CreditPaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	CreditID        uuid.UUID       `json:"credit_id"`
	DealID          uuid.UUID       `json:"deal_id"`
	Amount          decimal.Decimal `json:"amount"`
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
	OperationType   OperationType   `json:"operation_type"`
}

// EventType returns the event type name
func (e *CreditPaymentRegisteredEvent) EventType() string {
	return "CreditPaymentRegistered"
}

// NewCreditPaymentRegisteredEvent creates a new CreditPaymentRegisteredEvent
func NewCreditPaymentRegisteredEvent(c *Credit, op *FinancialOperation) *CreditPaymentRegisteredEvent {
	return &CreditPaymentRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CreditPaymentRegistered", "Credit", c.ID),
		CreditID:        c.ID,
		DealID:          c.DealID,
		Amount:          op.Amount,
		AmountRemaining: c.AmountRemaining,
		OperationType:   op.Type,
	}
}
