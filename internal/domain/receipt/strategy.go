package receipt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/deal"
	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// Kind is the fiscal receipt classification derived from the card scheme
type Kind string

const (
	KindAgentSupplierSR Kind = "AGENT_SUPPLIER_SR"
	KindAgentSupplierLR Kind = "AGENT_SUPPLIER_LR"
	KindAgentBuyer      Kind = "AGENT_BUYER"
	KindService         Kind = "SERVICE"
	KindServiceRSTLS    Kind = "SERVICE_RS_TLS"
)

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// StrategyType names the receipt-content strategy selected for an event
type StrategyType string

const (
	StrategyFullPayment          StrategyType = "FULL_PAYMENT"
	StrategyPrepayment           StrategyType = "PREPAYMENT"
	StrategyCredit               StrategyType = "CREDIT"
	StrategyCreditTransfer       StrategyType = "CREDIT_TRANSFER"
	StrategyCreditFull           StrategyType = "CREDIT_FULL"
	StrategyCreditRefund         StrategyType = "CREDIT_REFUND"
	StrategyCreditRefundFull     StrategyType = "CREDIT_REFUND_FULL"
	StrategyCreditRefundTransfer StrategyType = "CREDIT_REFUND_TRANSFER"
	StrategyRefund               StrategyType = "REFUND"
	StrategyRefundAdvance        StrategyType = "REFUND_ADVANCE"
)

// String returns the string representation of StrategyType
func (t StrategyType) String() string {
	return string(t)
}

// IsCreditSeries reports whether the strategy uses installment wording
func (t StrategyType) IsCreditSeries() bool {
	switch t {
	case StrategyCredit, StrategyCreditTransfer, StrategyCreditFull,
		StrategyCreditRefund, StrategyCreditRefundFull, StrategyCreditRefundTransfer:
		return true
	}
	return false
}

// IsRefundSide reports whether the strategy produces a RETURN receipt
func (t StrategyType) IsRefundSide() bool {
	switch t {
	case StrategyCreditRefund, StrategyCreditRefundFull,
		StrategyCreditRefundTransfer, StrategyRefund, StrategyRefundAdvance:
		return true
	}
	return false
}

// Options is the scheme-specific field mapping that feeds the fiscal
// request payload
type Options struct {
	DealID              uuid.UUID
	ProductAmount       decimal.Decimal
	ServiceFeeAmount    decimal.Decimal
	SupplierPenalty     decimal.Decimal
	SupplierReplacement decimal.Decimal
	RSTLSPenalty        decimal.Decimal
	TotalAmount         decimal.Decimal
	SupplierINN         string
	SupplierName        string
	SupplierVat         string
	PointAmount         decimal.Decimal
	ProgramCode         string
}

// Strategy is the finalized receipt-content decision. It is a value: once
// built it never mutates, so a partially initialized strategy can never
// reach receipt creation.
type Strategy struct {
	Type             StrategyType
	Kind             Kind
	ReceiptType      Type
	Options          Options
	PreCreditAdvance decimal.Decimal
	PartialCredit    decimal.Decimal
	// Printed requests paper delivery; the default is an electronic receipt
	Printed bool
	Preview bool
}

// Builder accumulates strategy fields and produces an immutable Strategy.
// Each With method returns a copy; Build validates the result.
type Builder struct {
	s Strategy
}

// NewBuilder starts a strategy for the given type and scheme kind
func NewBuilder(t StrategyType, kind Kind) Builder {
	rt := TypeIncome
	if t.IsRefundSide() {
		rt = TypeReturn
	}
	return Builder{s: Strategy{Type: t, Kind: kind, ReceiptType: rt}}
}

// WithOptions sets the scheme field mapping
func (b Builder) WithOptions(o Options) Builder {
	b.s.Options = o
	return b
}

// WithCreditAmounts decorates a credit-series strategy with the paid-to-date
// advance and the last installment amount
func (b Builder) WithCreditAmounts(advance, lastPayment decimal.Decimal) Builder {
	b.s.PreCreditAdvance = advance
	b.s.PartialCredit = lastPayment
	return b
}

// WithDelivery selects paper or electronic delivery
func (b Builder) WithDelivery(printed bool) Builder {
	b.s.Printed = printed
	return b
}

// AsPreview marks the strategy as a read-only estimate
func (b Builder) AsPreview() Builder {
	b.s.Preview = true
	return b
}

// Build validates and finalizes the strategy
func (b Builder) Build() (Strategy, error) {
	if b.s.Type == "" || b.s.Kind == "" {
		return Strategy{}, shared.NewDomainError("INVALID_STRATEGY", "Strategy type and kind are required")
	}
	if b.s.Options.DealID == uuid.Nil {
		return Strategy{}, shared.NewDomainError("INVALID_STRATEGY", "Strategy options must reference a deal")
	}
	return b.s, nil
}

// PaymentTiming decides whether the payment is receipted now or deferred.
// Momentary product lines and momentary schemes are always FULL_PAYMENT;
// otherwise the service must have started.
func PaymentTiming(category deal.Category, scheme finance.SchemeWork, serviceStart, now time.Time) StrategyType {
	if category.IsMomentary() || scheme.IsMomentary() {
		return StrategyFullPayment
	}
	if !now.Before(serviceStart) {
		return StrategyFullPayment
	}
	return StrategyPrepayment
}

// PartialOverride detects a short payment. Comparison rounds both sides to
// whole currency units so sub-unit drift never triggers a false partial
// branch. Returns the credit-style override and true when paid != price.
func PartialOverride(paid, price decimal.Decimal) (StrategyType, bool) {
	if paid.Round(0).Equal(price.Round(0)) {
		return "", false
	}
	if paid.IsZero() {
		return StrategyCreditTransfer, true
	}
	return StrategyCredit, true
}

// CreditCheckpoint classifies an installment payment against the plan
func CreditCheckpoint(c *finance.Credit) StrategyType {
	if c.IsFirstCheckpoint() && c.AmountPaid.IsZero() {
		return StrategyCreditTransfer
	}
	if c.AmountRemaining.GreaterThan(decimal.Zero) {
		return StrategyCredit
	}
	return StrategyCreditFull
}

// CreditRefundCheckpoint classifies a refund against the plan. Point-funded
// refunds use the transfer variant; a plan that reached full payment, or
// whose last operation is a full refund, gets the full-refund wording.
func CreditRefundCheckpoint(c *finance.Credit, pointFunded bool) StrategyType {
	if pointFunded {
		return StrategyCreditRefundTransfer
	}
	if c.HasFullPayment() || c.LastRefundIsFull() {
		return StrategyCreditRefundFull
	}
	return StrategyCreditRefund
}
