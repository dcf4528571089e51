package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// SchemeWork classifies the commercial role of the agency in a deal
type SchemeWork string

const (
	SchemeSRSupplierAgent   SchemeWork = "SR_SUPPLIER_AGENT"
	SchemeLRSupplierAgent   SchemeWork = "LR_SUPPLIER_AGENT"
	SchemeBuyerAgent        SchemeWork = "BUYER_AGENT"
	SchemeProvisionServices SchemeWork = "PROVISION_SERVICES"
	SchemeRSTLSServiceFee   SchemeWork = "RS_TLS_SERVICE_FEE"
)

// IsValid checks if the scheme is a known value
func (s SchemeWork) IsValid() bool {
	switch s {
	case SchemeSRSupplierAgent, SchemeLRSupplierAgent, SchemeBuyerAgent,
		SchemeProvisionServices, SchemeRSTLSServiceFee:
		return true
	}
	return false
}

// String returns the string representation of SchemeWork
func (s SchemeWork) String() string {
	return string(s)
}

// IsSupplierAgent reports whether the agency acts for the supplier.
// These schemes never receive a supplier service-act posting.
func (s SchemeWork) IsSupplierAgent() bool {
	switch s {
	case SchemeSRSupplierAgent, SchemeLRSupplierAgent, SchemeRSTLSServiceFee:
		return true
	}
	return false
}

// IsMomentary reports whether the scheme itself forces immediate receipting
func (s SchemeWork) IsMomentary() bool {
	return s == SchemeLRSupplierAgent || s == SchemeRSTLSServiceFee
}

// RequiresSupplierIdentity reports whether a receipt for this scheme must
// carry the supplier's tax ID and legal name
func (s SchemeWork) RequiresSupplierIdentity() bool {
	switch s {
	case SchemeSRSupplierAgent, SchemeLRSupplierAgent, SchemeBuyerAgent:
		return true
	}
	return false
}

// ForeignSupplierINN is substituted for suppliers without a domestic tax ID
const ForeignSupplierINN = "000000000000"

// PriceBreakdown holds the monetary structure of a financial card. Each cash
// field has an optional currency-denominated twin; the twins only carry
// meaning when HasCurrency is set.
type PriceBreakdown struct {
	Supplier            decimal.Decimal
	Service             decimal.Decimal
	SupplierPenalty     decimal.Decimal
	SupplierReplacement decimal.Decimal
	RSTLSPenalty        decimal.Decimal
	Result              decimal.Decimal

	SupplierCurrency            decimal.Decimal
	ServiceCurrency             decimal.Decimal
	SupplierPenaltyCurrency     decimal.Decimal
	SupplierReplacementCurrency decimal.Decimal
	RSTLSPenaltyCurrency        decimal.Decimal
	ResultCurrency              decimal.Decimal

	HasCurrency bool
}

// ApplyRate converts the currency twins into cash using a rate snapshot.
// The snapshot must be resolved once per receipt-construction pass; the
// same multiplier has to apply to every field of a single receipt.
func (p PriceBreakdown) ApplyRate(rate RateSnapshot) PriceBreakdown {
	if !p.HasCurrency {
		return p
	}
	m := rate.Multiplier()
	out := p
	out.Supplier = p.SupplierCurrency.Mul(m)
	out.Service = p.ServiceCurrency.Mul(m)
	out.SupplierPenalty = p.SupplierPenaltyCurrency.Mul(m)
	out.SupplierReplacement = p.SupplierReplacementCurrency.Mul(m)
	out.RSTLSPenalty = p.RSTLSPenaltyCurrency.Mul(m)
	out.Result = p.ResultCurrency.Mul(m)
	return out
}

// DeltaFrom computes a correction breakdown against the predecessor card.
// Monetary fields become current minus previous; penalty fields are not
// deltas and pass through verbatim.
func (p PriceBreakdown) DeltaFrom(prev PriceBreakdown) PriceBreakdown {
	out := p
	out.Supplier = p.Supplier.Sub(prev.Supplier)
	out.Service = p.Service.Sub(prev.Service)
	out.Result = p.Result.Sub(prev.Result)
	out.SupplierPenalty = p.SupplierPenalty
	out.SupplierReplacement = p.SupplierReplacement
	out.RSTLSPenalty = p.RSTLSPenalty
	if p.HasCurrency {
		out.SupplierCurrency = p.SupplierCurrency.Sub(prev.SupplierCurrency)
		out.ServiceCurrency = p.ServiceCurrency.Sub(prev.ServiceCurrency)
		out.ResultCurrency = p.ResultCurrency.Sub(prev.ResultCurrency)
		out.SupplierPenaltyCurrency = p.SupplierPenaltyCurrency
		out.SupplierReplacementCurrency = p.SupplierReplacementCurrency
		out.RSTLSPenaltyCurrency = p.RSTLSPenaltyCurrency
	}
	return out
}

// RateSnapshot is a deal-scoped currency conversion snapshot
type RateSnapshot struct {
	AverageRate decimal.Decimal
	RateCount   decimal.Decimal
}

// Multiplier returns averageRate * rateCount
func (r RateSnapshot) Multiplier() decimal.Decimal {
	return r.AverageRate.Mul(r.RateCount)
}

// RateProvider resolves the conversion snapshot for a deal
type RateProvider interface {
	SnapshotForDeal(ctx context.Context, dealID uuid.UUID) (RateSnapshot, error)
}

// DebtProvider returns the signed remaining balance of a deal.
// Positive means the client still owes money.
type DebtProvider interface {
	AmountDebt(ctx context.Context, dealID uuid.UUID) (decimal.Decimal, error)
}

// FinancialCard describes how a deal's price is structured and which
// accounting scheme governs it. At most one non-superseded card exists per
// deal; a correction card supersedes its predecessor and its breakdown is
// interpreted as a delta against it.
type FinancialCard struct {
	shared.BaseAggregateRoot
	DealID                uuid.UUID
	Scheme                SchemeWork
	IsCorrectionAfterDeal bool
	Superseded            bool
	PredecessorID         *uuid.UUID
	Price                 PriceBreakdown
	SupplierVat           string
	SupplierINN           string
	SupplierName          string
}

// NewFinancialCard creates a financial card for a deal
func NewFinancialCard(dealID uuid.UUID, scheme SchemeWork, price PriceBreakdown) (*FinancialCard, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if !scheme.IsValid() {
		return nil, shared.NewDomainError("INVALID_SCHEME", "Scheme work is not valid")
	}

	fc := &FinancialCard{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DealID:            dealID,
		Scheme:            scheme,
		Price:             price,
	}

	fc.AddDomainEvent(NewFinancialCardCreatedEvent(fc))

	return fc, nil
}

// NewCorrectionCard creates a correction card superseding the given one.
// The predecessor is marked superseded; the correction keeps the scheme.
func NewCorrectionCard(prev *FinancialCard, price PriceBreakdown) (*FinancialCard, error) {
	if prev == nil {
		return nil, shared.NewDomainError("INVALID_CARD", "Predecessor card is required for a correction")
	}
	if prev.Superseded {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot correct a card that is already superseded")
	}

	fc, err := NewFinancialCard(prev.DealID, prev.Scheme, price)
	if err != nil {
		return nil, err
	}
	fc.IsCorrectionAfterDeal = true
	prevID := prev.ID
	fc.PredecessorID = &prevID
	fc.SupplierVat = prev.SupplierVat
	fc.SupplierINN = prev.SupplierINN
	fc.SupplierName = prev.SupplierName

	prev.Superseded = true
	prev.IncrementVersion()

	return fc, nil
}

// SetSupplierIdentity records the supplier's legal identity on the card.
// Foreign suppliers without a domestic tax ID receive the substitute INN.
func (fc *FinancialCard) SetSupplierIdentity(inn, name string, foreign bool) error {
	if name == "" {
		return shared.ErrMissingCounterparty
	}
	if inn == "" {
		if !foreign {
			return shared.ErrMissingCounterparty
		}
		inn = ForeignSupplierINN
	}
	fc.SupplierINN = inn
	fc.SupplierName = name
	fc.IncrementVersion()
	return nil
}

// HasSupplierIdentity reports whether both INN and name are present
func (fc *FinancialCard) HasSupplierIdentity() bool {
	return fc.SupplierINN != "" && fc.SupplierName != ""
}
