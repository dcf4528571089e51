package receipt

import (
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// OptionsBuilder maps a financial card's price breakdown into the
// scheme-specific receipt field layout
type OptionsBuilder func(fc *finance.FinancialCard, price finance.PriceBreakdown) (Options, error)

// kindByScheme and buildersByScheme key dispatch on the scheme enum, so an
// unmapped scheme fails closed instead of falling through to a default.
var kindByScheme = map[finance.SchemeWork]Kind{
	finance.SchemeSRSupplierAgent:   KindAgentSupplierSR,
	finance.SchemeLRSupplierAgent:   KindAgentSupplierLR,
	finance.SchemeBuyerAgent:        KindAgentBuyer,
	finance.SchemeProvisionServices: KindService,
	finance.SchemeRSTLSServiceFee:   KindServiceRSTLS,
}

var buildersByScheme = map[finance.SchemeWork]OptionsBuilder{
	finance.SchemeSRSupplierAgent:   buildAgentOptions,
	finance.SchemeLRSupplierAgent:   buildAgentOptions,
	finance.SchemeBuyerAgent:        buildAgentOptions,
	finance.SchemeProvisionServices: buildServiceOptions,
	finance.SchemeRSTLSServiceFee:   buildRSTLSOptions,
}

// KindForScheme resolves the receipt kind for a card scheme
func KindForScheme(scheme finance.SchemeWork) (Kind, error) {
	k, ok := kindByScheme[scheme]
	if !ok {
		return "", shared.ErrUnknownScheme
	}
	return k, nil
}

// BuildOptions produces the receipt field mapping for a financial card.
// The price breakdown is passed separately so corrections can supply a
// delta breakdown while the card keeps its absolute figures.
func BuildOptions(fc *finance.FinancialCard, price finance.PriceBreakdown) (Options, error) {
	builder, ok := buildersByScheme[fc.Scheme]
	if !ok {
		return Options{}, shared.ErrUnknownScheme
	}
	return builder(fc, price)
}

// buildAgentOptions covers the three agent schemes. The receipt itemizes the
// supplier's product line under the supplier's own identity plus the agency
// service fee, so the supplier INN and name are mandatory.
func buildAgentOptions(fc *finance.FinancialCard, price finance.PriceBreakdown) (Options, error) {
	if !fc.HasSupplierIdentity() {
		return Options{}, shared.ErrMissingCounterparty
	}
	return Options{
		DealID:              fc.DealID,
		ProductAmount:       price.Supplier,
		ServiceFeeAmount:    price.Service,
		SupplierPenalty:     price.SupplierPenalty,
		SupplierReplacement: price.SupplierReplacement,
		TotalAmount:         price.Result,
		SupplierINN:         fc.SupplierINN,
		SupplierName:        fc.SupplierName,
		SupplierVat:         fc.SupplierVat,
	}, nil
}

// buildServiceOptions covers own-service deals. Everything is sold under the
// agency's own identity as a single service line.
func buildServiceOptions(fc *finance.FinancialCard, price finance.PriceBreakdown) (Options, error) {
	return Options{
		DealID:              fc.DealID,
		ProductAmount:       decimal.Zero,
		ServiceFeeAmount:    price.Result,
		SupplierPenalty:     price.SupplierPenalty,
		SupplierReplacement: price.SupplierReplacement,
		TotalAmount:         price.Result,
	}, nil
}

// buildRSTLSOptions covers the ticket service-fee scheme, which carries its
// own penalty field on top of the service fee line.
func buildRSTLSOptions(fc *finance.FinancialCard, price finance.PriceBreakdown) (Options, error) {
	return Options{
		DealID:           fc.DealID,
		ProductAmount:    price.Supplier,
		ServiceFeeAmount: price.Service,
		RSTLSPenalty:     price.RSTLSPenalty,
		TotalAmount:      price.Result,
	}, nil
}
