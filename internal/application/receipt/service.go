package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/domain/deal"
	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/receipt"
	"github.com/travelcrm/backend/internal/domain/refund"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// Service selects the receipt strategy for payment and refund events and
// hands the finished strategy to the manager for issuance
type Service struct {
	dealStore   deal.Store
	cardRepo    finance.FinancialCardRepository
	ledger      finance.PaymentTransactionRepository
	creditRepo  finance.CreditRepository
	refundRepo  refund.Repository
	receiptRepo receipt.Repository
	rates       finance.RateProvider
	deferrer    Deferrer
	manager     *Manager
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a receipt service
func NewService(
	dealStore deal.Store,
	cardRepo finance.FinancialCardRepository,
	ledger finance.PaymentTransactionRepository,
	creditRepo finance.CreditRepository,
	refundRepo refund.Repository,
	receiptRepo receipt.Repository,
	rates finance.RateProvider,
	deferrer Deferrer,
	manager *Manager,
	logger *zap.Logger,
) *Service {
	return &Service{
		dealStore:   dealStore,
		cardRepo:    cardRepo,
		ledger:      ledger,
		creditRepo:  creditRepo,
		refundRepo:  refundRepo,
		receiptRepo: receiptRepo,
		rates:       rates,
		deferrer:    deferrer,
		manager:     manager,
		logger:      logger,
		now:         time.Now,
	}
}

// deferredPushPayload is the stored argument for a delayed receipt job
type deferredPushPayload struct {
	PaymentID uuid.UUID `json:"payment_id"`
}

// HandlePayment receipts an incoming payment. A payment on a not-yet-started
// non-momentary service is deferred to the service start; everything else is
// receipted immediately with the strategy the deal state dictates.
func (s *Service) HandlePayment(ctx context.Context, paymentID uuid.UUID) (*receipt.Receipt, error) {
	tx, err := s.ledger.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if tx == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment transaction not found")
	}
	if tx.Type != finance.PaymentTypeIncoming || tx.Status != finance.PaymentStatusSuccess {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Only successful incoming payments are receipted")
	}

	d, fc, err := s.loadDealContext(ctx, tx.DealID)
	if err != nil {
		return nil, err
	}

	price, skip, err := s.resolvePrice(ctx, fc)
	if err != nil {
		return nil, err
	}
	if skip {
		s.logger.Info("correction carries no monetary change, receipt skipped",
			zap.String("deal_id", d.ID.String()))
		return nil, nil
	}

	timing := receipt.PaymentTiming(d.Category, fc.Scheme, d.ServiceStart, s.now())
	if timing == receipt.StrategyPrepayment {
		payload, err := json.Marshal(deferredPushPayload{PaymentID: tx.ID})
		if err != nil {
			return nil, err
		}
		if err := s.deferrer.Defer(ctx, d.ID, JobKindReceiptPush, d.ServiceStart, payload); err != nil {
			return nil, fmt.Errorf("failed to defer receipt: %w", err)
		}
		s.logger.Info("receipt deferred to service start",
			zap.String("deal_id", d.ID.String()),
			zap.Time("run_at", d.ServiceStart))
		return nil, nil
	}

	sType, advance, last, err := s.classifyPayment(ctx, tx, price)
	if err != nil {
		return nil, err
	}

	strategy, err := s.buildStrategy(sType, fc, price, tx, advance, last, false)
	if err != nil {
		return nil, err
	}

	return s.manager.Issue(ctx, tx.ID, strategy)
}

// HandleRefund issues the return-side receipt for a refund ledger entry.
// full marks the refund as returning everything the client paid.
func (s *Service) HandleRefund(ctx context.Context, paymentID uuid.UUID, full bool) (*receipt.Receipt, error) {
	tx, err := s.ledger.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund payment: %w", err)
	}
	if tx == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment transaction not found")
	}
	if tx.Type != finance.PaymentTypeRefund {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Refund receipts require a refund ledger entry")
	}

	d, fc, err := s.loadDealContext(ctx, tx.DealID)
	if err != nil {
		return nil, err
	}

	price, _, err := s.resolvePrice(ctx, fc)
	if err != nil {
		return nil, err
	}

	rc, err := s.refundRepo.FindActiveByDeal(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	pointFunded := tx.PaymentByPoint || (rc != nil && rc.IsPointFunded())

	var sType receipt.StrategyType
	var advance, last decimal.Decimal

	credit, err := s.creditRepo.FindActiveByDeal(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if credit != nil {
		if _, err := credit.RegisterRefund(tx.Amount, full, tx.Date); err != nil {
			return nil, err
		}
		if err := s.creditRepo.Save(ctx, credit); err != nil {
			return nil, err
		}
		sType = receipt.CreditRefundCheckpoint(credit, pointFunded)
		advance = credit.AmountPaid
		last = credit.NormalizedLastPayment()
	} else {
		sType, err = s.refundStrategy(ctx, d)
		if err != nil {
			return nil, err
		}
	}

	strategy, err := s.buildRefundStrategy(sType, fc, price, tx, advance, last, rc)
	if err != nil {
		return nil, err
	}

	return s.manager.Issue(ctx, tx.ID, strategy)
}

// refundStrategy picks the refund wording from the deal's receipt history.
// A deal whose last receipt was an advance returns the advance; a deal with
// a settled receipt returns the final payment. Without history the service
// start decides.
func (s *Service) refundStrategy(ctx context.Context, d *deal.Deal) (receipt.StrategyType, error) {
	lastReceipt, err := s.receiptRepo.FindLastByDeal(ctx, d.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load receipt history: %w", err)
	}
	if lastReceipt != nil {
		if lastReceipt.StrategyType == receipt.StrategyPrepayment {
			return receipt.StrategyRefundAdvance, nil
		}
		return receipt.StrategyRefund, nil
	}
	if d.ServiceStarted(s.now()) {
		return receipt.StrategyRefund, nil
	}
	return receipt.StrategyRefundAdvance, nil
}

// buildRefundStrategy assembles the return-side strategy. An advance refund
// carries the money actually held rather than the card breakdown, and an
// invoice-direction refund card switches the receipt to paper delivery.
func (s *Service) buildRefundStrategy(sType receipt.StrategyType, fc *finance.FinancialCard, price finance.PriceBreakdown, tx *finance.PaymentTransaction, advance, last decimal.Decimal, rc *refund.RefundCard) (receipt.Strategy, error) {
	opts, err := receipt.BuildOptions(fc, price)
	if err != nil {
		return receipt.Strategy{}, err
	}
	if tx.PaymentByPoint {
		opts.PointAmount = tx.PointAmount
		opts.ProgramCode = tx.CurrencyCode
	}
	if sType == receipt.StrategyRefundAdvance {
		opts.ProductAmount = tx.Amount
		opts.ServiceFeeAmount = decimal.Zero
		opts.TotalAmount = tx.Amount
	}

	b := receipt.NewBuilder(sType, mustKind(fc.Scheme)).WithOptions(opts)
	if sType.IsCreditSeries() {
		b = b.WithCreditAmounts(advance, last)
	}
	if rc != nil && rc.DirectionType == refund.DirectionInvoice {
		b = b.WithDelivery(true)
	}
	return b.Build()
}

// Preview computes the strategy the next payment on a deal would receive.
// It reads the current state only; nothing is persisted or mutated.
func (s *Service) Preview(ctx context.Context, dealID uuid.UUID) (receipt.Strategy, error) {
	d, fc, err := s.loadDealContext(ctx, dealID)
	if err != nil {
		return receipt.Strategy{}, err
	}

	price, _, err := s.resolvePrice(ctx, fc)
	if err != nil {
		return receipt.Strategy{}, err
	}

	sType := receipt.PaymentTiming(d.Category, fc.Scheme, d.ServiceStart, s.now())
	var advance, last decimal.Decimal

	if sType == receipt.StrategyFullPayment {
		credit, err := s.creditRepo.FindActiveByDeal(ctx, dealID)
		if err != nil {
			return receipt.Strategy{}, err
		}
		if credit != nil {
			sType = receipt.CreditCheckpoint(credit)
			advance = credit.AmountPaid
			last = credit.NormalizedLastPayment()
		} else {
			paid, err := s.ledger.SumIncoming(ctx, dealID)
			if err != nil {
				return receipt.Strategy{}, err
			}
			if override, ok := receipt.PartialOverride(paid, price.Result); ok {
				sType = override
			}
		}
	}

	opts, err := receipt.BuildOptions(fc, price)
	if err != nil {
		return receipt.Strategy{}, err
	}

	b := receipt.NewBuilder(sType, mustKind(fc.Scheme)).WithOptions(opts).AsPreview()
	if sType.IsCreditSeries() {
		b = b.WithCreditAmounts(advance, last)
	}
	return b.Build()
}

// HandleDeferredPush is the scheduler entry point for delayed receipts
func (s *Service) HandleDeferredPush(ctx context.Context, payload []byte) error {
	var p deferredPushPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to decode deferred push payload: %w", err)
	}
	_, err := s.HandlePayment(ctx, p.PaymentID)
	return err
}

// classifyPayment applies the installment logic for an immediate receipt.
// An existing plan absorbs the payment as its next installment; without one,
// a short payment opens a plan seeded with the amounts paid so far.
func (s *Service) classifyPayment(ctx context.Context, tx *finance.PaymentTransaction, price finance.PriceBreakdown) (receipt.StrategyType, decimal.Decimal, decimal.Decimal, error) {
	credit, err := s.creditRepo.FindActiveByDeal(ctx, tx.DealID)
	if err != nil {
		return "", decimal.Zero, decimal.Zero, err
	}

	if credit != nil {
		if _, err := credit.RegisterPayment(tx.Amount, tx.Date); err != nil {
			return "", decimal.Zero, decimal.Zero, err
		}
		if err := s.creditRepo.Save(ctx, credit); err != nil {
			return "", decimal.Zero, decimal.Zero, err
		}
		sType := receipt.CreditCheckpoint(credit)
		last := credit.NormalizedLastPayment()
		return sType, credit.AmountPaid.Sub(last), last, nil
	}

	paid, err := s.ledger.SumIncoming(ctx, tx.DealID)
	if err != nil {
		return "", decimal.Zero, decimal.Zero, err
	}

	override, ok := receipt.PartialOverride(paid, price.Result)
	if !ok {
		return receipt.StrategyFullPayment, decimal.Zero, decimal.Zero, nil
	}
	if override == receipt.StrategyCreditTransfer {
		return override, decimal.Zero, decimal.Zero, nil
	}

	credit, err = finance.NewCredit(tx.DealID, price.Result)
	if err != nil {
		return "", decimal.Zero, decimal.Zero, err
	}
	// Earlier payments predate the plan; they count as the already-paid
	// baseline and this payment becomes the first installment.
	if before := paid.Sub(tx.Amount); before.GreaterThan(decimal.Zero) {
		if err := credit.Recalculate(price.Result, before); err != nil {
			return "", decimal.Zero, decimal.Zero, err
		}
	}
	if _, err := credit.RegisterPayment(tx.Amount, tx.Date); err != nil {
		return "", decimal.Zero, decimal.Zero, err
	}
	if err := s.creditRepo.Save(ctx, credit); err != nil {
		return "", decimal.Zero, decimal.Zero, err
	}

	sType := receipt.CreditCheckpoint(credit)
	last := credit.NormalizedLastPayment()
	return sType, credit.AmountPaid.Sub(last), last, nil
}

func (s *Service) buildStrategy(sType receipt.StrategyType, fc *finance.FinancialCard, price finance.PriceBreakdown, tx *finance.PaymentTransaction, advance, last decimal.Decimal, preview bool) (receipt.Strategy, error) {
	opts, err := receipt.BuildOptions(fc, price)
	if err != nil {
		return receipt.Strategy{}, err
	}
	if tx != nil && tx.PaymentByPoint {
		opts.PointAmount = tx.PointAmount
		opts.ProgramCode = tx.CurrencyCode
	}

	b := receipt.NewBuilder(sType, mustKind(fc.Scheme)).WithOptions(opts)
	if sType.IsCreditSeries() {
		b = b.WithCreditAmounts(advance, last)
	}
	if preview {
		b = b.AsPreview()
	}
	return b.Build()
}

// loadDealContext loads the deal and its active financial card
func (s *Service) loadDealContext(ctx context.Context, dealID uuid.UUID) (*deal.Deal, *finance.FinancialCard, error) {
	d, err := s.dealStore.GetDeal(ctx, dealID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if d == nil {
		return nil, nil, shared.NewDomainError("DEAL_NOT_FOUND", "Deal not found")
	}

	fc, err := s.cardRepo.FindActiveByDeal(ctx, dealID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load financial card: %w", err)
	}
	if fc == nil {
		return nil, nil, shared.NewDomainError("CARD_NOT_FOUND", "Deal has no active financial card")
	}
	if _, err := receipt.KindForScheme(fc.Scheme); err != nil {
		return nil, nil, err
	}
	return d, fc, nil
}

// resolvePrice produces the effective breakdown for receipting. The currency
// snapshot is resolved once and applied to every field. A correction card
// yields the delta against its predecessor; a zero delta skips receipting.
func (s *Service) resolvePrice(ctx context.Context, fc *finance.FinancialCard) (finance.PriceBreakdown, bool, error) {
	price := fc.Price
	var snapshot finance.RateSnapshot
	if price.HasCurrency {
		var err error
		snapshot, err = s.rates.SnapshotForDeal(ctx, fc.DealID)
		if err != nil {
			return finance.PriceBreakdown{}, false, fmt.Errorf("failed to resolve rate snapshot: %w", err)
		}
		price = price.ApplyRate(snapshot)
	}

	if !fc.IsCorrectionAfterDeal || fc.PredecessorID == nil {
		return price, false, nil
	}

	prev, err := s.cardRepo.FindByID(ctx, *fc.PredecessorID)
	if err != nil {
		return finance.PriceBreakdown{}, false, fmt.Errorf("failed to load predecessor card: %w", err)
	}
	if prev == nil {
		return price, false, nil
	}

	prevPrice := prev.Price
	if prevPrice.HasCurrency {
		prevPrice = prevPrice.ApplyRate(snapshot)
	}

	delta := price.DeltaFrom(prevPrice)
	noMoneyMoved := delta.Result.Round(0).IsZero() &&
		delta.SupplierPenalty.IsZero() && delta.SupplierReplacement.IsZero() && delta.RSTLSPenalty.IsZero()
	return delta, noMoneyMoved, nil
}

func mustKind(scheme finance.SchemeWork) receipt.Kind {
	k, _ := receipt.KindForScheme(scheme)
	return k
}
