package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/domain/deal"
	"github.com/travelcrm/backend/internal/domain/finance"
)

// Service posts the realization-day bookkeeping for deals paid with loyalty
// points. A deal qualifies once its last point payment exists and its debt
// is settled; each posting type is created at most once per deal.
type Service struct {
	dealStore deal.Store
	ledger    finance.PaymentTransactionRepository
	debt      finance.DebtProvider
	cardRepo  finance.FinancialCardRepository
	entries   finance.AccountingEntryRepository
	logger    *zap.Logger
}

// NewService creates an accounting service
func NewService(
	dealStore deal.Store,
	ledger finance.PaymentTransactionRepository,
	debt finance.DebtProvider,
	cardRepo finance.FinancialCardRepository,
	entries finance.AccountingEntryRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		dealStore: dealStore,
		ledger:    ledger,
		debt:      debt,
		cardRepo:  cardRepo,
		entries:   entries,
		logger:    logger,
	}
}

// SweepResult summarizes one realization sweep
type SweepResult struct {
	Scanned int
	Posted  int
	Skipped int
	Failed  int
}

// RunRealizationSweep walks the deals whose service date has arrived and
// posts their realization acts
func (s *Service) RunRealizationSweep(ctx context.Context, day time.Time) (*SweepResult, error) {
	deals, err := s.dealStore.ListDueForRealization(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals due for realization: %w", err)
	}

	result := &SweepResult{Scanned: len(deals)}
	for _, d := range deals {
		posted, err := s.PostRealization(ctx, d.ID)
		if err != nil {
			result.Failed++
			s.logger.Error("realization posting failed",
				zap.String("deal_id", d.ID.String()), zap.Error(err))
			continue
		}
		if posted {
			result.Posted++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("realization sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("posted", result.Posted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}

// PostRealization posts the service acts for one deal. Returns false when
// the deal does not qualify yet.
func (s *Service) PostRealization(ctx context.Context, dealID uuid.UUID) (bool, error) {
	lastPoint, err := s.ledger.LastPointPayment(ctx, dealID)
	if err != nil {
		return false, fmt.Errorf("failed to query last point payment: %w", err)
	}
	if lastPoint == nil {
		return false, nil
	}

	debt, err := s.debt.AmountDebt(ctx, dealID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve deal debt: %w", err)
	}
	if debt.IsPositive() {
		return false, nil
	}

	fc, err := s.cardRepo.FindActiveByDeal(ctx, dealID)
	if err != nil {
		return false, fmt.Errorf("failed to load financial card: %w", err)
	}
	if fc == nil {
		return false, nil
	}

	posted := false

	created, err := s.postOnce(ctx, dealID, finance.EntryServiceActBuyer, fc, lastPoint.ID)
	if err != nil {
		return posted, err
	}
	posted = posted || created

	// Supplier-agent schemes account for the supplier on the supplier's
	// side; no supplier act is posted for them.
	if !fc.Scheme.IsSupplierAgent() {
		created, err = s.postOnce(ctx, dealID, finance.EntryServiceActSupplier, fc, lastPoint.ID)
		if err != nil {
			return posted, err
		}
		posted = posted || created
	}

	return posted, nil
}

func (s *Service) postOnce(ctx context.Context, dealID uuid.UUID, entryType finance.EntryType, fc *finance.FinancialCard, paymentID uuid.UUID) (bool, error) {
	exists, err := s.entries.Exists(ctx, dealID, entryType)
	if err != nil {
		return false, fmt.Errorf("failed to check posting existence: %w", err)
	}
	if exists {
		return false, nil
	}

	amount := fc.Price.Service
	if entryType == finance.EntryServiceActSupplier {
		amount = fc.Price.Supplier
	}

	entry, err := finance.NewAccountingEntry(dealID, entryType, amount)
	if err != nil {
		return false, err
	}
	entry.PaymentID = &paymentID
	if err := s.entries.Create(ctx, entry); err != nil {
		return false, fmt.Errorf("failed to create posting: %w", err)
	}

	s.logger.Info("realization act posted",
		zap.String("deal_id", dealID.String()),
		zap.String("entry_type", entryType.String()),
		zap.String("amount", amount.String()))

	return true, nil
}
