package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// Outbox intent kinds for the loyalty provider
const (
	IntentBonusDebit  = "BONUS_DEBIT"
	IntentBonusCredit = "BONUS_CREDIT"
)

// BonusIntentPayload is the stored argument for a loyalty provider call.
// TransactionID references the provider-side debit a credit reverses.
type BonusIntentPayload struct {
	Account       string          `json:"account"`
	Points        decimal.Decimal `json:"points"`
	ProgramCode   string          `json:"program_code"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

// PointPaymentService records loyalty-point payments. The ledger row, the
// bookkeeping posting, and the provider-call intent are written in one
// transaction; the actual provider call runs from the outbox afterwards, so
// a crash between the write and the call cannot lose either side.
type PointPaymentService struct {
	scope      TransactionScope
	rates      finance.RateProvider
	reconciler *PointRefundReconciler
	logger     *zap.Logger
}

// NewPointPaymentService creates a point payment service
func NewPointPaymentService(scope TransactionScope, rates finance.RateProvider, logger *zap.Logger) *PointPaymentService {
	return &PointPaymentService{scope: scope, rates: rates, logger: logger}
}

// WithReconciler wires the history reconciler that recovers the provider
// transaction behind the original debit when a refund is recorded
func (s *PointPaymentService) WithReconciler(r *PointRefundReconciler) *PointPaymentService {
	s.reconciler = r
	return s
}

// PointPaymentRequest describes a payment funded from a loyalty account.
// CashAmount carries the monetary value on refunds; incoming payments derive
// it from the deal's rate snapshot instead.
type PointPaymentRequest struct {
	DealID      uuid.UUID
	Account     string
	Points      decimal.Decimal
	CashAmount  decimal.Decimal
	ProgramCode string
	Date        time.Time
}

// PointPaymentResult reports the recorded payment and its provider intent
type PointPaymentResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	IntentID      uuid.UUID       `json:"intent_id"`
	IntentGuid    uuid.UUID       `json:"intent_guid"`
	CashAmount    decimal.Decimal `json:"cash_amount"`
	Points        decimal.Decimal `json:"points"`
}

// PayWithPoints records an incoming point payment and queues the debit
// against the client's loyalty account
func (s *PointPaymentService) PayWithPoints(ctx context.Context, req PointPaymentRequest) (*PointPaymentResult, error) {
	if req.Account == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Loyalty account is required")
	}

	snapshot, err := s.rates.SnapshotForDeal(ctx, req.DealID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rate snapshot: %w", err)
	}
	cashAmount := req.Points.Mul(snapshot.Multiplier())

	tx, err := finance.NewPointPaymentTransaction(
		req.DealID, finance.PaymentTypeIncoming, cashAmount, req.Points, req.ProgramCode, req.Date)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(BonusIntentPayload{
		Account:     req.Account,
		Points:      req.Points,
		ProgramCode: req.ProgramCode,
	})
	if err != nil {
		return nil, err
	}
	intent := shared.NewOutboxEntry(req.DealID, IntentBonusDebit, payload)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Ledger().Append(ctx, tx); err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		if err := s.postEntry(ctx, repos.Entries(), req.DealID, finance.EntryPointPayment, cashAmount, tx.ID); err != nil {
			return err
		}
		if err := repos.Outbox().Save(ctx, intent); err != nil {
			return fmt.Errorf("failed to save bonus debit intent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("point payment recorded",
		zap.String("deal_id", req.DealID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("intent_guid", intent.Guid.String()),
		zap.String("points", req.Points.String()),
		zap.String("cash_amount", cashAmount.String()))

	return &PointPaymentResult{
		TransactionID: tx.ID,
		IntentID:      intent.ID,
		IntentGuid:    intent.Guid,
		CashAmount:    cashAmount,
		Points:        req.Points,
	}, nil
}

// RefundPoints records a point refund and queues the credit back to the
// client's loyalty account. The credit intent carries the provider
// transaction of the original debit when the reconciler can recover it.
func (s *PointPaymentService) RefundPoints(ctx context.Context, req PointPaymentRequest) (*PointPaymentResult, error) {
	if req.Account == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Loyalty account is required")
	}

	var transactionID string
	if s.reconciler != nil {
		op, err := s.reconciler.ResolveDebit(ctx, req.DealID, req.Account)
		if err != nil {
			return nil, err
		}
		transactionID = op.ID
	}

	tx, err := finance.NewPointPaymentTransaction(
		req.DealID, finance.PaymentTypeRefund, req.CashAmount, req.Points, req.ProgramCode, req.Date)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(BonusIntentPayload{
		Account:       req.Account,
		Points:        req.Points,
		ProgramCode:   req.ProgramCode,
		TransactionID: transactionID,
	})
	if err != nil {
		return nil, err
	}
	intent := shared.NewOutboxEntry(req.DealID, IntentBonusCredit, payload)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Ledger().Append(ctx, tx); err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		if err := s.postEntry(ctx, repos.Entries(), req.DealID, finance.EntryPointRefund, req.CashAmount, tx.ID); err != nil {
			return err
		}
		if err := repos.Outbox().Save(ctx, intent); err != nil {
			return fmt.Errorf("failed to save bonus credit intent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("point refund recorded",
		zap.String("deal_id", req.DealID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("intent_guid", intent.Guid.String()))

	return &PointPaymentResult{
		TransactionID: tx.ID,
		IntentID:      intent.ID,
		IntentGuid:    intent.Guid,
		CashAmount:    req.CashAmount,
		Points:        req.Points,
	}, nil
}

// postEntry creates a bookkeeping posting unless one already exists for the
// (deal, type) pair
func (s *PointPaymentService) postEntry(ctx context.Context, entries finance.AccountingEntryRepository, dealID uuid.UUID, entryType finance.EntryType, amount decimal.Decimal, paymentID uuid.UUID) error {
	exists, err := entries.Exists(ctx, dealID, entryType)
	if err != nil {
		return fmt.Errorf("failed to check posting existence: %w", err)
	}
	if exists {
		return nil
	}
	entry, err := finance.NewAccountingEntry(dealID, entryType, amount)
	if err != nil {
		return err
	}
	entry.PaymentID = &paymentID
	if err := entries.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create posting: %w", err)
	}
	return nil
}
