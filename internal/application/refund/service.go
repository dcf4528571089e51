package refund

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/application/payment"
	receiptapp "github.com/travelcrm/backend/internal/application/receipt"
	"github.com/travelcrm/backend/internal/domain/deal"
	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/refund"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// ReceiptIssuer issues the return-side fiscal receipt for a refund ledger entry
type ReceiptIssuer interface {
	HandleRefund(ctx context.Context, paymentID uuid.UUID, full bool) error
}

// PointRefunder records the refund ledger entry and queues the loyalty
// credit for a point-funded refund
type PointRefunder interface {
	RefundPoints(ctx context.Context, req payment.PointPaymentRequest) (*payment.PointPaymentResult, error)
}

// DeferredJobCanceler drops pending one-shot jobs keyed by deal and kind
type DeferredJobCanceler interface {
	Cancel(ctx context.Context, dealID uuid.UUID, kind string) error
}

// StatusNotification describes a refund card status change
type StatusNotification struct {
	CardID uuid.UUID
	DealID uuid.UUID
	From   refund.Status
	To     refund.Status
}

// Notifier announces refund status changes to interested parties. Delivery
// is fire-and-forget; a failed notification never blocks the workflow.
type Notifier interface {
	NotifyStatusChanged(ctx context.Context, n StatusNotification) error
}

// Config carries the deal stage used while a refund is in progress
type Config struct {
	RefundStageID string
}

// Service drives the refund card workflow. Every transition that has side
// effects runs inside a transaction scope together with those effects.
type Service struct {
	scope        TransactionScope
	dealStore    deal.Store
	depositStore deal.DepositStore
	issuer       ReceiptIssuer
	notifier     Notifier
	points       PointRefunder
	jobs         DeferredJobCanceler
	config       Config
	logger       *zap.Logger
}

// NewService creates a refund workflow service
func NewService(
	scope TransactionScope,
	dealStore deal.Store,
	depositStore deal.DepositStore,
	issuer ReceiptIssuer,
	config Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:        scope,
		dealStore:    dealStore,
		depositStore: depositStore,
		issuer:       issuer,
		config:       config,
		logger:       logger,
	}
}

// WithNotifier sets the notifier for status change announcements
func (s *Service) WithNotifier(notifier Notifier) *Service {
	s.notifier = notifier
	return s
}

// WithPointRefunder routes point-funded refunds through the loyalty flow
func (s *Service) WithPointRefunder(points PointRefunder) *Service {
	s.points = points
	return s
}

// WithJobCanceler clears pending deferred receipts when a refund ends
func (s *Service) WithJobCanceler(jobs DeferredJobCanceler) *Service {
	s.jobs = jobs
	return s
}

// notifyChange announces a status transition when a notifier is wired
func (s *Service) notifyChange(ctx context.Context, rc *refund.RefundCard, from refund.Status) {
	if s.notifier == nil || from == rc.Status {
		return
	}
	err := s.notifier.NotifyStatusChanged(ctx, StatusNotification{
		CardID: rc.ID,
		DealID: rc.DealID,
		From:   from,
		To:     rc.Status,
	})
	if err != nil {
		s.logger.Warn("refund status notification failed",
			zap.String("card_id", rc.ID.String()),
			zap.String("to", string(rc.Status)),
			zap.Error(err))
	}
}

// OpenRequest describes a new refund request
type OpenRequest struct {
	DealID        uuid.UUID
	Direction     refund.DirectionType
	ReturnCash    decimal.Decimal
	ReturnDeposit decimal.Decimal
}

// Open creates a refund card for a deal, captures the deal's current stage,
// and parks the deal in the refund stage
func (s *Service) Open(ctx context.Context, req OpenRequest) (*refund.RefundCard, error) {
	d, err := s.dealStore.GetDeal(ctx, req.DealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if d == nil {
		return nil, shared.NewDomainError("DEAL_NOT_FOUND", "Deal not found")
	}

	var rc *refund.RefundCard
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.Cards().FindActiveByDeal(ctx, req.DealID)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.NewDomainError("REFUND_EXISTS", "Deal already has an active refund card")
		}

		rc, err = refund.NewRefundCard(req.DealID, req.Direction, req.ReturnCash, d.StageID)
		if err != nil {
			return err
		}
		rc.ReturnDeposit = req.ReturnDeposit
		return repos.Cards().Save(ctx, rc)
	})
	if err != nil {
		return nil, err
	}

	if s.config.RefundStageID != "" {
		if err := s.dealStore.UpdateDealStage(ctx, req.DealID, s.config.RefundStageID); err != nil {
			s.logger.Warn("failed to move deal to refund stage",
				zap.String("deal_id", req.DealID.String()), zap.Error(err))
		}
	}

	s.logger.Info("refund card opened",
		zap.String("card_id", rc.ID.String()),
		zap.String("deal_id", req.DealID.String()),
		zap.String("return_cash", req.ReturnCash.String()))

	return rc, nil
}

// Transition applies a plain workflow step with no side effects beyond the
// card itself
func (s *Service) Transition(ctx context.Context, cardID uuid.UUID, step func(*refund.RefundCard) error) (*refund.RefundCard, error) {
	var rc *refund.RefundCard
	var from refund.Status
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rc, err = s.load(ctx, repos, cardID)
		if err != nil {
			return err
		}
		from = rc.Status
		if err := step(rc); err != nil {
			return err
		}
		return repos.Cards().Save(ctx, rc)
	})
	if err != nil {
		return nil, err
	}
	s.notifyChange(ctx, rc, from)
	return rc, nil
}

// RequestDocument asks the client for refund paperwork
func (s *Service) RequestDocument(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, (*refund.RefundCard).RequestDocument)
}

// ConfirmClient records client confirmation
func (s *Service) ConfirmClient(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, (*refund.RefundCard).ConfirmClient)
}

// ConfirmAgreement records agreement confirmation
func (s *Service) ConfirmAgreement(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, (*refund.RefundCard).ConfirmAgreement)
}

// ConfirmTeamLeader routes a point-funded refund through the team-lead path
func (s *Service) ConfirmTeamLeader(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, (*refund.RefundCard).ConfirmTeamLeader)
}

// StartWork assigns the auditor and begins processing
func (s *Service) StartWork(ctx context.Context, cardID, auditorID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, func(rc *refund.RefundCard) error {
		return rc.StartWork(auditorID)
	})
}

// VerifyTotals marks the audited amounts as correct and posts the refund
// bookkeeping: the realization reversal lands once per deal, and the income
// reversal follows only on schemes where the agency recognized the income
// itself. An active installment plan shrinks by the audited cash return.
func (s *Service) VerifyTotals(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	var rc *refund.RefundCard
	var from refund.Status
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rc, err = s.load(ctx, repos, cardID)
		if err != nil {
			return err
		}
		from = rc.Status
		if err := rc.VerifyTotals(); err != nil {
			return err
		}

		if rc.ReturnCash.GreaterThan(decimal.Zero) {
			if err := s.shrinkCredit(ctx, repos, rc); err != nil {
				return err
			}

			fc, err := repos.FinancialCards().FindActiveByDeal(ctx, rc.DealID)
			if err != nil {
				return fmt.Errorf("failed to load financial card: %w", err)
			}
			// A correction card never carried the original postings, so
			// there is nothing to reverse against it.
			if fc != nil && !fc.IsCorrectionAfterDeal {
				if err := s.postOnce(ctx, repos, rc.DealID, finance.EntryRefundRealization, rc.ReturnCash.Neg()); err != nil {
					return err
				}
				if fc.Scheme == finance.SchemeBuyerAgent || fc.Scheme == finance.SchemeProvisionServices {
					if err := s.postOnce(ctx, repos, rc.DealID, finance.EntryRefundIncome, rc.ReturnCash.Neg()); err != nil {
						return err
					}
				}
			}
		}

		return repos.Cards().Save(ctx, rc)
	})
	if err != nil {
		return nil, err
	}

	s.notifyChange(ctx, rc, from)

	s.logger.Info("refund totals verified",
		zap.String("card_id", rc.ID.String()),
		zap.String("deal_id", rc.DealID.String()),
		zap.String("return_cash", rc.ReturnCash.String()))

	return rc, nil
}

// shrinkCredit reduces an active installment plan by the audited cash return
// so later checkpoints bill against the reduced obligation
func (s *Service) shrinkCredit(ctx context.Context, repos TransactionalRepositories, rc *refund.RefundCard) error {
	credit, err := repos.Credits().FindActiveByDeal(ctx, rc.DealID)
	if err != nil {
		return fmt.Errorf("failed to load installment plan: %w", err)
	}
	if credit == nil {
		return nil
	}
	newTotal := credit.AmountTotal.Sub(rc.ReturnCash)
	if !newTotal.GreaterThan(decimal.Zero) {
		// The audit wipes the whole plan; the completion step closes it
		// through the refund registration instead.
		return nil
	}
	if err := credit.Recalculate(newTotal, credit.AmountPaid); err != nil {
		return err
	}
	return repos.Credits().Save(ctx, credit)
}

// postOnce creates an accounting entry unless the deal already carries one
// of the same type
func (s *Service) postOnce(ctx context.Context, repos TransactionalRepositories, dealID uuid.UUID, entryType finance.EntryType, amount decimal.Decimal) error {
	exists, err := repos.Entries().Exists(ctx, dealID, entryType)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	entry, err := finance.NewAccountingEntry(dealID, entryType, amount)
	if err != nil {
		return err
	}
	if err := repos.Entries().Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create refund posting: %w", err)
	}
	return nil
}

// MarkTotalsIncorrect flags the card for re-audit
func (s *Service) MarkTotalsIncorrect(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, (*refund.RefundCard).MarkTotalsIncorrect)
}

// RetryCheck sends the verified totals back for another audit pass
func (s *Service) RetryCheck(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, (*refund.RefundCard).RetryCheck)
}

// Delay parks the card until the given date
func (s *Service) Delay(ctx context.Context, cardID uuid.UUID, until time.Time) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, func(rc *refund.RefundCard) error {
		return rc.Delay(until)
	})
}

// Reschedule moves the delay date of a parked card
func (s *Service) Reschedule(ctx context.Context, cardID uuid.UUID, until time.Time) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, func(rc *refund.RefundCard) error {
		return rc.Reschedule(until)
	})
}

// Resume returns a delayed card to its prior stage
func (s *Service) Resume(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, (*refund.RefundCard).Resume)
}

// Close archives a completed refund
func (s *Service) Close(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	return s.Transition(ctx, cardID, (*refund.RefundCard).Close)
}

// CompleteRequest describes the refund execution step
type CompleteRequest struct {
	CardID uuid.UUID
	// Full marks the refund as returning everything the client paid
	Full bool
	// Account and ProgramCode identify the loyalty account for a
	// point-funded refund
	Account     string
	ProgramCode string
	Points      decimal.Decimal
}

// Complete executes the refund. A cash return appends its ledger entry in
// the same transaction as the card transition; a point-funded return is
// recorded through the loyalty flow after the card commits. A refund born
// from a correction card closes in the same step, and any deferred receipt
// still pending for the deal is dropped.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (*refund.RefundCard, error) {
	var rc *refund.RefundCard
	var refundTxID uuid.UUID

	var from refund.Status
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rc, err = s.load(ctx, repos, req.CardID)
		if err != nil {
			return err
		}
		from = rc.Status
		if err := rc.Complete(); err != nil {
			return err
		}

		if rc.ReturnCash.GreaterThan(decimal.Zero) {
			if rc.IsPointFunded() {
				if req.Account == "" {
					return shared.NewDomainError("INVALID_ACCOUNT", "Loyalty account is required for a point refund")
				}
				if s.points == nil {
					return shared.NewDomainError("POINT_REFUND_UNAVAILABLE", "Point refunds are not configured")
				}
			} else {
				refundTx, err := finance.NewPaymentTransaction(
					rc.DealID, finance.PaymentTypeRefund, finance.PaymentStatusSuccess, rc.ReturnCash, time.Now())
				if err != nil {
					return err
				}
				if err := repos.Ledger().Append(ctx, refundTx); err != nil {
					return fmt.Errorf("failed to append refund ledger entry: %w", err)
				}
				refundTxID = refundTx.ID
			}
		}

		// A refund raised against a correction card has no audit left once
		// the money moved, so it goes straight to the archive.
		fc, err := repos.FinancialCards().FindActiveByDeal(ctx, rc.DealID)
		if err != nil {
			return fmt.Errorf("failed to load financial card: %w", err)
		}
		if fc != nil && fc.IsCorrectionAfterDeal {
			if err := rc.Close(); err != nil {
				return err
			}
		}

		return repos.Cards().Save(ctx, rc)
	})
	if err != nil {
		return nil, err
	}

	if rc.IsPointFunded() && rc.ReturnCash.GreaterThan(decimal.Zero) {
		res, err := s.points.RefundPoints(ctx, payment.PointPaymentRequest{
			DealID:      rc.DealID,
			Account:     req.Account,
			Points:      req.Points,
			CashAmount:  rc.ReturnCash,
			ProgramCode: req.ProgramCode,
			Date:        time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record point refund: %w", err)
		}
		refundTxID = res.TransactionID
	}

	if rc.ReturnDeposit.GreaterThan(decimal.Zero) {
		d, err := s.dealStore.GetDeal(ctx, rc.DealID)
		if err == nil && d != nil {
			if err := s.depositStore.CreditDeposit(ctx, d.ContactID, rc.ReturnDeposit); err != nil {
				s.logger.Error("failed to return deposit",
					zap.String("card_id", rc.ID.String()), zap.Error(err))
			}
		}
	}

	if refundTxID != uuid.Nil && s.issuer != nil {
		if err := s.issuer.HandleRefund(ctx, refundTxID, req.Full); err != nil {
			s.logger.Warn("refund receipt issuance failed, left for retry",
				zap.String("card_id", rc.ID.String()), zap.Error(err))
		}
	}

	s.clearDeferred(ctx, rc.DealID)
	s.notifyChange(ctx, rc, from)

	s.logger.Info("refund completed",
		zap.String("card_id", rc.ID.String()),
		zap.String("deal_id", rc.DealID.String()),
		zap.Bool("point_funded", rc.IsPointFunded()))

	return rc, nil
}

// clearDeferred drops the pending deferred receipt push for a deal; a
// completed or canceled refund makes the scheduled push moot
func (s *Service) clearDeferred(ctx context.Context, dealID uuid.UUID) {
	if s.jobs == nil || dealID == uuid.Nil {
		return
	}
	if err := s.jobs.Cancel(ctx, dealID, receiptapp.JobKindReceiptPush); err != nil {
		s.logger.Warn("failed to cancel deferred receipt job",
			zap.String("deal_id", dealID.String()), zap.Error(err))
	}
}

// Cancel aborts the refund, detaches the card from the deal, and restores
// the deal to the stage it held before the refund was opened
func (s *Service) Cancel(ctx context.Context, cardID uuid.UUID) (*refund.RefundCard, error) {
	var rc *refund.RefundCard
	var originalDeal uuid.UUID
	var from refund.Status

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rc, err = s.load(ctx, repos, cardID)
		if err != nil {
			return err
		}
		originalDeal = rc.DealID
		from = rc.Status
		if err := rc.Cancel(); err != nil {
			return err
		}
		return repos.Cards().Save(ctx, rc)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyStatusChanged(ctx, StatusNotification{
			CardID: rc.ID,
			DealID: originalDeal,
			From:   from,
			To:     rc.Status,
		}); err != nil {
			s.logger.Warn("refund status notification failed",
				zap.String("card_id", rc.ID.String()), zap.Error(err))
		}
	}

	if rc.DealStatusBeforeReturn != "" {
		if err := s.dealStore.UpdateDealStage(ctx, originalDeal, rc.DealStatusBeforeReturn); err != nil {
			s.logger.Error("failed to restore deal stage after refund cancel",
				zap.String("deal_id", originalDeal.String()), zap.Error(err))
		}
	}

	s.clearDeferred(ctx, originalDeal)

	s.logger.Info("refund canceled",
		zap.String("card_id", rc.ID.String()),
		zap.String("deal_id", originalDeal.String()),
		zap.String("restored_stage", rc.DealStatusBeforeReturn))

	return rc, nil
}

// ResumeDelayed wakes every delayed card whose delay date has passed
func (s *Service) ResumeDelayed(ctx context.Context, now time.Time, cardIDs []uuid.UUID) error {
	for _, id := range cardIDs {
		rc, err := s.Transition(ctx, id, func(rc *refund.RefundCard) error {
			if rc.Status != refund.StatusDelay || rc.DelayDate == nil || rc.DelayDate.After(now) {
				return nil
			}
			return rc.Resume()
		})
		if err != nil {
			s.logger.Warn("failed to resume delayed refund card",
				zap.String("card_id", id.String()), zap.Error(err))
			continue
		}
		_ = rc
	}
	return nil
}

func (s *Service) load(ctx context.Context, repos TransactionalRepositories, cardID uuid.UUID) (*refund.RefundCard, error) {
	rc, err := repos.Cards().FindByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund card: %w", err)
	}
	if rc == nil {
		return nil, shared.NewDomainError("REFUND_NOT_FOUND", "Refund card not found")
	}
	return rc, nil
}
