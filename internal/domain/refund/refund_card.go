package refund

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// Status represents a stage in the refund audit workflow
type Status string

const (
	StatusNew                      Status = "NEW"
	StatusAwaitingDocument         Status = "AWAITING_DOCUMENT_FROM_CLIENT"
	StatusConfirmedClient          Status = "CONFIRMED_CLIENT"
	StatusConfirmedAgreement       Status = "CONFIRMED_AGREEMENT"
	StatusConfirmedTeamLeader      Status = "CONFIRMED_TEAMLEADER"
	StatusWork                     Status = "WORK"
	StatusWorkTeamLeader           Status = "WORK_TEAMLEADER"
	StatusCheckTotalAmountVerified Status = "CHECK_TOTAL_AMOUNT_VERIFIED"
	StatusCompleted                Status = "COMPLETED"
	StatusClose                    Status = "CLOSE"
	StatusDelay                    Status = "DELAY"
	StatusCanceled                 Status = "CANCELED"
)

// IsValid checks if the status is a known workflow stage
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusAwaitingDocument, StatusConfirmedClient,
		StatusConfirmedAgreement, StatusConfirmedTeamLeader, StatusWork,
		StatusWorkTeamLeader, StatusCheckTotalAmountVerified,
		StatusCompleted, StatusClose, StatusDelay, StatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are allowed
func (s Status) IsTerminal() bool {
	return s == StatusClose || s == StatusCanceled
}

// DirectionType distinguishes how the refund is paid out
type DirectionType string

const (
	DirectionCard    DirectionType = "CARD"
	DirectionInvoice DirectionType = "INVOICE"
)

// IsValid checks if the direction type is valid
func (d DirectionType) IsValid() bool {
	return d == DirectionCard || d == DirectionInvoice
}

// PaymentTypePoint marks a refund card funded from a loyalty-point payment
const PaymentTypePoint = "POINT"

// allowed maps each workflow stage to the stages reachable from it.
// Delay and Cancel rewind edges are handled by their own methods.
var allowed = map[Status][]Status{
	StatusNew:                      {StatusAwaitingDocument, StatusConfirmedClient},
	StatusAwaitingDocument:         {StatusConfirmedClient},
	StatusConfirmedClient:          {StatusConfirmedAgreement, StatusConfirmedTeamLeader},
	StatusConfirmedAgreement:       {StatusWork},
	StatusConfirmedTeamLeader:      {StatusWorkTeamLeader},
	StatusWork:                     {StatusCheckTotalAmountVerified},
	StatusWorkTeamLeader:           {StatusCheckTotalAmountVerified},
	StatusCheckTotalAmountVerified: {StatusCompleted},
	StatusCompleted:                {StatusClose},
}

func canTransition(from, to Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RefundCard tracks one refund request from initiation to closure. A card
// is detached from its deal on cancellation so a new refund can be opened.
type RefundCard struct {
	shared.BaseAggregateRoot
	DealID                  uuid.UUID
	Status                  Status
	PaymentType             string
	DirectionType           DirectionType
	ReturnCash              decimal.Decimal
	ReturnDeposit           decimal.Decimal
	IsCorrectAmountAll      bool
	IsRetryCheckTotalAmount bool
	DelayDate               *time.Time
	StatusBeforeDelay       Status
	CanceledRefundDealID    *uuid.UUID
	DealStatusBeforeReturn  string
	AuditorID               *uuid.UUID
}

// NewRefundCard opens a refund request for a deal, capturing the deal stage
// so cancellation can restore it
func NewRefundCard(dealID uuid.UUID, direction DirectionType, returnCash decimal.Decimal, dealStageBefore string) (*RefundCard, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Refund direction is not valid")
	}
	if returnCash.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Return amount cannot be negative")
	}

	rc := &RefundCard{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(),
		DealID:                 dealID,
		Status:                 StatusNew,
		DirectionType:          direction,
		ReturnCash:             returnCash,
		DealStatusBeforeReturn: dealStageBefore,
	}

	rc.AddDomainEvent(NewRefundCardOpenedEvent(rc))

	return rc, nil
}

func (rc *RefundCard) transition(to Status) error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Refund card in %s status cannot move to %s", rc.Status, to))
	}
	if !canTransition(rc.Status, to) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot move refund card from %s to %s", rc.Status, to))
	}
	prev := rc.Status
	rc.Status = to
	rc.UpdatedAt = time.Now()
	rc.IncrementVersion()
	rc.AddDomainEvent(NewRefundCardTransitionedEvent(rc, prev))
	return nil
}

// RequestDocument asks the client for the refund paperwork
func (rc *RefundCard) RequestDocument() error {
	return rc.transition(StatusAwaitingDocument)
}

// ConfirmClient records client confirmation of the refund
func (rc *RefundCard) ConfirmClient() error {
	return rc.transition(StatusConfirmedClient)
}

// ConfirmAgreement records agreement confirmation, handing off to an auditor
func (rc *RefundCard) ConfirmAgreement() error {
	return rc.transition(StatusConfirmedAgreement)
}

// ConfirmTeamLeader routes a point-funded refund through the team-lead path
func (rc *RefundCard) ConfirmTeamLeader() error {
	if err := rc.transition(StatusConfirmedTeamLeader); err != nil {
		return err
	}
	rc.PaymentType = PaymentTypePoint
	return nil
}

// StartWork assigns the auditor and begins processing
func (rc *RefundCard) StartWork(auditorID uuid.UUID) error {
	if auditorID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Auditor ID is required")
	}
	target := StatusWork
	if rc.Status == StatusConfirmedTeamLeader {
		target = StatusWorkTeamLeader
	}
	if err := rc.transition(target); err != nil {
		return err
	}
	rc.AuditorID = &auditorID
	return nil
}

// VerifyTotals marks the refund amounts as audited and correct
func (rc *RefundCard) VerifyTotals() error {
	if err := rc.transition(StatusCheckTotalAmountVerified); err != nil {
		return err
	}
	rc.IsCorrectAmountAll = true
	rc.IsRetryCheckTotalAmount = false
	return nil
}

// MarkTotalsIncorrect flags the card for re-audit without changing status
func (rc *RefundCard) MarkTotalsIncorrect() error {
	if rc.Status != StatusWork && rc.Status != StatusWorkTeamLeader {
		return shared.NewDomainError("INVALID_STATE", "Totals can only be disputed while the card is in work")
	}
	rc.IsCorrectAmountAll = false
	rc.IsRetryCheckTotalAmount = true
	rc.UpdatedAt = time.Now()
	rc.IncrementVersion()
	return nil
}

// RetryCheck re-queues the audit without marking the totals incorrect
func (rc *RefundCard) RetryCheck() error {
	rc.IsCorrectAmountAll = false
	rc.IsRetryCheckTotalAmount = false
	rc.UpdatedAt = time.Now()
	rc.IncrementVersion()
	return nil
}

// Complete finishes the refund execution
func (rc *RefundCard) Complete() error {
	if err := rc.transition(StatusCompleted); err != nil {
		return err
	}
	rc.DelayDate = nil
	return nil
}

// Close archives a completed refund
func (rc *RefundCard) Close() error {
	return rc.transition(StatusClose)
}

// Delay parks the card until the given date
func (rc *RefundCard) Delay(until time.Time) error {
	if rc.Status.IsTerminal() || rc.Status == StatusDelay {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot delay refund card in %s status", rc.Status))
	}
	if until.Before(time.Now()) {
		return shared.NewDomainError("INVALID_DATE", "Delay date must be in the future")
	}
	rc.StatusBeforeDelay = rc.Status
	rc.Status = StatusDelay
	rc.DelayDate = &until
	rc.UpdatedAt = time.Now()
	rc.IncrementVersion()
	return nil
}

// Reschedule moves the delay date of an already delayed card
func (rc *RefundCard) Reschedule(until time.Time) error {
	if rc.Status != StatusDelay {
		return shared.NewDomainError("INVALID_STATE", "Only a delayed refund card can be rescheduled")
	}
	rc.DelayDate = &until
	rc.UpdatedAt = time.Now()
	rc.IncrementVersion()
	return nil
}

// Resume returns a delayed card to its prior stage
func (rc *RefundCard) Resume() error {
	if rc.Status != StatusDelay {
		return shared.NewDomainError("INVALID_STATE", "Only a delayed refund card can be resumed")
	}
	rc.Status = rc.StatusBeforeDelay
	rc.DelayDate = nil
	rc.UpdatedAt = time.Now()
	rc.IncrementVersion()
	return nil
}

// Cancel aborts the refund and detaches the card from the deal. The
// original deal is kept in CanceledRefundDealID so history stays traceable
// while a new refund can be opened against the deal.
func (rc *RefundCard) Cancel() error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel refund card in %s status", rc.Status))
	}
	dealID := rc.DealID
	rc.CanceledRefundDealID = &dealID
	rc.DealID = uuid.Nil
	rc.Status = StatusCanceled
	rc.DelayDate = nil
	rc.UpdatedAt = time.Now()
	rc.IncrementVersion()
	rc.AddDomainEvent(NewRefundCardCanceledEvent(rc, dealID))
	return nil
}

// IsPointFunded reports whether the refund returns a point payment
func (rc *RefundCard) IsPointFunded() bool {
	return rc.PaymentType == PaymentTypePoint
}

// Repository defines persistence for refund cards
type Repository interface {
	// Save persists a refund card
	Save(ctx context.Context, rc *RefundCard) error
	// FindByID retrieves a refund card by ID, nil when not found
	FindByID(ctx context.Context, id uuid.UUID) (*RefundCard, error)
	// FindActiveByDeal returns the attached, non-terminal card for a deal
	FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*RefundCard, error)
}
