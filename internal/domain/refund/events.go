package refund

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// RefundCardOpenedEvent is raised when a refund request is opened
type RefundCardOpenedEvent struct {
	shared.BaseDomainEvent
	CardID     uuid.UUID       `json:"card_id"`
	DealID     uuid.UUID       `json:"deal_id"`
	Direction  DirectionType   `json:"direction"`
	ReturnCash decimal.Decimal `json:"return_cash"`
}

// EventType returns the event type name
func (e *RefundCardOpenedEvent) EventType() string {
	return "RefundCardOpened"
}

// NewRefundCardOpenedEvent creates a new RefundCardOpenedEvent
func NewRefundCardOpenedEvent(rc *RefundCard) *RefundCardOpenedEvent {
	return &RefundCardOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundCardOpened", "RefundCard", rc.ID),
		CardID:          rc.ID,
		DealID:          rc.DealID,
		Direction:       rc.DirectionType,
		ReturnCash:      rc.ReturnCash,
	}
}

// RefundCardTransitionedEvent is raised on every workflow stage change
type RefundCardTransitionedEvent struct {
	shared.BaseDomainEvent
	CardID         uuid.UUID `json:"card_id"`
	DealID         uuid.UUID `json:"deal_id"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
}

// EventType returns the event type name
func (e *RefundCardTransitionedEvent) EventType() string {
	return "RefundCardTransitioned"
}

// NewRefundCardTransitionedEvent creates a new RefundCardTransitionedEvent
func NewRefundCardTransitionedEvent(rc *RefundCard, prev Status) *RefundCardTransitionedEvent {
	return &RefundCardTransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundCardTransitioned", "RefundCard", rc.ID),
		CardID:          rc.ID,
		DealID:          rc.DealID,
		PreviousStatus:  prev,
		NewStatus:       rc.Status,
	}
}

// RefundCardCanceledEvent is raised when a refund card is canceled and
// detached from its deal
type RefundCardCanceledEvent struct {
	shared.BaseDomainEvent
	CardID         uuid.UUID `json:"card_id"`
	OriginalDealID uuid.UUID `json:"original_deal_id"`
	RestoredStage  string    `json:"restored_stage"`
}

// EventType returns the event type name
func (e *RefundCardCanceledEvent) EventType() string {
	return "RefundCardCanceled"
}

// NewRefundCardCanceledEvent creates a new RefundCardCanceledEvent
func NewRefundCardCanceledEvent(rc *RefundCard, originalDealID uuid.UUID) *RefundCardCanceledEvent {
	return &RefundCardCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundCardCanceled", "RefundCard", rc.ID),
		CardID:          rc.ID,
		OriginalDealID:  originalDealID,
		RestoredStage:   rc.DealStatusBeforeReturn,
	}
}
