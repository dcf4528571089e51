package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/refund"
)

// RefundCardModel is the persistence model for the RefundCard aggregate root.
// DealID stays nullable; a canceled card is detached from its deal and keeps
// the original reference in CanceledRefundDealID only.
type RefundCardModel struct {
	AggregateModel
	DealID                  uuid.UUID            `gorm:"type:uuid;index:idx_refund_card_deal"`
	Status                  refund.Status        `gorm:"type:varchar(40);not null;index"`
	PaymentType             string               `gorm:"type:varchar(20)"`
	DirectionType           refund.DirectionType `gorm:"type:varchar(20);not null"`
	ReturnCash              decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	ReturnDeposit           decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	IsCorrectAmountAll      bool                 `gorm:"not null;default:false"`
	IsRetryCheckTotalAmount bool                 `gorm:"not null;default:false"`
	DelayDate               *time.Time           `gorm:"index"`
	StatusBeforeDelay       refund.Status        `gorm:"type:varchar(40)"`
	CanceledRefundDealID    *uuid.UUID           `gorm:"type:uuid;index"`
	DealStatusBeforeReturn  string               `gorm:"type:varchar(50)"`
	AuditorID               *uuid.UUID           `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (RefundCardModel) TableName() string {
	return "refund_cards"
}

// ToDomain converts the persistence model to a domain RefundCard
func (m *RefundCardModel) ToDomain() *refund.RefundCard {
	rc := &refund.RefundCard{
		DealID:                  m.DealID,
		Status:                  m.Status,
		PaymentType:             m.PaymentType,
		DirectionType:           m.DirectionType,
		ReturnCash:              m.ReturnCash,
		ReturnDeposit:           m.ReturnDeposit,
		IsCorrectAmountAll:      m.IsCorrectAmountAll,
		IsRetryCheckTotalAmount: m.IsRetryCheckTotalAmount,
		DelayDate:               m.DelayDate,
		StatusBeforeDelay:       m.StatusBeforeDelay,
		CanceledRefundDealID:    m.CanceledRefundDealID,
		DealStatusBeforeReturn:  m.DealStatusBeforeReturn,
		AuditorID:               m.AuditorID,
	}
	m.PopulateAggregateRoot(&rc.BaseAggregateRoot)
	return rc
}

// RefundCardModelFromDomain creates a persistence model from a domain refund card
func RefundCardModelFromDomain(rc *refund.RefundCard) *RefundCardModel {
	m := &RefundCardModel{
		DealID:                  rc.DealID,
		Status:                  rc.Status,
		PaymentType:             rc.PaymentType,
		DirectionType:           rc.DirectionType,
		ReturnCash:              rc.ReturnCash,
		ReturnDeposit:           rc.ReturnDeposit,
		IsCorrectAmountAll:      rc.IsCorrectAmountAll,
		IsRetryCheckTotalAmount: rc.IsRetryCheckTotalAmount,
		DelayDate:               rc.DelayDate,
		StatusBeforeDelay:       rc.StatusBeforeDelay,
		CanceledRefundDealID:    rc.CanceledRefundDealID,
		DealStatusBeforeReturn:  rc.DealStatusBeforeReturn,
		AuditorID:               rc.AuditorID,
	}
	m.FromDomainAggregateRoot(rc.BaseAggregateRoot)
	return m
}
