package models

import (
	"github.com/google/uuid"

	"github.com/travelcrm/backend/internal/domain/receipt"
)

// ReceiptModel is the persistence model for fiscal document attempts.
type ReceiptModel struct {
	AggregateModel
	DealID              uuid.UUID            `gorm:"type:uuid;not null;index:idx_receipt_deal"`
	PaymentID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	Status              receipt.Status       `gorm:"type:varchar(20);not null;index"`
	Type                receipt.Type         `gorm:"type:varchar(20);not null"`
	Kind                receipt.Kind         `gorm:"type:varchar(30);not null"`
	StrategyType        receipt.StrategyType `gorm:"type:varchar(30);not null"`
	RequestPayload      []byte               `gorm:"type:jsonb;not null"`
	FiscalReceiptID     string               `gorm:"type:varchar(100);index"`
	FiscalReceiptNumber string               `gorm:"type:varchar(100)"`
	URL                 string               `gorm:"type:varchar(500)"`
	Attempt             int                  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt
func (m *ReceiptModel) ToDomain() *receipt.Receipt {
	r := &receipt.Receipt{
		DealID:              m.DealID,
		PaymentID:           m.PaymentID,
		Status:              m.Status,
		Type:                m.Type,
		Kind:                m.Kind,
		StrategyType:        m.StrategyType,
		RequestPayload:      m.RequestPayload,
		FiscalReceiptID:     m.FiscalReceiptID,
		FiscalReceiptNumber: m.FiscalReceiptNumber,
		URL:                 m.URL,
		Attempt:             m.Attempt,
	}
	m.PopulateAggregateRoot(&r.BaseAggregateRoot)
	return r
}

// ReceiptModelFromDomain creates a persistence model from a domain receipt
func ReceiptModelFromDomain(r *receipt.Receipt) *ReceiptModel {
	m := &ReceiptModel{
		DealID:              r.DealID,
		PaymentID:           r.PaymentID,
		Status:              r.Status,
		Type:                r.Type,
		Kind:                r.Kind,
		StrategyType:        r.StrategyType,
		RequestPayload:      r.RequestPayload,
		FiscalReceiptID:     r.FiscalReceiptID,
		FiscalReceiptNumber: r.FiscalReceiptNumber,
		URL:                 r.URL,
		Attempt:             r.Attempt,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}
