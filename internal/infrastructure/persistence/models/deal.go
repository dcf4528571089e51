package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/deal"
)

// DealModel is the persistence view of a CRM deal. The CRM owns the record;
// this module reads it and only ever writes the stage column.
type DealModel struct {
	ID           uuid.UUID     `gorm:"type:uuid;primary_key"`
	ContactID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Category     deal.Category `gorm:"type:varchar(30);not null"`
	StageID      string        `gorm:"type:varchar(50);not null;index"`
	ServiceStart time.Time     `gorm:"not null;index"`
	CreatedAt    time.Time     `gorm:"not null"`
	UpdatedAt    time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DealModel) TableName() string {
	return "deals"
}

// ToDomain converts the persistence model to a domain Deal
func (m *DealModel) ToDomain() *deal.Deal {
	return &deal.Deal{
		ID:           m.ID,
		ContactID:    m.ContactID,
		Category:     m.Category,
		StageID:      m.StageID,
		ServiceStart: m.ServiceStart,
	}
}

// DealRateModel holds the currency conversion snapshot for a deal.
type DealRateModel struct {
	DealID      uuid.UUID       `gorm:"type:uuid;primary_key"`
	AverageRate decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	RateCount   decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DealRateModel) TableName() string {
	return "deal_rates"
}

// DepositAccountModel is a client deposit balance keyed by contact.
type DepositAccountModel struct {
	ContactID uuid.UUID       `gorm:"type:uuid;primary_key"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DepositAccountModel) TableName() string {
	return "deposit_accounts"
}
