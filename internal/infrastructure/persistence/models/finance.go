package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// PaymentTransactionModel is the persistence model for ledger entries.
// Seq is assigned by the database and is the ordering signal for
// "last payment" queries; rows are never updated after insert.
type PaymentTransactionModel struct {
	ID             uuid.UUID             `gorm:"type:uuid;primary_key"`
	Seq            int64                 `gorm:"autoIncrement;uniqueIndex"`
	DealID         uuid.UUID             `gorm:"type:uuid;not null;index:idx_payment_tx_deal"`
	Type           finance.PaymentType   `gorm:"type:varchar(20);not null"`
	Status         finance.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PointAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentByPoint bool                  `gorm:"not null;default:false;index"`
	CurrencyCode   string                `gorm:"type:varchar(20)"`
	Date           time.Time             `gorm:"not null;index"`
	CreatedAt      time.Time             `gorm:"not null"`
	UpdatedAt      time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentTransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the persistence model to a domain PaymentTransaction
func (m *PaymentTransactionModel) ToDomain() *finance.PaymentTransaction {
	return &finance.PaymentTransaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Seq:            m.Seq,
		DealID:         m.DealID,
		Type:           m.Type,
		Status:         m.Status,
		Amount:         m.Amount,
		PointAmount:    m.PointAmount,
		PaymentByPoint: m.PaymentByPoint,
		CurrencyCode:   m.CurrencyCode,
		Date:           m.Date,
	}
}

// PaymentTransactionModelFromDomain creates a persistence model from a domain transaction
func PaymentTransactionModelFromDomain(t *finance.PaymentTransaction) *PaymentTransactionModel {
	return &PaymentTransactionModel{
		ID:             t.ID,
		Seq:            t.Seq,
		DealID:         t.DealID,
		Type:           t.Type,
		Status:         t.Status,
		Amount:         t.Amount,
		PointAmount:    t.PointAmount,
		PaymentByPoint: t.PaymentByPoint,
		CurrencyCode:   t.CurrencyCode,
		Date:           t.Date,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// FinancialCardModel is the persistence model for the FinancialCard aggregate root.
type FinancialCardModel struct {
	AggregateModel
	DealID                uuid.UUID          `gorm:"type:uuid;not null;index:idx_financial_card_deal"`
	Scheme                finance.SchemeWork `gorm:"type:varchar(30);not null"`
	IsCorrectionAfterDeal bool               `gorm:"not null;default:false"`
	Superseded            bool               `gorm:"not null;default:false;index:idx_financial_card_deal"`
	PredecessorID         *uuid.UUID         `gorm:"type:uuid"`
	SupplierVat           string             `gorm:"type:varchar(20)"`
	SupplierINN           string             `gorm:"type:varchar(20)"`
	SupplierName          string             `gorm:"type:varchar(255)"`

	Supplier            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Service             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SupplierPenalty     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SupplierReplacement decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RSTLSPenalty        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Result              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	SupplierCurrency            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ServiceCurrency             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SupplierPenaltyCurrency     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SupplierReplacementCurrency decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RSTLSPenaltyCurrency        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ResultCurrency              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	HasCurrency                 bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (FinancialCardModel) TableName() string {
	return "financial_cards"
}

// ToDomain converts the persistence model to a domain FinancialCard
func (m *FinancialCardModel) ToDomain() *finance.FinancialCard {
	fc := &finance.FinancialCard{
		DealID:                m.DealID,
		Scheme:                m.Scheme,
		IsCorrectionAfterDeal: m.IsCorrectionAfterDeal,
		Superseded:            m.Superseded,
		PredecessorID:         m.PredecessorID,
		SupplierVat:           m.SupplierVat,
		SupplierINN:           m.SupplierINN,
		SupplierName:          m.SupplierName,
		Price: finance.PriceBreakdown{
			Supplier:            m.Supplier,
			Service:             m.Service,
			SupplierPenalty:     m.SupplierPenalty,
			SupplierReplacement: m.SupplierReplacement,
			RSTLSPenalty:        m.RSTLSPenalty,
			Result:              m.Result,

			SupplierCurrency:            m.SupplierCurrency,
			ServiceCurrency:             m.ServiceCurrency,
			SupplierPenaltyCurrency:     m.SupplierPenaltyCurrency,
			SupplierReplacementCurrency: m.SupplierReplacementCurrency,
			RSTLSPenaltyCurrency:        m.RSTLSPenaltyCurrency,
			ResultCurrency:              m.ResultCurrency,

			HasCurrency: m.HasCurrency,
		},
	}
	m.PopulateAggregateRoot(&fc.BaseAggregateRoot)
	return fc
}

// FinancialCardModelFromDomain creates a persistence model from a domain card
func FinancialCardModelFromDomain(fc *finance.FinancialCard) *FinancialCardModel {
	m := &FinancialCardModel{
		DealID:                fc.DealID,
		Scheme:                fc.Scheme,
		IsCorrectionAfterDeal: fc.IsCorrectionAfterDeal,
		Superseded:            fc.Superseded,
		PredecessorID:         fc.PredecessorID,
		SupplierVat:           fc.SupplierVat,
		SupplierINN:           fc.SupplierINN,
		SupplierName:          fc.SupplierName,

		Supplier:            fc.Price.Supplier,
		Service:             fc.Price.Service,
		SupplierPenalty:     fc.Price.SupplierPenalty,
		SupplierReplacement: fc.Price.SupplierReplacement,
		RSTLSPenalty:        fc.Price.RSTLSPenalty,
		Result:              fc.Price.Result,

		SupplierCurrency:            fc.Price.SupplierCurrency,
		ServiceCurrency:             fc.Price.ServiceCurrency,
		SupplierPenaltyCurrency:     fc.Price.SupplierPenaltyCurrency,
		SupplierReplacementCurrency: fc.Price.SupplierReplacementCurrency,
		RSTLSPenaltyCurrency:        fc.Price.RSTLSPenaltyCurrency,
		ResultCurrency:              fc.Price.ResultCurrency,
		HasCurrency:                 fc.Price.HasCurrency,
	}
	m.FromDomainAggregateRoot(fc.BaseAggregateRoot)
	return m
}

// CreditModel is the persistence model for the Credit aggregate root.
type CreditModel struct {
	AggregateModel
	DealID            uuid.UUID                 `gorm:"type:uuid;not null;index:idx_credit_deal"`
	AmountTotal       decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	AmountPaid        decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	AmountRemaining   decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	AmountLastPayment decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Closed            bool                      `gorm:"not null;default:false;index:idx_credit_deal"`
	Operations        []FinancialOperationModel `gorm:"foreignKey:CreditID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CreditModel) TableName() string {
	return "credits"
}

// FinancialOperationModel is one entry in a credit's payment history.
type FinancialOperationModel struct {
	ID       uuid.UUID             `gorm:"type:uuid;primary_key"`
	CreditID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Seq      int64                 `gorm:"autoIncrement;uniqueIndex"`
	Type     finance.OperationType `gorm:"type:varchar(30);not null"`
	Amount   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Date     time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FinancialOperationModel) TableName() string {
	return "credit_operations"
}

// ToDomain converts the persistence model to a domain Credit with its history
func (m *CreditModel) ToDomain() *finance.Credit {
	ops := make([]finance.FinancialOperation, len(m.Operations))
	for i, op := range m.Operations {
		ops[i] = finance.FinancialOperation{
			ID:       op.ID,
			CreditID: op.CreditID,
			Type:     op.Type,
			Amount:   op.Amount,
			Date:     op.Date,
		}
	}
	c := &finance.Credit{
		DealID:            m.DealID,
		AmountTotal:       m.AmountTotal,
		AmountPaid:        m.AmountPaid,
		AmountRemaining:   m.AmountRemaining,
		AmountLastPayment: m.AmountLastPayment,
		Closed:            m.Closed,
		Operations:        ops,
	}
	m.PopulateAggregateRoot(&c.BaseAggregateRoot)
	return c
}

// CreditModelFromDomain creates a persistence model from a domain credit
func CreditModelFromDomain(c *finance.Credit) *CreditModel {
	ops := make([]FinancialOperationModel, len(c.Operations))
	for i, op := range c.Operations {
		ops[i] = FinancialOperationModel{
			ID:       op.ID,
			CreditID: op.CreditID,
			Type:     op.Type,
			Amount:   op.Amount,
			Date:     op.Date,
		}
	}
	m := &CreditModel{
		DealID:            c.DealID,
		AmountTotal:       c.AmountTotal,
		AmountPaid:        c.AmountPaid,
		AmountRemaining:   c.AmountRemaining,
		AmountLastPayment: c.AmountLastPayment,
		Closed:            c.Closed,
		Operations:        ops,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// AccountingEntryModel is the persistence model for bookkeeping postings.
// The unique index on (deal_id, type) enforces the single-posting invariant
// at the storage level.
type AccountingEntryModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key"`
	DealID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_entry_deal_type,priority:1"`
	Type      finance.EntryType `gorm:"type:varchar(30);not null;uniqueIndex:idx_entry_deal_type,priority:2"`
	PaymentID *uuid.UUID        `gorm:"type:uuid"`
	Amount    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	PostedAt  time.Time         `gorm:"not null"`
	CreatedAt time.Time         `gorm:"not null"`
	UpdatedAt time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountingEntryModel) TableName() string {
	return "accounting_entries"
}

// ToDomain converts the persistence model to a domain AccountingEntry
func (m *AccountingEntryModel) ToDomain() *finance.AccountingEntry {
	return &finance.AccountingEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		DealID:    m.DealID,
		Type:      m.Type,
		PaymentID: m.PaymentID,
		Amount:    m.Amount,
		PostedAt:  m.PostedAt,
	}
}

// AccountingEntryModelFromDomain creates a persistence model from a domain entry
func AccountingEntryModelFromDomain(e *finance.AccountingEntry) *AccountingEntryModel {
	return &AccountingEntryModel{
		ID:        e.ID,
		DealID:    e.DealID,
		Type:      e.Type,
		PaymentID: e.PaymentID,
		Amount:    e.Amount,
		PostedAt:  e.PostedAt,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
