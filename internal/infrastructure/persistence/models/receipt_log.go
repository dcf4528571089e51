package models

import (
	"time"

	"github.com/google/uuid"
)

// Receipt log event codes
const (
	ReceiptLogEventAdd    = "ADD"
	ReceiptLogEventUpdate = "UPDATE"
)

// Receipt log outcome codes
const (
	ReceiptLogStatusSuccess = "SUCCESS"
	ReceiptLogStatusError   = "ERROR"
)

// ReceiptLogModel is the audit row written on every receipt save. Before
// holds the stored field snapshot prior to the write, After the written one.
type ReceiptLogModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReceiptID uuid.UUID `gorm:"type:uuid;not null;index:idx_receipt_log_receipt"`
	DealID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Event     string    `gorm:"type:varchar(10);not null"`
	Status    string    `gorm:"type:varchar(10);not null"`
	Before    []byte    `gorm:"type:jsonb"`
	After     []byte    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptLogModel) TableName() string {
	return "receipt_logs"
}
