package receipt

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// Status represents the lifecycle of a fiscal document attempt
type Status string

const (
	StatusNew     Status = "NEW"
	StatusSended  Status = "SENDED"
	StatusCreated Status = "CREATED"
	StatusError   Status = "ERROR"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusSended, StatusCreated, StatusError:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Type is the fiscal direction of a receipt
type Type string

const (
	TypeIncome Type = "INCOME"
	TypeReturn Type = "RETURN"
)

// IsValid checks if the receipt type is valid
func (t Type) IsValid() bool {
	return t == TypeIncome || t == TypeReturn
}

// CashboxInfo carries the fiscal identifiers returned by the OFD provider.
// A public receipt URL can only be derived when all four are present.
type CashboxInfo struct {
	RNM string
	FN  string
	FDN string
	FPD string
}

// Complete reports whether every identifier needed for a URL is present
func (c CashboxInfo) Complete() bool {
	return c.RNM != "" && c.FN != "" && c.FDN != "" && c.FPD != ""
}

// URL joins the identifiers under the configured base, empty when incomplete
func (c CashboxInfo) URL(base, prefix string) string {
	if !c.Complete() {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.Trim(prefix, "/") + "/" +
		c.RNM + "/" + c.FN + "/" + c.FDN + "/" + c.FPD
}

// Receipt is one fiscal document attempt. Rows are never reused across
// payment events; a retry re-submits the same row and bumps Attempt.
type Receipt struct {
	shared.BaseAggregateRoot
	DealID              uuid.UUID
	PaymentID           uuid.UUID
	Status              Status
	Type                Type
	Kind                Kind
	StrategyType        StrategyType
	RequestPayload      []byte
	FiscalReceiptID     string
	FiscalReceiptNumber string
	URL                 string
	Attempt             int
}

// NewReceipt creates a NEW receipt row ready for submission
func NewReceipt(dealID, paymentID uuid.UUID, s Strategy, payload []byte) (*Receipt, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if len(payload) == 0 {
		return nil, shared.NewDomainError("INVALID_PAYLOAD", "Fiscal request payload cannot be empty")
	}

	return &Receipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DealID:            dealID,
		PaymentID:         paymentID,
		Status:            StatusNew,
		Type:              s.ReceiptType,
		Kind:              s.Kind,
		StrategyType:      s.Type,
		RequestPayload:    payload,
	}, nil
}

// MarkSubmitted records the external fiscal ID assigned on create
func (r *Receipt) MarkSubmitted(fiscalID string) {
	r.FiscalReceiptID = fiscalID
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// MarkSended records a confirmed submission with its fiscal number and,
// when derivable, the public URL. Resets the attempt counter.
func (r *Receipt) MarkSended(number, url string) {
	r.Status = StatusSended
	r.FiscalReceiptNumber = number
	if url != "" {
		r.URL = url
	}
	r.Attempt = 0
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// MarkCreated records the fully rendered receipt. CREATED requires both a
// URL and a fiscal number.
func (r *Receipt) MarkCreated() error {
	if r.URL == "" || r.FiscalReceiptNumber == "" {
		return shared.NewDomainError("INVALID_STATE", "Receipt cannot be CREATED without a URL and fiscal number")
	}
	r.Status = StatusCreated
	r.Attempt = 0
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// MarkRetry returns the receipt to NEW and bumps the attempt counter for
// the external retry scheduler
func (r *Receipt) MarkRetry() {
	r.Status = StatusNew
	r.Attempt++
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// BumpAttempt increments the attempt counter without changing status
func (r *Receipt) BumpAttempt() {
	r.Attempt++
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// SetURL stores a resolved public URL
func (r *Receipt) SetURL(url string) {
	r.URL = url
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// Repository defines persistence for receipts
type Repository interface {
	// Save persists a receipt row
	Save(ctx context.Context, r *Receipt) error
	// FindByID retrieves a receipt by ID, nil when not found
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	// FindLastByDeal returns the most recent receipt for a deal, nil when none
	FindLastByDeal(ctx context.Context, dealID uuid.UUID) (*Receipt, error)
	// FindUnfinished lists NEW receipts due for (re-)submission
	FindUnfinished(ctx context.Context, limit int) ([]*Receipt, error)
}
