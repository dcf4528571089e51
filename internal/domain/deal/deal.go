package deal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category classifies the product line of a deal
type Category string

const (
	CategoryAvia        Category = "AVIA"
	CategoryRailway     Category = "RAILWAY"
	CategoryVisa        Category = "VISA"
	CategoryInsurance   Category = "INSURANCE"
	CategoryInfo        Category = "INFO"
	CategoryTickets     Category = "TICKETS"
	CategoryLostItems   Category = "LOST_ITEMS"
	CategoryTranslation Category = "TRANSLATION"
	CategoryTour        Category = "TOUR"
	CategoryCruise      Category = "CRUISE"
)

// IsValid checks if the category is a known product line
func (c Category) IsValid() bool {
	switch c {
	case CategoryAvia, CategoryRailway, CategoryVisa, CategoryInsurance,
		CategoryInfo, CategoryTickets, CategoryLostItems, CategoryTranslation,
		CategoryTour, CategoryCruise:
		return true
	}
	return false
}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// IsMomentary reports whether the service is delivered at purchase time.
// Momentary deals are receipted as full payment regardless of service start.
func (c Category) IsMomentary() bool {
	switch c {
	case CategoryVisa, CategoryRailway, CategoryAvia, CategoryInsurance,
		CategoryInfo, CategoryTickets, CategoryLostItems, CategoryTranslation:
		return true
	}
	return false
}

// Deal is a read-only reference to a CRM deal. The CRM owns the record;
// this module only consumes the fields it needs for financial processing.
type Deal struct {
	ID           uuid.UUID
	ContactID    uuid.UUID
	Category     Category
	StageID      string
	ServiceStart time.Time
}

// ServiceStarted reports whether the service has begun as of now
func (d *Deal) ServiceStarted(now time.Time) bool {
	return !now.Before(d.ServiceStart)
}

// Store is the narrow interface to the CRM deal store
type Store interface {
	// GetDeal retrieves a deal by ID
	GetDeal(ctx context.Context, id uuid.UUID) (*Deal, error)
	// UpdateDealStage moves a deal to the given stage
	UpdateDealStage(ctx context.Context, id uuid.UUID, stageID string) error
	// ListDueForRealization lists deals in the control stage whose service
	// date is on or before the given day
	ListDueForRealization(ctx context.Context, day time.Time) ([]*Deal, error)
}

// DepositStore credits refunded amounts back to a client deposit account
type DepositStore interface {
	CreditDeposit(ctx context.Context, contactID uuid.UUID, amount decimal.Decimal) error
}
