package receipt

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/travelcrm/backend/internal/domain/receipt"
)

// FiscalInfo is the provider's view of a submitted receipt
type FiscalInfo struct {
	ReceiptID string
	Number    string
	Cashbox   receipt.CashboxInfo
}

// FiscalGateway is the outbound port to the OFD provider
type FiscalGateway interface {
	// CreateReceipt submits a fiscal document and returns the provider's ID
	CreateReceipt(ctx context.Context, payload []byte) (string, error)
	// GetReceiptInfo fetches the current provider state of a receipt
	GetReceiptInfo(ctx context.Context, fiscalID string) (*FiscalInfo, error)
	// FetchReceiptPage retrieves the rendered receipt page, reporting whether
	// the document is available at the URL
	FetchReceiptPage(ctx context.Context, url string) (bool, error)
}

// JobKindReceiptPush is the deferred job kind for delayed receipt issuance
const JobKindReceiptPush = "RECEIPT_PUSH"

// Deferrer schedules a one-shot job keyed by deal and kind. Scheduling the
// same key again supersedes the earlier run time.
type Deferrer interface {
	Defer(ctx context.Context, dealID uuid.UUID, kind string, runAt time.Time, payload []byte) error
	Cancel(ctx context.Context, dealID uuid.UUID, kind string) error
}
