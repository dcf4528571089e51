package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/application/payment"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// IntentExecutor performs the external call an outbox entry stands for
type IntentExecutor interface {
	Execute(ctx context.Context, entry *shared.OutboxEntry) error
}

// ExecutorFunc adapts a function to the IntentExecutor interface
type ExecutorFunc func(ctx context.Context, entry *shared.OutboxEntry) error

// Execute calls the wrapped function
func (f ExecutorFunc) Execute(ctx context.Context, entry *shared.OutboxEntry) error {
	return f(ctx, entry)
}

// BonusProvider is the outbound port to the loyalty account provider.
// The GUID travels with each call so the provider can absorb replays; a
// credit additionally names the provider transaction it reverses.
type BonusProvider interface {
	Debit(ctx context.Context, guid uuid.UUID, account string, points decimal.Decimal, programCode string) error
	Credit(ctx context.Context, guid uuid.UUID, account string, points decimal.Decimal, programCode, transactionID string) error
}

// BonusExecutor executes loyalty debit and credit intents
type BonusExecutor struct {
	provider BonusProvider
}

// NewBonusExecutor creates a new BonusExecutor
func NewBonusExecutor(provider BonusProvider) *BonusExecutor {
	return &BonusExecutor{provider: provider}
}

// Execute decodes the stored intent and calls the provider
func (e *BonusExecutor) Execute(ctx context.Context, entry *shared.OutboxEntry) error {
	var p payment.BonusIntentPayload
	if err := json.Unmarshal(entry.Payload, &p); err != nil {
		return fmt.Errorf("failed to decode bonus intent: %w", err)
	}

	switch entry.Kind {
	case payment.IntentBonusDebit:
		return e.provider.Debit(ctx, entry.Guid, p.Account, p.Points, p.ProgramCode)
	case payment.IntentBonusCredit:
		return e.provider.Credit(ctx, entry.Guid, p.Account, p.Points, p.ProgramCode, p.TransactionID)
	default:
		return fmt.Errorf("unsupported bonus intent kind %q", entry.Kind)
	}
}

// Ensure BonusExecutor implements IntentExecutor
var _ IntentExecutor = (*BonusExecutor)(nil)
