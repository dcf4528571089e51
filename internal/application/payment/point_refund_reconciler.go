package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/shared"
)

// AccountOperation is one row of a loyalty account's history
type AccountOperation struct {
	ID     string
	Type   string
	Points decimal.Decimal
	Date   time.Time
}

// OperationTypeDebit marks a withdrawal in the provider's history
const OperationTypeDebit = "DEBIT"

// BonusHistoryProvider reads the operation history of a loyalty account
type BonusHistoryProvider interface {
	History(ctx context.Context, account, programCode string) ([]AccountOperation, error)
}

// PointRefundReconciler recovers the provider-side transaction behind a
// point payment. The ledger stores no provider transaction ID, so a refund
// has to match the original debit by date and amount in the account history.
type PointRefundReconciler struct {
	ledger  finance.PaymentTransactionRepository
	history BonusHistoryProvider
}

// NewPointRefundReconciler creates a new PointRefundReconciler
func NewPointRefundReconciler(ledger finance.PaymentTransactionRepository, history BonusHistoryProvider) *PointRefundReconciler {
	return &PointRefundReconciler{ledger: ledger, history: history}
}

// ResolveDebit finds the provider debit matching the deal's last point
// payment by day and point amount
func (r *PointRefundReconciler) ResolveDebit(ctx context.Context, dealID uuid.UUID, account string) (*AccountOperation, error) {
	tx, err := r.ledger.LastPointPayment(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, shared.NewDomainError("NO_POINT_PAYMENT", "Deal has no point payments")
	}

	ops, err := r.history.History(ctx, account, tx.CurrencyCode)
	if err != nil {
		return nil, err
	}

	paymentDay := tx.Date.Truncate(24 * time.Hour)
	for _, op := range ops {
		if op.Type != OperationTypeDebit {
			continue
		}
		if !op.Date.Truncate(24 * time.Hour).Equal(paymentDay) {
			continue
		}
		if !op.Points.Equal(tx.PointAmount) {
			continue
		}
		found := op
		return &found, nil
	}

	return nil, shared.NewDomainError("DEBIT_NOT_FOUND", "No matching debit in the loyalty account history")
}
