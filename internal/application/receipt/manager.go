package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/domain/receipt"
)

// ManagerConfig carries the URL derivation settings and the settle delay
// between submission and the first info poll
type ManagerConfig struct {
	URLBase     string
	URLPrefix   string
	SettleDelay time.Duration
}

// Manager owns the fiscal document lifecycle: creation, submission, and the
// pull that confirms the rendered receipt exists
type Manager struct {
	receiptRepo receipt.Repository
	gateway     FiscalGateway
	config      ManagerConfig
	logger      *zap.Logger
}

// NewManager creates a receipt manager
func NewManager(receiptRepo receipt.Repository, gateway FiscalGateway, config ManagerConfig, logger *zap.Logger) *Manager {
	return &Manager{
		receiptRepo: receiptRepo,
		gateway:     gateway,
		config:      config,
		logger:      logger,
	}
}

// fiscalPayload is the serialized request body stored on the receipt row
type fiscalPayload struct {
	DealID              uuid.UUID       `json:"deal_id"`
	Type                string          `json:"type"`
	Strategy            string          `json:"strategy"`
	Kind                string          `json:"kind"`
	ProductAmount       decimal.Decimal `json:"product_amount"`
	ServiceFeeAmount    decimal.Decimal `json:"service_fee_amount"`
	SupplierPenalty     decimal.Decimal `json:"supplier_penalty,omitempty"`
	SupplierReplacement decimal.Decimal `json:"supplier_replacement,omitempty"`
	RSTLSPenalty        decimal.Decimal `json:"rstls_penalty,omitempty"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	SupplierINN         string          `json:"supplier_inn,omitempty"`
	SupplierName        string          `json:"supplier_name,omitempty"`
	SupplierVat         string          `json:"supplier_vat,omitempty"`
	PreCreditAdvance    decimal.Decimal `json:"pre_credit_advance,omitempty"`
	PartialCredit       decimal.Decimal `json:"partial_credit,omitempty"`
	PointAmount         decimal.Decimal `json:"point_amount,omitempty"`
	Printed             bool            `json:"printed,omitempty"`
}

// BuildPayload serializes a strategy into the fiscal request body
func BuildPayload(s receipt.Strategy) ([]byte, error) {
	p := fiscalPayload{
		DealID:              s.Options.DealID,
		Type:                string(s.ReceiptType),
		Strategy:            s.Type.String(),
		Kind:                s.Kind.String(),
		ProductAmount:       s.Options.ProductAmount,
		ServiceFeeAmount:    s.Options.ServiceFeeAmount,
		SupplierPenalty:     s.Options.SupplierPenalty,
		SupplierReplacement: s.Options.SupplierReplacement,
		RSTLSPenalty:        s.Options.RSTLSPenalty,
		TotalAmount:         s.Options.TotalAmount,
		SupplierINN:         s.Options.SupplierINN,
		SupplierName:        s.Options.SupplierName,
		SupplierVat:         s.Options.SupplierVat,
		PreCreditAdvance:    s.PreCreditAdvance,
		PartialCredit:       s.PartialCredit,
		PointAmount:         s.Options.PointAmount,
		Printed:             s.Printed,
	}
	return json.Marshal(p)
}

// Issue creates a receipt row for the strategy and pushes it to the provider.
// A preview strategy is rejected: previews never touch storage.
func (m *Manager) Issue(ctx context.Context, paymentID uuid.UUID, s receipt.Strategy) (*receipt.Receipt, error) {
	if s.Preview {
		return nil, fmt.Errorf("preview strategy cannot be issued")
	}

	payload, err := BuildPayload(s)
	if err != nil {
		return nil, fmt.Errorf("failed to build fiscal payload: %w", err)
	}

	r, err := receipt.NewReceipt(s.Options.DealID, paymentID, s, payload)
	if err != nil {
		return nil, err
	}
	if err := m.receiptRepo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	if err := m.Push(ctx, r); err != nil {
		m.logger.Warn("receipt push failed, left for retry",
			zap.String("receipt_id", r.ID.String()),
			zap.String("deal_id", r.DealID.String()),
			zap.Error(err))
	}

	return r, nil
}

// Push submits the receipt to the provider and polls once for its fiscal
// identifiers. A submission the provider has not yet acknowledged goes back
// to NEW with a bumped attempt counter.
func (m *Manager) Push(ctx context.Context, r *receipt.Receipt) error {
	fiscalID, err := m.gateway.CreateReceipt(ctx, r.RequestPayload)
	if err != nil {
		r.MarkRetry()
		if saveErr := m.receiptRepo.Save(ctx, r); saveErr != nil {
			return saveErr
		}
		return fmt.Errorf("failed to create fiscal receipt: %w", err)
	}
	r.MarkSubmitted(fiscalID)
	if err := m.receiptRepo.Save(ctx, r); err != nil {
		return err
	}

	// The provider needs a moment to register the document before the
	// info endpoint answers with identifiers.
	if err := m.settle(ctx); err != nil {
		return err
	}

	info, err := m.gateway.GetReceiptInfo(ctx, r.FiscalReceiptID)
	if err != nil || info == nil || info.ReceiptID == "" || info.Number == "" {
		r.MarkRetry()
		if saveErr := m.receiptRepo.Save(ctx, r); saveErr != nil {
			return saveErr
		}
		if err != nil {
			return fmt.Errorf("failed to fetch receipt info: %w", err)
		}
		return nil
	}

	r.MarkSended(info.Number, info.Cashbox.URL(m.config.URLBase, m.config.URLPrefix))
	return m.receiptRepo.Save(ctx, r)
}

// Pull verifies that the rendered receipt page exists. The URL is re-resolved
// from the provider first; a receipt whose page answers moves to CREATED.
func (m *Manager) Pull(ctx context.Context, r *receipt.Receipt) error {
	info, err := m.gateway.GetReceiptInfo(ctx, r.FiscalReceiptID)
	if err == nil && info != nil {
		if url := info.Cashbox.URL(m.config.URLBase, m.config.URLPrefix); url != "" {
			r.SetURL(url)
		}
	}

	ok := false
	if r.URL != "" {
		ok, err = m.gateway.FetchReceiptPage(ctx, r.URL)
		if err != nil {
			m.logger.Warn("receipt page fetch failed",
				zap.String("receipt_id", r.ID.String()),
				zap.Error(err))
		}
	}

	if ok {
		if err := r.MarkCreated(); err != nil {
			return err
		}
	} else {
		r.BumpAttempt()
	}
	return m.receiptRepo.Save(ctx, r)
}

// ResubmitPending re-pushes receipts the provider has not acknowledged yet
func (m *Manager) ResubmitPending(ctx context.Context, limit int) error {
	pending, err := m.receiptRepo.FindUnfinished(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list unfinished receipts: %w", err)
	}
	for _, r := range pending {
		if err := m.Push(ctx, r); err != nil {
			m.logger.Warn("receipt resubmission failed",
				zap.String("receipt_id", r.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (m *Manager) settle(ctx context.Context) error {
	if m.config.SettleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.config.SettleDelay):
		return nil
	}
}
