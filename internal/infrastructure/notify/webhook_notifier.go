package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	apprefund "github.com/travelcrm/backend/internal/application/refund"
)

// Config holds the webhook notifier settings
type Config struct {
	// URL receives the status change payloads
	URL string
	// Timeout bounds each delivery attempt
	Timeout time.Duration
}

// WebhookNotifier delivers refund status changes to a configured HTTP
// endpoint. Delivery failures are reported to the caller and otherwise
// dropped; the notifier never retries.
type WebhookNotifier struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a new webhook notifier
func NewWebhookNotifier(config Config, logger *zap.Logger) (*WebhookNotifier, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("notify: webhook URL is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WebhookNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

type statusChangePayload struct {
	CardID string `json:"card_id"`
	DealID string `json:"deal_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// NotifyStatusChanged posts the status change to the webhook endpoint
func (n *WebhookNotifier) NotifyStatusChanged(ctx context.Context, change apprefund.StatusNotification) error {
	body, err := json.Marshal(statusChangePayload{
		CardID: change.CardID.String(),
		DealID: change.DealID.String(),
		From:   string(change.From),
		To:     string(change.To),
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	n.logger.Debug("refund status notification delivered",
		zap.String("card_id", change.CardID.String()),
		zap.String("to", string(change.To)))

	return nil
}

// Ensure WebhookNotifier implements the refund Notifier port
var _ apprefund.Notifier = (*WebhookNotifier)(nil)

// LoggingNotifier records status changes in the log only. Used when no
// webhook endpoint is configured.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a new logging notifier
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger}
}

// NotifyStatusChanged logs the status change
func (n *LoggingNotifier) NotifyStatusChanged(ctx context.Context, change apprefund.StatusNotification) error {
	n.logger.Info("refund status changed",
		zap.String("card_id", change.CardID.String()),
		zap.String("deal_id", change.DealID.String()),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)))
	return nil
}

// Ensure LoggingNotifier implements the refund Notifier port
var _ apprefund.Notifier = (*LoggingNotifier)(nil)
