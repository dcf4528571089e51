package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/application/payment"
)

// Provider fault codes that indicate a permanent, non-retryable condition
var permanentFaults = map[string]string{
	"CARD_NOT_FOUND":     "loyalty account does not exist",
	"CARD_BLOCKED":       "loyalty account is blocked",
	"INSUFFICIENT_FUNDS": "loyalty account balance is too low",
	"DUPLICATE_GUID":     "operation was already applied",
}

// PermanentError wraps a provider fault that retrying cannot fix
type PermanentError struct {
	Code string
	Text string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("loyalty provider fault %s: %s", e.Code, e.Text)
}

// Client debits and credits loyalty accounts through the provider API.
// Every operation carries the caller's GUID so a replayed request is
// absorbed by the provider instead of applied twice.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new loyalty provider client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("loyalty: config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loyalty config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

type operationRequest struct {
	Guid        string `json:"guid"`
	Card        string `json:"card"`
	Program     string `json:"program"`
	Amount      string `json:"amount"`
	Transaction string `json:"transaction,omitempty"`
}

type operationResponse struct {
	Success bool   `json:"success"`
	Fault   string `json:"fault"`
	Message string `json:"message"`
}

type historyResponse struct {
	Success    bool             `json:"success"`
	Fault      string           `json:"fault"`
	Operations []historyItemDTO `json:"operations"`
}

type historyItemDTO struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// Debit withdraws points from a loyalty account
func (c *Client) Debit(ctx context.Context, guid uuid.UUID, account string, points decimal.Decimal, programCode string) error {
	return c.perform(ctx, "debit", guid, account, points, programCode, "")
}

// Credit returns points to a loyalty account. transactionID references the
// provider-side debit being reversed and may be empty.
func (c *Client) Credit(ctx context.Context, guid uuid.UUID, account string, points decimal.Decimal, programCode, transactionID string) error {
	return c.perform(ctx, "credit", guid, account, points, programCode, transactionID)
}

// History lists the operations applied to a loyalty account, newest first
func (c *Client) History(ctx context.Context, account, programCode string) ([]payment.AccountOperation, error) {
	endpoint := fmt.Sprintf("%s/account/history?card=%s&program=%s",
		c.config.BaseURL, url.QueryEscape(NormalizeAccount(account)), url.QueryEscape(ProgramName(programCode)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create history request: %w", err)
	}
	req.SetBasicAuth(c.config.Login, c.config.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loyalty history request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read loyalty response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("loyalty provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var result historyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode loyalty history: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("loyalty history failed: %s", result.Fault)
	}

	ops := make([]payment.AccountOperation, 0, len(result.Operations))
	for _, item := range result.Operations {
		amount, err := decimal.NewFromString(item.Amount)
		if err != nil {
			return nil, fmt.Errorf("malformed history amount %q: %w", item.Amount, err)
		}
		date, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			return nil, fmt.Errorf("malformed history date %q: %w", item.Date, err)
		}
		ops = append(ops, payment.AccountOperation{
			ID:     item.ID,
			Type:   item.Type,
			Points: amount,
			Date:   date,
		})
	}
	return ops, nil
}

// perform executes one account operation. A DUPLICATE_GUID fault means an
// earlier attempt already landed and is treated as success.
func (c *Client) perform(ctx context.Context, operation string, guid uuid.UUID, account string, points decimal.Decimal, programCode, transactionID string) error {
	reqBody, err := json.Marshal(operationRequest{
		Guid:        guid.String(),
		Card:        NormalizeAccount(account),
		Program:     ProgramName(programCode),
		Amount:      points.String(),
		Transaction: transactionID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	endpoint := fmt.Sprintf("%s/account/%s", c.config.BaseURL, operation)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.config.Login, c.config.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("loyalty %s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read loyalty response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("loyalty provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var result operationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to decode loyalty response: %w", err)
	}

	if !result.Success {
		if result.Fault == "DUPLICATE_GUID" {
			c.logger.Info("loyalty operation already applied",
				zap.String("operation", operation),
				zap.String("guid", guid.String()))
			return nil
		}
		if text, ok := permanentFaults[result.Fault]; ok {
			return &PermanentError{Code: result.Fault, Text: text}
		}
		return fmt.Errorf("loyalty %s failed: %s %s", operation, result.Fault, result.Message)
	}

	c.logger.Debug("loyalty operation applied",
		zap.String("operation", operation),
		zap.String("guid", guid.String()),
		zap.String("program", ProgramName(programCode)))

	return nil
}

// Ensure Client implements the history port
var _ payment.BonusHistoryProvider = (*Client)(nil)
