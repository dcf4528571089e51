package fiscal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	appreceipt "github.com/travelcrm/backend/internal/application/receipt"
	"github.com/travelcrm/backend/internal/domain/receipt"
)

// OFDAdapter submits fiscal documents to the OFD provider over HTTP.
// Document payloads are built by the receipt domain; the adapter only
// transports them and reads back the assigned fiscal identifiers.
type OFDAdapter struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOFDAdapter creates a new OFD adapter
func NewOFDAdapter(config *Config, logger *zap.Logger) (*OFDAdapter, error) {
	if config == nil {
		return nil, fmt.Errorf("fiscal: config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fiscal config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OFDAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// CreateReceipt submits a document under the configured group and returns
// the provider's document ID
func (a *OFDAdapter) CreateReceipt(ctx context.Context, payload []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/sell", a.config.BaseURL, a.config.GroupCode)

	body, err := a.doRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}

	var resp ofdCreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	if resp.Error != nil && resp.Error.Code != 0 {
		return "", fmt.Errorf("provider rejected document: [%d] %s", resp.Error.Code, resp.Error.Text)
	}
	if resp.UID == "" {
		return "", fmt.Errorf("provider returned no document ID")
	}

	a.logger.Debug("fiscal document submitted",
		zap.String("uuid", resp.UID),
		zap.String("status", resp.Status))

	return resp.UID, nil
}

// GetReceiptInfo fetches the provider state of a submitted document.
// Identifiers stay empty until the cash register has processed it.
func (a *OFDAdapter) GetReceiptInfo(ctx context.Context, fiscalID string) (*appreceipt.FiscalInfo, error) {
	endpoint := fmt.Sprintf("%s/%s/report/%s", a.config.BaseURL, a.config.GroupCode, fiscalID)

	body, err := a.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp ofdInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode report response: %w", err)
	}
	if resp.Error != nil && resp.Error.Code != 0 {
		return nil, fmt.Errorf("provider reported document error: [%d] %s", resp.Error.Code, resp.Error.Text)
	}

	info := &appreceipt.FiscalInfo{
		ReceiptID: resp.UID,
	}
	if resp.Payload != nil {
		info.Number = strconv.FormatInt(resp.Payload.FiscalReceiptNumber, 10)
		info.Cashbox = receipt.CashboxInfo{
			RNM: resp.Payload.EcrRegistrationNum,
			FN:  resp.Payload.FnNumber,
			FDN: strconv.FormatInt(resp.Payload.FiscalDocumentNum, 10),
			FPD: strconv.FormatInt(resp.Payload.FiscalDocumentAttr, 10),
		}
	}

	return info, nil
}

// FetchReceiptPage retrieves the public receipt page and reports whether
// the document is served at the URL
func (a *OFDAdapter) FetchReceiptPage(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create page request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to fetch receipt page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("receipt page returned status %d", resp.StatusCode)
	}

	return true, nil
}

// doRequest performs an authenticated HTTP request against the provider
func (a *OFDAdapter) doRequest(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", a.config.Token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to fiscal provider failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fiscal provider returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Ensure OFDAdapter implements FiscalGateway
var _ appreceipt.FiscalGateway = (*OFDAdapter)(nil)
