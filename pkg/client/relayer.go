package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"anonswap/pkg/types"
)

const (
	pathCreateSwap   = "/api/swap/create"
	pathSwapStatus   = "/api/swap/status/"
	pathCurrencies   = "/api/swap/currencies"
	pathConfirmProof = "/api/swap/confirm-proof"
)

// APIError is a non-2xx response from the relayer
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// RelayerClient talks to the swap relayer's REST API
type RelayerClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// RelayerOpts configures a RelayerClient
type RelayerOpts struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewRelayerClient creates a relayer client
func NewRelayerClient(o RelayerOpts, logger *zap.Logger) *RelayerClient {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	return &RelayerClient{
		baseURL: strings.TrimRight(o.BaseURL, "/"),
		apiKey:  o.APIKey,
		client:  client,
		logger:  logger,
	}
}

type statusResponse struct {
	Status string `json:"status"`
}

type confirmProofRequest struct {
	OrderID            string `json:"orderId"`
	ProofHash          string `json:"proofHash"`
	IdentityCommitment string `json:"identityCommitment"`
}

// CreateSwapOrder asks the relayer to open an order for req
func (c *RelayerClient) CreateSwapOrder(ctx context.Context, req types.OrderRequest) (*types.SwapOrder, error) {
	var order types.SwapOrder
	if err := c.doJSON(ctx, http.MethodPost, pathCreateSwap, req, &order); err != nil {
		return nil, err
	}

	if order.OrderID == "" || order.DepositAddress == "" {
		return nil, fmt.Errorf("relayer returned an incomplete order")
	}
	if order.DepositCurrency == "" {
		order.DepositCurrency = req.CurrencyFrom
	}
	if order.ReceiveCurrency == "" {
		order.ReceiveCurrency = req.CurrencyTo
	}
	if order.DepositAmount == "" {
		order.DepositAmount = req.AmountFrom
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.Status == "" {
		order.Status = types.StatusWaiting
	}

	return &order, nil
}

// GetSwapStatus returns the relayer's raw status string for orderID
func (c *RelayerClient) GetSwapStatus(ctx context.Context, orderID string) (string, error) {
	var resp statusResponse
	if err := c.doJSON(ctx, http.MethodGet, pathSwapStatus+url.PathEscape(orderID), nil, &resp); err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(resp.Status)), nil
}

// ListTradableCurrencies returns every currency the relayer can trade
func (c *RelayerClient) ListTradableCurrencies(ctx context.Context) ([]types.Currency, error) {
	var list []types.Currency
	if err := c.doJSON(ctx, http.MethodGet, pathCurrencies, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ConfirmProof submits an attestation hash for on-chain verification
func (c *RelayerClient) ConfirmProof(ctx context.Context, orderID, proofHash, identityCommitment string) error {
	body := confirmProofRequest{OrderID: orderID, ProofHash: proofHash, IdentityCommitment: identityCommitment}
	return c.doJSON(ctx, http.MethodPost, pathConfirmProof, body, nil)
}

// doJSON sends payload as JSON and decodes a 2xx response into out (if non-nil).
// Error bodies of the form {"message": ...} or {"error": ...} become an *APIError.
func (c *RelayerClient) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Relayer request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(body []byte, fallback string) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fallback
}
