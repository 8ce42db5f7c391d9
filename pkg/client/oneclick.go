package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"anonswap/pkg/types"
)

// 1Click blockchain names for our chain ids
var oneClickChains = map[string]string{
	"ethereum": "eth",
	"bitcoin":  "btc",
	"solana":   "sol",
	"bsc":      "bsc",
	"arbitrum": "arb",
	"base":     "base",
	"polygon":  "pol",
	"near":     "near",
	"tron":     "tron",
	"zcash":    "zec",
}

// OneClickClient adapts the 1Click SDK to the exchange surface the swap
// orchestrator drives. Orders are keyed by their deposit address.
type OneClickClient struct {
	client   *oneclick.APIClient
	jwtToken string
	deadline time.Duration
	logger   *zap.Logger
}

// NewOneClickClient creates a new 1Click API client. deadline bounds how long
// the quoted deposit address stays valid.
func NewOneClickClient(jwtToken string, deadline time.Duration, logger *zap.Logger) *OneClickClient {
	config := oneclick.NewConfiguration()

	return &OneClickClient{
		client:   oneclick.NewAPIClient(config),
		jwtToken: jwtToken,
		deadline: deadline,
		logger:   logger,
	}
}

func (c *OneClickClient) authed(ctx context.Context) context.Context {
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.jwtToken)
}

// MapOneClickStatus translates a 1Click execution status into the exchange
// vocabulary. Unknown values pass through lowercased and are ignored upstream.
func MapOneClickStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "PENDING_DEPOSIT", "INCOMPLETE_DEPOSIT":
		return types.StatusWaiting
	case "KNOWN_DEPOSIT_TX":
		return types.StatusConfirming
	case "PROCESSING":
		return types.StatusExchanging
	case "SUCCESS", "COMPLETED":
		return types.StatusFinished
	case "REFUNDED":
		return types.StatusRefunded
	case "FAILED":
		return types.StatusFailed
	default:
		return strings.ToLower(status)
	}
}

// chainForBlockchain maps a 1Click blockchain name back to a chain id
func chainForBlockchain(blockchain string) string {
	blockchain = strings.ToLower(blockchain)
	for id, name := range oneClickChains {
		if name == blockchain {
			return id
		}
	}
	return blockchain
}

func (c *OneClickClient) supportedTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.authed(ctx)).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: httpResp.StatusCode, Message: "failed to get tokens"}
	}

	return resp, nil
}

func (c *OneClickClient) findTokenOnChain(tokens []oneclick.TokenResponse, symbol, chainID string) (*oneclick.TokenResponse, error) {
	blockchain, ok := oneClickChains[strings.ToLower(chainID)]
	if !ok {
		return nil, fmt.Errorf("chain '%s' is not routed by 1Click", chainID)
	}
	symbol = strings.ToUpper(symbol)

	for i := range tokens {
		if strings.ToUpper(tokens[i].GetSymbol()) == symbol &&
			strings.ToLower(string(tokens[i].GetBlockchain())) == blockchain {
			return &tokens[i], nil
		}
	}

	return nil, fmt.Errorf("token '%s' not found on chain '%s'", symbol, chainID)
}

// ListTradableCurrencies returns the 1Click token list as exchange currencies
func (c *OneClickClient) ListTradableCurrencies(ctx context.Context) ([]types.Currency, error) {
	tokens, err := c.supportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]types.Currency, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, types.Currency{
			Symbol:          t.GetSymbol(),
			Name:            t.GetSymbol(),
			Network:         chainForBlockchain(string(t.GetBlockchain())),
			ContractAddress: t.GetContractAddress(),
		})
	}
	return out, nil
}

// CreateSwapOrder requests a live (non-dry) quote, which allocates the deposit address
func (c *OneClickClient) CreateSwapOrder(ctx context.Context, req types.OrderRequest) (*types.SwapOrder, error) {
	tokens, err := c.supportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	sourceToken, err := c.findTokenOnChain(tokens, req.CurrencyFrom, req.FromChain)
	if err != nil {
		return nil, fmt.Errorf("source token error: %w", err)
	}
	destToken, err := c.findTokenOnChain(tokens, req.CurrencyTo, req.ToChain)
	if err != nil {
		return nil, fmt.Errorf("destination token error: %w", err)
	}

	amount, err := decimal.NewFromString(req.AmountFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	amountStr := amount.Shift(int32(sourceToken.GetDecimals())).Truncate(0).String()

	refundTo := req.RefundAddress
	if refundTo == "" {
		refundTo = req.AddressTo
	}

	quoteReq := oneclick.NewQuoteRequest(
		false,         // dry
		"EXACT_INPUT", // swapType
		100,           // slippageTolerance (1%)
		sourceToken.GetAssetId(),
		"ORIGIN_CHAIN",
		destToken.GetAssetId(),
		amountStr,
		refundTo,
		"ORIGIN_CHAIN",
		req.AddressTo,
		"DESTINATION_CHAIN",
		time.Now().Add(c.deadline),
	)

	resp, httpResp, err := c.client.OneClickAPI.GetQuote(c.authed(ctx)).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		return nil, quoteError(httpResp, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: httpResp.StatusCode, Message: "quote rejected"}
	}
	if resp == nil {
		return nil, fmt.Errorf("empty quote response")
	}

	quote := resp.GetQuote()
	order := &types.SwapOrder{
		OrderID:               quote.GetDepositAddress(),
		DepositAddress:        quote.GetDepositAddress(),
		DepositAmount:         quote.GetAmountInFormatted(),
		DepositCurrency:       req.CurrencyFrom,
		ExpectedReceiveAmount: quote.GetAmountOutFormatted(),
		ReceiveCurrency:       req.CurrencyTo,
		CreatedAt:             time.Now(),
		Status:                types.StatusWaiting,
	}
	if quote.HasDepositMemo() {
		order.DepositMemo = quote.GetDepositMemo()
	}
	if order.DepositAddress == "" {
		return nil, fmt.Errorf("quote did not include a deposit address")
	}

	c.logger.Debug("1Click order created",
		zap.String("deposit_address", order.DepositAddress),
		zap.String("amount_in", order.DepositAmount),
		zap.String("amount_out", order.ExpectedReceiveAmount))

	return order, nil
}

// quoteError extracts the API's own message from a failed quote response
func quoteError(httpResp *http.Response, err error) error {
	if httpResp == nil {
		return fmt.Errorf("failed to get quote from API: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("failed to get quote from API (status: %d): %w", httpResp.StatusCode, err)
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if errs, ok := errorResp["errors"]; ok {
			return &APIError{StatusCode: httpResp.StatusCode, Message: fmt.Sprint(errs)}
		}
	}
	return &APIError{StatusCode: httpResp.StatusCode, Message: errorMessage(bodyBytes, httpResp.Status)}
}

// GetSwapStatus returns the mapped execution status of the order at depositAddress
func (c *OneClickClient) GetSwapStatus(ctx context.Context, depositAddress string) (string, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetExecutionStatus(c.authed(ctx)).DepositAddress(depositAddress).Execute()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: httpResp.StatusCode, Message: "failed to get status"}
	}

	return MapOneClickStatus(string(resp.GetStatus())), nil
}

// SubmitDepositTx tells 1Click about a deposit we broadcast ourselves, which
// speeds up detection.
func (c *OneClickClient) SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(txHash, depositAddress)

	_, httpResp, err := c.client.OneClickAPI.SubmitDepositTx(c.authed(ctx)).SubmitDepositTxRequest(*req).Execute()
	if err != nil {
		return fmt.Errorf("failed to submit deposit: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated {
		return &APIError{StatusCode: httpResp.StatusCode, Message: "deposit submission rejected"}
	}

	return nil
}
