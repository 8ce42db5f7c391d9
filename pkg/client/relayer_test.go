package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"anonswap/pkg/types"
)

func newTestRelayer(t *testing.T, handler http.HandlerFunc) *RelayerClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRelayerClient(RelayerOpts{BaseURL: srv.URL + "/", APIKey: "k"}, zap.NewNop())
}

func TestCreateSwapOrder(t *testing.T) {
	c := newTestRelayer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathCreateSwap, r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var body types.OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ETH", body.CurrencyFrom)
		assert.Equal(t, "1.5", body.AmountFrom)

		_, _ = w.Write([]byte(`{"orderId":"ord-1","depositAddress":"0xdep","depositAmount":"1.5","expectedAmount":"0.052","createdAt":"2025-03-01T10:00:00Z"}`))
	})

	order, err := c.CreateSwapOrder(context.Background(), types.OrderRequest{
		FromChain: "ethereum", ToChain: "bitcoin", CurrencyFrom: "ETH", CurrencyTo: "BTC", AmountFrom: "1.5", AddressTo: "bc1q",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.OrderID)
	assert.Equal(t, "0xdep", order.DepositAddress)
	assert.Equal(t, "0.052", order.ExpectedReceiveAmount)
	assert.Equal(t, "ETH", order.DepositCurrency)
	assert.Equal(t, "BTC", order.ReceiveCurrency)
	assert.Equal(t, types.StatusWaiting, order.Status)
	assert.Equal(t, 2025, order.CreatedAt.Year())
}

func TestCreateSwapOrderErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{name: "message field", code: http.StatusBadRequest, body: `{"message":"amount below minimum"}`, want: "amount below minimum"},
		{name: "error field", code: http.StatusUnprocessableEntity, body: `{"error":"pair not supported"}`, want: "pair not supported"},
		{name: "plain text", code: http.StatusBadGateway, body: `upstream down`, want: "upstream down"},
		{name: "empty", code: http.StatusInternalServerError, body: ``, want: "500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestRelayer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CreateSwapOrder(context.Background(), types.OrderRequest{})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.code, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestCreateSwapOrderIncomplete(t *testing.T) {
	c := newTestRelayer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orderId":"ord-1"}`))
	})
	_, err := c.CreateSwapOrder(context.Background(), types.OrderRequest{})
	assert.Error(t, err)
}

func TestGetSwapStatus(t *testing.T) {
	c := newTestRelayer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, pathSwapStatus+"ord 1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":" Exchanging "}`))
	})

	status, err := c.GetSwapStatus(context.Background(), "ord 1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusExchanging, status)
}

func TestListTradableCurrencies(t *testing.T) {
	c := newTestRelayer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathCurrencies, r.URL.Path)
		_, _ = w.Write([]byte(`[{"symbol":"ETH","name":"Ether","network":"eth"},{"symbol":"USDC","name":"USD Coin","network":"sol"}]`))
	})

	list, err := c.ListTradableCurrencies(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sol", list[1].Network)
}

func TestConfirmProof(t *testing.T) {
	c := newTestRelayer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathConfirmProof, r.URL.Path)
		var body confirmProofRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, confirmProofRequest{OrderID: "o", ProofHash: "0xh", IdentityCommitment: "c"}, body)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.ConfirmProof(context.Background(), "o", "0xh", "c"))
}

func TestMapOneClickStatus(t *testing.T) {
	tests := map[string]string{
		"PENDING_DEPOSIT":    types.StatusWaiting,
		"INCOMPLETE_DEPOSIT": types.StatusWaiting,
		"KNOWN_DEPOSIT_TX":   types.StatusConfirming,
		"PROCESSING":         types.StatusExchanging,
		"SUCCESS":            types.StatusFinished,
		"REFUNDED":           types.StatusRefunded,
		"FAILED":             types.StatusFailed,
		"SOMETHING_NEW":      "something_new",
	}
	for in, want := range tests {
		assert.Equal(t, want, MapOneClickStatus(in), in)
	}
}
