package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderRequest(t *testing.T) {
	req := SwapRequest{
		FromChain:       "ethereum",
		FromToken:       "ETH",
		Amount:          "1.5",
		ToChain:         "bitcoin",
		ToToken:         "BTC",
		ReceiverAddress: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
	}

	got := NewOrderRequest(req)
	assert.Equal(t, OrderRequest{
		FromChain:    "ethereum",
		ToChain:      "bitcoin",
		CurrencyFrom: "ETH",
		CurrencyTo:   "BTC",
		AmountFrom:   "1.5",
		AddressTo:    "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
	}, got)
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusSending))
	assert.True(t, IsTerminalStatus(StatusFinished))
	assert.False(t, IsTerminalStatus(StatusWaiting))
	assert.False(t, IsTerminalStatus(StatusExchanging))
	assert.False(t, IsTerminalStatus("unknown"))
}
