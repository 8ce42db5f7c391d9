package types

import "time"

// SwapRequest is the user's swap intent before an order exists
type SwapRequest struct {
	FromChain       string
	FromToken       string
	Amount          string
	ToChain         string
	ToToken         string
	ReceiverAddress string
	RefundAddress   string
}

// OrderRequest is the payload sent to the exchange to create an order
type OrderRequest struct {
	FromChain     string `json:"fromChain"`
	ToChain       string `json:"toChain"`
	CurrencyFrom  string `json:"currencyFrom"`
	CurrencyTo    string `json:"currencyTo"`
	AmountFrom    string `json:"amountFrom"`
	AddressTo     string `json:"addressTo"`
	RefundAddress string `json:"refundAddress,omitempty"`
}

// NewOrderRequest maps a validated swap request onto the exchange payload
func NewOrderRequest(req SwapRequest) OrderRequest {
	return OrderRequest{
		FromChain:     req.FromChain,
		ToChain:       req.ToChain,
		CurrencyFrom:  req.FromToken,
		CurrencyTo:    req.ToToken,
		AmountFrom:    req.Amount,
		AddressTo:     req.ReceiverAddress,
		RefundAddress: req.RefundAddress,
	}
}

// SwapOrder is the exchange-side order created for an accepted request.
// Everything except Status is fixed at creation.
type SwapOrder struct {
	OrderID               string    `json:"orderId"`
	DepositAddress        string    `json:"depositAddress"`
	DepositMemo           string    `json:"depositMemo,omitempty"`
	DepositAmount         string    `json:"depositAmount"`
	DepositCurrency       string    `json:"depositCurrency"`
	ExpectedReceiveAmount string    `json:"expectedAmount"`
	ReceiveCurrency       string    `json:"receiveCurrency"`
	CreatedAt             time.Time `json:"createdAt"`
	Status                string    `json:"status"`
}

// Currency is one entry of the exchange's tradable currency list
type Currency struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Network         string `json:"network"`
	ContractAddress string `json:"contractAddress,omitempty"`
}

// Exchange status vocabulary
const (
	StatusWaiting    = "waiting"
	StatusConfirming = "confirming"
	StatusConfirmed  = "confirmed"
	StatusExchanging = "exchanging"
	StatusSending    = "sending"
	StatusFinished   = "finished"
	StatusFailed     = "failed"
	StatusRefunded   = "refunded"
	StatusExpired    = "expired"
)

// IsTerminalStatus reports whether the exchange has paid out (or is paying out).
func IsTerminalStatus(status string) bool {
	return status == StatusSending || status == StatusFinished
}

// Token is a tradable asset on one chain. Identity for merging is
// (lower(symbol), contract address or chain id).
type Token struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	ChainID         string `json:"chainId"`
	ContractAddress string `json:"contractAddress,omitempty"`
	Priority        bool   `json:"priority"`
	ComingSoon      bool   `json:"comingSoon"`
}

// Available reports whether the token can be selected for a swap
func (t Token) Available() bool {
	return !t.ComingSoon
}
