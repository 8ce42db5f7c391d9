package validator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"anonswap/pkg/chains"
	"anonswap/pkg/types"
)

// Reason classifies why a swap request was rejected
type Reason string

const (
	ReasonIdentityRequired Reason = "IdentityRequired"
	ReasonMissingField     Reason = "MissingField"
	ReasonUnsupportedChain Reason = "UnsupportedChain"
	ReasonInvalidAmount    Reason = "InvalidAmount"
	ReasonInvalidAddress   Reason = "InvalidAddress"
	ReasonTokenUnavailable Reason = "TokenUnavailable"
)

// ValidationError is returned for a request that must not reach the exchange
type ValidationError struct {
	Reason  Reason
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Reason, e.Field, e.Message)
}

// TokenLookup resolves an already-merged token. It must not do I/O.
type TokenLookup func(chainID, symbol string) (types.Token, bool)

// Validator checks swap requests against the chain registry and token catalog
type Validator struct {
	registry *chains.Registry
	lookup   TokenLookup
}

// New creates a validator. A nil lookup treats every token as unknown.
func New(registry *chains.Registry, lookup TokenLookup) *Validator {
	return &Validator{registry: registry, lookup: lookup}
}

// Validate returns nil or a *ValidationError. Checks run in a fixed order and
// the first failure wins.
func (v *Validator) Validate(req types.SwapRequest, identitySecret string) error {
	if strings.TrimSpace(identitySecret) == "" {
		return &ValidationError{Reason: ReasonIdentityRequired, Message: "an identity is required to create a swap"}
	}

	required := []struct {
		field string
		value string
	}{
		{"fromChain", req.FromChain},
		{"fromToken", req.FromToken},
		{"amount", req.Amount},
		{"toChain", req.ToChain},
		{"toToken", req.ToToken},
		{"receiverAddress", req.ReceiverAddress},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Reason: ReasonMissingField, Field: r.field, Message: r.field + " is required"}
		}
	}

	fromChain, ok := v.registry.GetChain(req.FromChain)
	if !ok {
		return &ValidationError{Reason: ReasonUnsupportedChain, Field: "fromChain", Message: "unsupported chain " + req.FromChain}
	}
	toChain, ok := v.registry.GetChain(req.ToChain)
	if !ok {
		return &ValidationError{Reason: ReasonUnsupportedChain, Field: "toChain", Message: "unsupported chain " + req.ToChain}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return &ValidationError{Reason: ReasonInvalidAmount, Field: "amount", Message: fmt.Sprintf("amount %q must be a positive decimal", req.Amount)}
	}

	if !chains.ValidateAddress(req.ReceiverAddress, toChain) {
		return &ValidationError{Reason: ReasonInvalidAddress, Field: "receiverAddress", Message: "receiver address is not valid for " + toChain.Name}
	}
	if req.RefundAddress != "" && !chains.ValidateAddress(req.RefundAddress, fromChain) {
		return &ValidationError{Reason: ReasonInvalidAddress, Field: "refundAddress", Message: "refund address is not valid for " + fromChain.Name}
	}

	if err := v.checkAvailable(fromChain, req.FromToken, "fromToken"); err != nil {
		return err
	}
	return v.checkAvailable(toChain, req.ToToken, "toToken")
}

func (v *Validator) checkAvailable(chain chains.Chain, symbol, field string) error {
	if !chain.Available {
		return &ValidationError{Reason: ReasonTokenUnavailable, Field: field, Message: chain.Name + " is coming soon"}
	}
	if v.lookup == nil {
		return nil
	}
	if tok, ok := v.lookup(chain.ID, symbol); ok && tok.ComingSoon {
		return &ValidationError{Reason: ReasonTokenUnavailable, Field: field, Message: fmt.Sprintf("%s on %s is coming soon", tok.Symbol, chain.Name)}
	}
	return nil
}
