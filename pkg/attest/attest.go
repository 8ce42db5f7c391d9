package attest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"anonswap/pkg/identity"
)

// proofContext namespaces swap proofs away from other identity uses
const proofContext = "anonswap:swap-attestation"

// ErrNoConfirmer is reported when no remote confirmation endpoint is configured
var ErrNoConfirmer = errors.New("no proof confirmer configured")

// Params are the economic parameters bound by an attestation
type Params struct {
	OrderID   string
	FromChain string
	FromToken string
	ToChain   string
	ToToken   string
	Receiver  string
	Amount    string
}

// Attestation is the proof produced once per order
type Attestation struct {
	OrderID            string `json:"orderId"`
	IdentityCommitment string `json:"identityCommitment"`
	ProofHash          string `json:"proofHash"`
	SignedParameters   string `json:"signedParameters"`
}

// Confirmer submits a proof hash for remote verification
type Confirmer interface {
	ConfirmProof(ctx context.Context, orderID, proofHash, identityCommitment string) error
}

// Adapter produces attestations through an identity prover
type Adapter struct {
	prover    identity.Prover
	confirmer Confirmer
	logger    *zap.Logger
}

// NewAdapter creates an adapter. confirmer may be nil.
func NewAdapter(prover identity.Prover, confirmer Confirmer, logger *zap.Logger) *Adapter {
	return &Adapter{prover: prover, confirmer: confirmer, logger: logger}
}

// Commitment returns the public identity commitment for secret
func (a *Adapter) Commitment(secret string) (string, error) {
	return a.prover.Commitment(secret)
}

// CanonicalMessage renders the parameters in the fixed form that gets proven.
// Chain ids are lowercased, tokens uppercased and the amount normalised so
// that "1.50" and "1.5" bind the same swap.
func CanonicalMessage(p Params) (string, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", p.Amount, err)
	}
	if p.OrderID == "" {
		return "", fmt.Errorf("order id is required")
	}

	return fmt.Sprintf("anonswap:v1|order=%s|from=%s:%s|to=%s:%s|receiver=%s|amount=%s",
		p.OrderID,
		strings.ToLower(p.FromChain), strings.ToUpper(p.FromToken),
		strings.ToLower(p.ToChain), strings.ToUpper(p.ToToken),
		strings.TrimSpace(p.Receiver),
		amount.String(),
	), nil
}

// Attest proves the canonical message with scope = order id. It is a pure
// function of secret and params.
func (a *Adapter) Attest(secret string, p Params) (*Attestation, error) {
	msg, err := CanonicalMessage(p)
	if err != nil {
		return nil, err
	}

	proof, err := a.prover.Prove(secret, proofContext, msg, p.OrderID)
	if err != nil {
		return nil, fmt.Errorf("generate proof: %w", err)
	}

	return &Attestation{
		OrderID:            p.OrderID,
		IdentityCommitment: proof.Commitment,
		ProofHash:          hexutil.Encode(crypto.Keccak256(proof.Bytes())),
		SignedParameters:   msg,
	}, nil
}

// ConfirmAsync submits att in the background and reports the outcome to done.
// Errors never propagate beyond done; callers decide whether the result is
// still relevant.
func (a *Adapter) ConfirmAsync(ctx context.Context, att *Attestation, done func(error)) {
	go func() {
		err := a.Confirm(ctx, att)
		if err != nil {
			a.logger.Warn("Proof confirmation failed",
				zap.String("order_id", att.OrderID),
				zap.Error(err))
		}
		if done != nil {
			done(err)
		}
	}()
}

// Confirm submits att synchronously
func (a *Adapter) Confirm(ctx context.Context, att *Attestation) error {
	if a.confirmer == nil {
		return ErrNoConfirmer
	}
	return a.confirmer.ConfirmProof(ctx, att.OrderID, att.ProofHash, att.IdentityCommitment)
}
