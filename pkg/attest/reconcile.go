package attest

import (
	"fmt"

	"anonswap/pkg/journal"
)

// Reconciliation compares a journaled swap against its recomputed attestation
type Reconciliation struct {
	Attestation       *Attestation `json:"attestation"`
	CommitmentMatches bool         `json:"commitmentMatches"`
	// ProofRecorded is false when the proof hash never reached the journal
	ProofRecorded bool `json:"proofRecorded"`
	ProofMatches  bool `json:"proofMatches"`
}

// OK reports whether the journal agrees with the recomputed attestation
func (r *Reconciliation) OK() bool {
	return r.CommitmentMatches && r.ProofRecorded && r.ProofMatches
}

// ParamsFromEntry rebuilds the attested parameters of a journaled swap
func ParamsFromEntry(e journal.Entry) Params {
	return Params{
		OrderID:   e.OrderID,
		FromChain: e.FromChain,
		FromToken: e.FromToken,
		ToChain:   e.ToChain,
		ToToken:   e.ToToken,
		Receiver:  e.ReceiverAddress,
		Amount:    e.Amount,
	}
}

// Reconcile recomputes the attestation for e with secret. Since attestation
// is deterministic, a mismatch means the entry was made with another
// identity or edited after the fact.
func (a *Adapter) Reconcile(secret string, e journal.Entry) (*Reconciliation, error) {
	att, err := a.Attest(secret, ParamsFromEntry(e))
	if err != nil {
		return nil, fmt.Errorf("recompute attestation for %s: %w", e.OrderID, err)
	}

	return &Reconciliation{
		Attestation:       att,
		CommitmentMatches: att.IdentityCommitment == e.IdentityCommitment,
		ProofRecorded:     e.ProofHash != "",
		ProofMatches:      att.ProofHash == e.ProofHash,
	}, nil
}
