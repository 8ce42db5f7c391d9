package attest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"anonswap/pkg/identity"
	"anonswap/pkg/journal"
)

func journaled(t *testing.T, a *Adapter, secret string) journal.Entry {
	t.Helper()
	p := params()
	att, err := a.Attest(secret, p)
	require.NoError(t, err)

	return journal.Entry{
		OrderID:            p.OrderID,
		IdentityCommitment: att.IdentityCommitment,
		FromChain:          p.FromChain,
		FromToken:          p.FromToken,
		ToChain:            p.ToChain,
		ToToken:            p.ToToken,
		ReceiverAddress:    p.Receiver,
		Amount:             p.Amount,
		ProofHash:          att.ProofHash,
		CreatedAt:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:             "waiting",
	}
}

func TestReconcileMatchingEntry(t *testing.T) {
	a := NewAdapter(identity.LocalProver{}, nil, zap.NewNop())
	e := journaled(t, a, "secret")

	r, err := a.Reconcile("secret", e)
	require.NoError(t, err)
	assert.True(t, r.OK())
	assert.Equal(t, e.ProofHash, r.Attestation.ProofHash)
}

func TestReconcileDetectsMismatches(t *testing.T) {
	a := NewAdapter(identity.LocalProver{}, nil, zap.NewNop())

	t.Run("other identity", func(t *testing.T) {
		r, err := a.Reconcile("another-secret", journaled(t, a, "secret"))
		require.NoError(t, err)
		assert.False(t, r.CommitmentMatches)
		assert.False(t, r.ProofMatches)
		assert.False(t, r.OK())
	})

	t.Run("edited amount", func(t *testing.T) {
		e := journaled(t, a, "secret")
		e.Amount = "15"
		r, err := a.Reconcile("secret", e)
		require.NoError(t, err)
		assert.True(t, r.CommitmentMatches)
		assert.False(t, r.ProofMatches)
	})

	t.Run("proof never recorded", func(t *testing.T) {
		e := journaled(t, a, "secret")
		e.ProofHash = ""
		r, err := a.Reconcile("secret", e)
		require.NoError(t, err)
		assert.False(t, r.ProofRecorded)
		assert.False(t, r.OK())
	})

	t.Run("corrupt amount", func(t *testing.T) {
		e := journaled(t, a, "secret")
		e.Amount = "lots"
		_, err := a.Reconcile("secret", e)
		assert.Error(t, err)
	})
}
