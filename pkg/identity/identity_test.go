package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anonswap/pkg/kv"
)

func TestCommitmentIsDeterministic(t *testing.T) {
	var p LocalProver

	a, err := p.Commitment("secret-one")
	require.NoError(t, err)
	b, err := p.Commitment("secret-one")
	require.NoError(t, err)
	c, err := p.Commitment("secret-two")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	_, err = p.Commitment("")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestProveBindsAllInputs(t *testing.T) {
	var p LocalProver

	base, err := p.Prove("s", "ctx", "msg", "scope")
	require.NoError(t, err)
	again, err := p.Prove("s", "ctx", "msg", "scope")
	require.NoError(t, err)
	assert.Equal(t, base.Bytes(), again.Bytes())

	for _, other := range [][4]string{
		{"s2", "ctx", "msg", "scope"},
		{"s", "ctx2", "msg", "scope"},
		{"s", "ctx", "msg2", "scope"},
		{"s", "ctx", "msg", "scope2"},
	} {
		proof, err := p.Prove(other[0], other[1], other[2], other[3])
		require.NoError(t, err)
		assert.NotEqual(t, base.Points, proof.Points, "%v", other)
	}

	commitment, err := p.Commitment("s")
	require.NoError(t, err)
	assert.Equal(t, commitment, base.Commitment)
}

func TestSecretStorage(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	_, err := LoadSecret(ctx, store)
	assert.ErrorIs(t, err, ErrNoSecret)

	secret, err := NewSecret()
	require.NoError(t, err)
	require.Len(t, secret, 64)

	require.NoError(t, SaveSecret(ctx, store, secret))
	got, err := LoadSecret(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	assert.ErrorIs(t, SaveSecret(ctx, store, " "), ErrNoSecret)
}
