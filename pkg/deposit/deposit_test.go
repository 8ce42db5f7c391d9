package deposit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"anonswap/config"
	"anonswap/pkg/chains"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int32
		want     string
		wantErr  bool
	}{
		{amount: "1.5", decimals: 18, want: "1500000000000000000"},
		{amount: "0.000000001", decimals: 9, want: "1"},
		{amount: "25", decimals: 6, want: "25000000"},
		{amount: " 2.10 ", decimals: 2, want: "210"},
		{amount: "0.0000001", decimals: 6, wantErr: true},
		{amount: "0", decimals: 18, wantErr: true},
		{amount: "-1", decimals: 18, wantErr: true},
		{amount: "one", decimals: 18, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := toBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestManagerChainSupport(t *testing.T) {
	cfg := config.AutoDepositConfig{
		Enabled: true,
		EVM: map[string]config.EVMNetwork{
			"ethereum": {RPCUrl: "http://localhost:8545", PrivateKey: "0x01"},
			"base":     {RPCUrl: "http://localhost:8546", PrivateKey: "0x01"},
		},
		Solana: config.SolanaConfig{RPCUrl: "http://localhost:8899", PrivateKey: "key"},
	}
	m := NewManager(cfg, chains.NewRegistry(), zap.NewNop())

	assert.True(t, m.IsEnabledForChain("ETH"))
	assert.True(t, m.IsEnabledForChain("solana"))
	assert.False(t, m.IsEnabledForChain("arbitrum"))
	assert.False(t, m.IsEnabledForChain("bitcoin"))
	assert.False(t, m.IsEnabledForChain("dogecoin"))
	assert.Equal(t, []string{"base", "ethereum", "solana"}, m.GetSupportedChains())

	cfg.Enabled = false
	disabled := NewManager(cfg, chains.NewRegistry(), zap.NewNop())
	assert.False(t, disabled.IsEnabledForChain("ethereum"))
	_, err := disabled.SendDeposit(context.Background(), "ethereum", Transfer{To: "0xde709f2102306220921060314715629080e2fb77", Amount: "1"})
	assert.Error(t, err)
}

func TestSendDepositRejectsBadAddressBeforeDialing(t *testing.T) {
	m := NewManager(config.AutoDepositConfig{
		Enabled: true,
		EVM:     map[string]config.EVMNetwork{"ethereum": {RPCUrl: "http://127.0.0.1:1", PrivateKey: "0x01"}},
	}, chains.NewRegistry(), zap.NewNop())

	_, err := m.SendDeposit(context.Background(), "ethereum", Transfer{To: "not-an-address", Amount: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid")
}
