package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anonswap/pkg/chains"
	"anonswap/pkg/types"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.SwapRequest
		wantErr bool
	}{
		{
			name:  "with swap prefix",
			input: "swap 1 SOL to USDC",
			want:  types.SwapRequest{Amount: "1", FromToken: "SOL", ToToken: "USDC"},
		},
		{
			name:  "without prefix lowercase",
			input: "1.5 eth to btc",
			want:  types.SwapRequest{Amount: "1.5", FromToken: "ETH", ToToken: "BTC"},
		},
		{
			name:  "explicit chains",
			input: "swap 100 USDC on ethereum to SOL on solana",
			want:  types.SwapRequest{Amount: "100", FromToken: "USDC", FromChain: "ethereum", ToToken: "SOL", ToChain: "solana"},
		},
		{
			name:  "wrapped alias and extra spaces",
			input: "  swap   2   WETH   to   BTC ",
			want:  types.SwapRequest{Amount: "2", FromToken: "ETH", ToToken: "BTC"},
		},
		{name: "missing destination", input: "swap 1 SOL", wantErr: true},
		{name: "negative amount", input: "swap -1 SOL to USDC", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSwapCommand(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestResolveChains(t *testing.T) {
	r := chains.NewRegistry()

	req := &types.SwapRequest{FromToken: "ETH", ToToken: "BTC"}
	ResolveChains(req, r)
	assert.Equal(t, "ethereum", req.FromChain)
	assert.Equal(t, "bitcoin", req.ToChain)

	req = &types.SwapRequest{FromToken: "USDC", FromChain: "eth", ToToken: "USDC"}
	ResolveChains(req, r)
	assert.Equal(t, "ethereum", req.FromChain)
	assert.Empty(t, req.ToChain)

	req = &types.SwapRequest{FromToken: "SOL", FromChain: "dogecoin", ToToken: "ZEC"}
	ResolveChains(req, r)
	assert.Equal(t, "dogecoin", req.FromChain)
	assert.Equal(t, "zcash", req.ToChain)
}

func TestNormalizeTokenSymbol(t *testing.T) {
	assert.Equal(t, "ETH", NormalizeTokenSymbol(" weth "))
	assert.Equal(t, "POL", NormalizeTokenSymbol("matic"))
	assert.Equal(t, "USDC", NormalizeTokenSymbol("usdc"))
}
