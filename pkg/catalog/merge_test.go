package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"anonswap/pkg/chains"
	"anonswap/pkg/retry"
	"anonswap/pkg/types"
)

func mustChain(t *testing.T, id string) chains.Chain {
	t.Helper()
	c, ok := chains.NewRegistry().GetChain(id)
	require.True(t, ok)
	return c
}

func symbols(tokens []types.Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Symbol
	}
	return out
}

func TestMergeTokensEmptyDynamicYieldsPriorityList(t *testing.T) {
	eth := mustChain(t, "ethereum")
	priority := chains.PriorityTokens("ethereum")

	got := MergeTokens(eth, priority, nil)
	assert.Equal(t, priority, got)

	dai, ok := FindToken(got, "DAI")
	require.True(t, ok)
	assert.True(t, dai.ComingSoon)
}

func TestMergeTokensOrderingAndFiltering(t *testing.T) {
	eth := mustChain(t, "ethereum")
	dynamic := []types.Currency{
		{Symbol: "LINK", Name: "Chainlink", Network: "eth", ContractAddress: "0x514910771AF9Ca656af840dff83E8264EcF986CA"},
		{Symbol: "SOL", Name: "Solana", Network: "sol"},
		{Symbol: "usdc", Name: "USD Coin (bridged)", Network: "ethereum"},
		{Symbol: "UNI", Name: "Uniswap", Network: "ETHEREUM", ContractAddress: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"},
	}

	got := MergeTokens(eth, chains.PriorityTokens("ethereum"), dynamic)
	assert.Equal(t, []string{"ETH", "USDC", "USDT", "DAI", "LINK", "UNI"}, symbols(got))

	usdc, ok := FindToken(got, "USDC")
	require.True(t, ok)
	assert.Equal(t, "USD Coin (bridged)", usdc.Name)
	assert.True(t, usdc.Priority)

	link, ok := FindToken(got, "LINK")
	require.True(t, ok)
	assert.False(t, link.Priority)
	assert.False(t, link.ComingSoon)
	assert.Equal(t, "ethereum", link.ChainID)
}

func TestMergeTokensNeverClearsComingSoon(t *testing.T) {
	eth := mustChain(t, "ethereum")
	dynamic := []types.Currency{
		{Symbol: "DAI", Name: "Dai", Network: "ethereum", ContractAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
	}

	got := MergeTokens(eth, chains.PriorityTokens("ethereum"), dynamic)
	dai, ok := FindToken(got, "DAI")
	require.True(t, ok)
	assert.True(t, dai.ComingSoon)
	assert.Equal(t, "Dai", dai.Name)
}

func TestMergeTokensKnownContractFlagsNewEntries(t *testing.T) {
	eth := mustChain(t, "ethereum")
	dynamic := []types.Currency{{Symbol: "PEPE", Name: "Pepe", Network: "ethereum"}}

	got := MergeTokens(eth, chains.PriorityTokens("ethereum"), dynamic)
	pepe, ok := FindToken(got, "PEPE")
	require.True(t, ok)
	assert.True(t, pepe.ComingSoon)
	assert.Equal(t, "0x6982508145454Ce325dDbE47a25d4ec3d2311933", pepe.ContractAddress)
}

func TestMergeTokensDistinguishesContracts(t *testing.T) {
	eth := mustChain(t, "ethereum")
	dynamic := []types.Currency{
		{Symbol: "USDT", Name: "Fake Tether", Network: "ethereum", ContractAddress: "0x0000000000000000000000000000000000000001"},
	}

	got := MergeTokens(eth, chains.PriorityTokens("ethereum"), dynamic)
	count := 0
	for _, tok := range got {
		if tok.Symbol == "USDT" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestMergeTokensMatchesLowercaseEVMContracts(t *testing.T) {
	eth := mustChain(t, "ethereum")
	dynamic := []types.Currency{
		{Symbol: "USDC", Name: "USD Coin", Network: "ethereum", ContractAddress: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"},
		{Symbol: "dai", Name: "Dai", Network: "eth", ContractAddress: "0x6b175474e89094c44da98b954eedeac495271d0f"},
		{Symbol: "LINK", Name: "Chainlink", Network: "ethereum", ContractAddress: "0x514910771af9ca656af840dff83e8264ecf986ca"},
	}

	got := MergeTokens(eth, chains.PriorityTokens("ethereum"), dynamic)
	assert.Equal(t, []string{"ETH", "USDC", "USDT", "DAI", "LINK"}, symbols(got))

	dai, ok := FindToken(got, "DAI")
	require.True(t, ok)
	assert.True(t, dai.ComingSoon)
	assert.True(t, dai.Priority)

	link, ok := FindToken(got, "LINK")
	require.True(t, ok)
	assert.Equal(t, "0x514910771AF9Ca656af840dff83E8264EcF986CA", link.ContractAddress)
}

func TestCanonicalContractIsFamilySpecific(t *testing.T) {
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		chains.CanonicalContract(mustChain(t, "bsc"), "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"))
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		chains.CanonicalContract(mustChain(t, "solana"), " EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v "))
	assert.Empty(t, chains.CanonicalContract(mustChain(t, "ethereum"), ""))
}

func TestMergeTokensIsIdempotent(t *testing.T) {
	sol := mustChain(t, "solana")
	dynamic := []types.Currency{
		{Symbol: "JUP", Name: "Jupiter", Network: "solana"},
		{Symbol: "SOL", Name: "Solana", Network: "solana"},
		{Symbol: "WIF", Name: "dogwifhat", Network: "sol", ContractAddress: "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"},
	}

	first, err := json.Marshal(MergeTokens(sol, chains.PriorityTokens("solana"), dynamic))
	require.NoError(t, err)
	second, err := json.Marshal(MergeTokens(sol, chains.PriorityTokens("solana"), dynamic))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

type fakeLister struct {
	calls atomic.Int32
	list  []types.Currency
	err   error
}

func (f *fakeLister) ListTradableCurrencies(context.Context) ([]types.Currency, error) {
	f.calls.Add(1)
	return f.list, f.err
}

func noRetry() retry.Config {
	return retry.Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestCatalogFallsBackToPriorityOnFetchFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("exchange down")}
	c := NewCatalog(chains.NewRegistry(), lister, zap.NewNop(), WithRetry(noRetry()))

	got, err := c.Tokens(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, chains.PriorityTokens("bitcoin"), got)
}

func TestCatalogCachesWithinTTL(t *testing.T) {
	lister := &fakeLister{list: []types.Currency{{Symbol: "LINK", Name: "Chainlink", Network: "ethereum"}}}
	c := NewCatalog(chains.NewRegistry(), lister, zap.NewNop(), WithTTL(time.Hour), WithRetry(noRetry()))

	_, err := c.Tokens(context.Background(), "ethereum")
	require.NoError(t, err)
	got, err := c.Tokens(context.Background(), "ethereum")
	require.NoError(t, err)

	assert.Equal(t, int32(1), lister.calls.Load())
	_, ok := FindToken(got, "LINK")
	assert.True(t, ok)

	_, ok = FindToken(c.Cached("ethereum"), "LINK")
	assert.True(t, ok)

	c.Refresh()
	_, err = c.Tokens(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Equal(t, int32(2), lister.calls.Load())
}

func TestCatalogUnknownChain(t *testing.T) {
	c := NewCatalog(chains.NewRegistry(), &fakeLister{}, zap.NewNop())
	_, err := c.Tokens(context.Background(), "dogecoin")
	assert.Error(t, err)
	assert.Nil(t, c.Cached("dogecoin"))
}
