package chains

import (
	"strings"

	"anonswap/pkg/types"
)

// KnownContract is a curated contract address for a symbol on a chain
type KnownContract struct {
	Address    string
	ComingSoon bool
}

var priorityTokens = map[string][]types.Token{
	"ethereum": {
		{Symbol: "ETH", Name: "Ether"},
		{Symbol: "USDC", Name: "USD Coin", ContractAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
		{Symbol: "USDT", Name: "Tether USD", ContractAddress: "0xdAC17F958D2ee523a2206206994597C13D831ec7"},
		{Symbol: "DAI", Name: "Dai Stablecoin", ContractAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F", ComingSoon: true},
	},
	"bitcoin": {
		{Symbol: "BTC", Name: "Bitcoin"},
	},
	"solana": {
		{Symbol: "SOL", Name: "Solana"},
		{Symbol: "USDC", Name: "USD Coin", ContractAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
		{Symbol: "BONK", Name: "Bonk", ContractAddress: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", ComingSoon: true},
	},
	"bsc": {
		{Symbol: "BNB", Name: "BNB"},
		{Symbol: "USDT", Name: "Tether USD", ContractAddress: "0x55d398326f99059fF775485246999027B3197955"},
	},
	"arbitrum": {
		{Symbol: "ETH", Name: "Ether"},
		{Symbol: "ARB", Name: "Arbitrum", ContractAddress: "0x912CE59144191C1204E64559FE8253a0e49E6548"},
	},
	"base": {
		{Symbol: "ETH", Name: "Ether"},
	},
	"polygon": {
		{Symbol: "POL", Name: "Polygon Ecosystem Token"},
	},
	"near": {
		{Symbol: "NEAR", Name: "NEAR"},
	},
	"tron": {
		{Symbol: "TRX", Name: "Tronix"},
		{Symbol: "USDT", Name: "Tether USD", ContractAddress: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"},
	},
	"zcash": {
		{Symbol: "ZEC", Name: "Zcash"},
	},
	"monero": {
		{Symbol: "XMR", Name: "Monero", ComingSoon: true},
	},
}

// Contracts the catalog may report without an address; the flag marks ones
// we have not enabled yet.
var knownContracts = map[string]map[string]KnownContract{
	"ethereum": {
		"usdc": {Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
		"usdt": {Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7"},
		"dai":  {Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", ComingSoon: true},
		"wbtc": {Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"},
		"pepe": {Address: "0x6982508145454Ce325dDbE47a25d4ec3d2311933", ComingSoon: true},
	},
	"solana": {
		"usdc": {Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
		"bonk": {Address: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", ComingSoon: true},
		"jup":  {Address: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN", ComingSoon: true},
	},
	"bsc": {
		"usdt": {Address: "0x55d398326f99059fF775485246999027B3197955"},
	},
	"tron": {
		"usdt": {Address: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"},
	},
}

// PriorityTokens returns the curated tokens for a chain, stamped with its id
func PriorityTokens(chainID string) []types.Token {
	list := priorityTokens[strings.ToLower(chainID)]
	out := make([]types.Token, len(list))
	for i, t := range list {
		t.ChainID = strings.ToLower(chainID)
		t.Priority = true
		out[i] = t
	}
	return out
}

// LookupContract returns the known contract mapping for symbol on chainID
func LookupContract(chainID, symbol string) (KnownContract, bool) {
	byChain, ok := knownContracts[strings.ToLower(chainID)]
	if !ok {
		return KnownContract{}, false
	}
	kc, ok := byChain[strings.ToLower(symbol)]
	return kc, ok
}
