package parser

import (
	"fmt"
	"regexp"
	"strings"

	"anonswap/pkg/chains"
	"anonswap/pkg/types"
)

// <amount> <token> [on <chain>] to <token> [on <chain>]
var swapPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)(?:\s+ON\s+([A-Z0-9_-]+))?\s+TO\s+([A-Z0-9]+)(?:\s+ON\s+([A-Z0-9_-]+))?$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 SOL to USDC"
//   - "1.5 ETH to BTC"
//   - "100 USDC on ethereum to SOL on solana"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.Join(strings.Fields(strings.ToUpper(command)), " ")
	command = strings.TrimPrefix(command, "SWAP ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> [on <chain>] to <token> [on <chain>]' (e.g., 'swap 1 SOL to USDC')")
	}

	return &types.SwapRequest{
		Amount:    matches[1],
		FromToken: NormalizeTokenSymbol(matches[2]),
		FromChain: strings.ToLower(matches[3]),
		ToToken:   NormalizeTokenSymbol(matches[4]),
		ToChain:   strings.ToLower(matches[5]),
	}, nil
}

// ResolveChains fills in a missing chain when the token is that chain's
// native asset, and canonicalises chain aliases to their ids. Chains that
// cannot be inferred are left empty for validation to report.
func ResolveChains(req *types.SwapRequest, registry *chains.Registry) {
	req.FromChain = resolveChain(req.FromChain, req.FromToken, registry)
	req.ToChain = resolveChain(req.ToChain, req.ToToken, registry)
}

func resolveChain(chainID, symbol string, registry *chains.Registry) string {
	if chainID != "" {
		if c, ok := registry.GetChain(chainID); ok {
			return c.ID
		}
		return chainID
	}

	for _, c := range registry.ListChains() {
		if strings.EqualFold(c.Symbol, symbol) {
			return c.ID
		}
	}
	return ""
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"WETH":  "ETH",
		"WSOL":  "SOL",
		"MATIC": "POL",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
