package catalog

import (
	"strings"

	"anonswap/pkg/chains"
	"anonswap/pkg/types"
)

type tokenKey struct {
	symbol string
	ref    string
}

func keyOf(chain chains.Chain, symbol, contract string) tokenKey {
	ref := chains.CanonicalContract(chain, contract)
	if ref == "" {
		ref = chain.ID
	}
	return tokenKey{symbol: strings.ToLower(symbol), ref: ref}
}

// MergeTokens combines the chain's priority list with the dynamic catalog.
// Priority entries come first in list order, then dynamic-only entries in
// catalog order. A coming-soon flag can be raised by either source but is
// never cleared by the dynamic catalog.
func MergeTokens(chain chains.Chain, priority []types.Token, dynamic []types.Currency) []types.Token {
	merged := make([]types.Token, 0, len(priority)+len(dynamic))
	index := make(map[tokenKey]int, len(priority)+len(dynamic))

	for _, t := range priority {
		t.ChainID = chain.ID
		t.Priority = true
		t.ContractAddress = chains.CanonicalContract(chain, t.ContractAddress)
		k := keyOf(chain, t.Symbol, t.ContractAddress)
		if i, ok := index[k]; ok {
			merged[i] = t
			continue
		}
		index[k] = len(merged)
		merged = append(merged, t)
	}

	for _, c := range dynamic {
		if !matchesChain(c, chain) {
			continue
		}

		contract := chains.CanonicalContract(chain, c.ContractAddress)
		known, hasKnown := chains.LookupContract(chain.ID, c.Symbol)
		if contract == "" && hasKnown && !isNativeSymbol(c.Symbol, chain) {
			contract = known.Address
		}

		k := keyOf(chain, c.Symbol, contract)
		if i, ok := index[k]; ok {
			existing := &merged[i]
			if c.Name != "" {
				existing.Name = c.Name
			}
			existing.ComingSoon = existing.ComingSoon || (hasKnown && known.ComingSoon)
			continue
		}

		index[k] = len(merged)
		merged = append(merged, types.Token{
			Symbol:          strings.ToUpper(c.Symbol),
			Name:            c.Name,
			ChainID:         chain.ID,
			ContractAddress: contract,
			Priority:        false,
			ComingSoon:      hasKnown && known.ComingSoon,
		})
	}

	return merged
}

func matchesChain(c types.Currency, chain chains.Chain) bool {
	for _, have := range []string{c.Symbol, c.Network} {
		if have == "" {
			continue
		}
		if strings.EqualFold(have, chain.Symbol) || strings.EqualFold(have, chain.ID) {
			return true
		}
		for _, alias := range chain.Aliases {
			if strings.EqualFold(have, alias) {
				return true
			}
		}
	}
	return false
}

func isNativeSymbol(symbol string, chain chains.Chain) bool {
	return strings.EqualFold(symbol, chain.Symbol)
}

// FindToken looks up a token by symbol (case-insensitive) within a merged set
func FindToken(tokens []types.Token, symbol string) (types.Token, bool) {
	for _, t := range tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return types.Token{}, false
}
