package chains

import "strings"

// Family groups chains that share an address format
type Family string

const (
	FamilyEVM     Family = "evm"
	FamilyBitcoin Family = "bitcoin"
	FamilySolana  Family = "solana"
	FamilyNear    Family = "near"
	FamilyTron    Family = "tron"
	FamilyZcash   Family = "zcash"
	FamilyMonero  Family = "monero"
)

// Chain is a supported network
type Chain struct {
	ID        string
	Name      string
	Symbol    string
	Family    Family
	Available bool
	Aliases   []string
}

var supportedChains = []Chain{
	{ID: "ethereum", Name: "Ethereum", Symbol: "ETH", Family: FamilyEVM, Available: true, Aliases: []string{"eth"}},
	{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Family: FamilyBitcoin, Available: true, Aliases: []string{"btc"}},
	{ID: "solana", Name: "Solana", Symbol: "SOL", Family: FamilySolana, Available: true, Aliases: []string{"sol"}},
	{ID: "bsc", Name: "BNB Smart Chain", Symbol: "BNB", Family: FamilyEVM, Available: true, Aliases: []string{"bnb", "binance"}},
	{ID: "arbitrum", Name: "Arbitrum One", Symbol: "ARB", Family: FamilyEVM, Available: true, Aliases: []string{"arb"}},
	{ID: "base", Name: "Base", Symbol: "BASE", Family: FamilyEVM, Available: true},
	{ID: "polygon", Name: "Polygon", Symbol: "POL", Family: FamilyEVM, Available: true, Aliases: []string{"matic"}},
	{ID: "near", Name: "NEAR Protocol", Symbol: "NEAR", Family: FamilyNear, Available: true},
	{ID: "tron", Name: "Tron", Symbol: "TRX", Family: FamilyTron, Available: true, Aliases: []string{"trx"}},
	{ID: "zcash", Name: "Zcash", Symbol: "ZEC", Family: FamilyZcash, Available: true, Aliases: []string{"zec"}},
	{ID: "monero", Name: "Monero", Symbol: "XMR", Family: FamilyMonero, Available: false, Aliases: []string{"xmr"}},
}

// Registry answers chain lookups and address checks over the static chain table
type Registry struct {
	chains []Chain
	index  map[string]int
}

// NewRegistry returns the registry of built-in chains
func NewRegistry() *Registry {
	return newRegistry(supportedChains)
}

func newRegistry(list []Chain) *Registry {
	r := &Registry{
		chains: list,
		index:  make(map[string]int, len(list)*2),
	}
	for i, c := range list {
		r.index[strings.ToLower(c.ID)] = i
		for _, alias := range c.Aliases {
			r.index[strings.ToLower(alias)] = i
		}
	}
	return r
}

// ListChains returns every chain in display order
func (r *Registry) ListChains() []Chain {
	out := make([]Chain, len(r.chains))
	copy(out, r.chains)
	return out
}

// GetChain resolves a chain by id or alias (case-insensitive)
func (r *Registry) GetChain(id string) (Chain, bool) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Chain{}, false
	}
	return r.chains[i], true
}

// ValidateAddress reports whether address is well-formed for the chain.
// Unknown chains and malformed input yield false.
func (r *Registry) ValidateAddress(address, chainID string) bool {
	c, ok := r.GetChain(chainID)
	if !ok {
		return false
	}
	return ValidateAddress(address, c)
}
