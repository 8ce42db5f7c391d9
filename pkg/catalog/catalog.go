package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"anonswap/pkg/chains"
	"anonswap/pkg/retry"
	"anonswap/pkg/types"
)

// CurrencyLister fetches the exchange's tradable currencies
type CurrencyLister interface {
	ListTradableCurrencies(ctx context.Context) ([]types.Currency, error)
}

// Catalog serves merged per-chain token lists, refreshing the dynamic part
// from the exchange at most once per TTL.
type Catalog struct {
	registry *chains.Registry
	lister   CurrencyLister
	logger   *zap.Logger
	ttl      time.Duration
	retry    retry.Config
	now      func() time.Time

	mu        sync.Mutex
	fetchedAt time.Time
	dynamic   []types.Currency
}

// Option customises a Catalog
type Option func(*Catalog)

// WithTTL sets how long a fetched currency list is reused
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) { c.ttl = ttl }
}

// WithRetry overrides the fetch retry policy
func WithRetry(cfg retry.Config) Option {
	return func(c *Catalog) { c.retry = cfg }
}

// NewCatalog creates a catalog backed by lister
func NewCatalog(registry *chains.Registry, lister CurrencyLister, logger *zap.Logger, opts ...Option) *Catalog {
	c := &Catalog{
		registry: registry,
		lister:   lister,
		logger:   logger,
		ttl:      5 * time.Minute,
		retry:    retry.DefaultConfig(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the merged token list for chainID. A failed catalog fetch
// degrades to the priority list; only an unknown chain is an error.
func (c *Catalog) Tokens(ctx context.Context, chainID string) ([]types.Token, error) {
	chain, ok := c.registry.GetChain(chainID)
	if !ok {
		return nil, fmt.Errorf("unsupported chain: %s", chainID)
	}

	dynamic, err := c.currencies(ctx)
	if err != nil {
		c.logger.Warn("Tradable currency fetch failed, using priority tokens only",
			zap.String("chain", chain.ID),
			zap.Error(err))
		dynamic = nil
	}

	return MergeTokens(chain, chains.PriorityTokens(chain.ID), dynamic), nil
}

// Cached returns the merged list using only what is already in memory. It
// never touches the network, which keeps request validation synchronous.
func (c *Catalog) Cached(chainID string) []types.Token {
	chain, ok := c.registry.GetChain(chainID)
	if !ok {
		return nil
	}

	c.mu.Lock()
	dynamic := c.dynamic
	c.mu.Unlock()

	return MergeTokens(chain, chains.PriorityTokens(chain.ID), dynamic)
}

// Refresh forces the next Tokens call to refetch the dynamic catalog
func (c *Catalog) Refresh() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Catalog) currencies(ctx context.Context) ([]types.Currency, error) {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		cached := c.dynamic
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	if c.lister == nil {
		return nil, fmt.Errorf("no currency source configured")
	}

	var fetched []types.Currency
	err := retry.WithBackoff(ctx, c.retry, c.logger, "list tradable currencies", func(ctx context.Context) error {
		list, err := c.lister.ListTradableCurrencies(ctx)
		if err != nil {
			return err
		}
		fetched = list
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.dynamic = fetched
	c.fetchedAt = c.now()
	c.mu.Unlock()

	return fetched, nil
}
