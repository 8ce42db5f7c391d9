package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"anonswap/config"
	"anonswap/pkg/activity"
	"anonswap/pkg/attest"
	"anonswap/pkg/catalog"
	"anonswap/pkg/chains"
	"anonswap/pkg/client"
	"anonswap/pkg/identity"
	"anonswap/pkg/journal"
	"anonswap/pkg/kv"
	"anonswap/pkg/logging"
	"anonswap/pkg/metrics"
	"anonswap/pkg/swap"
	"anonswap/pkg/types"
	"anonswap/pkg/validator"
)

// exchangeClient is what every exchange backend offers
type exchangeClient interface {
	swap.Exchange
	catalog.CurrencyLister
}

// depositNotifier is offered by backends that want the deposit tx hash
type depositNotifier interface {
	SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error
}

// app holds the collaborators shared by the commands
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *chains.Registry
	store    kv.Store
	journal  *journal.Journal
	exchange exchangeClient
	catalog  *catalog.Catalog
	attester *attest.Adapter
	promReg  *prometheus.Registry
	metrics  *metrics.Metrics

	closers []func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: chains.NewRegistry(),
	}

	if err := a.openStore(cmd.Context()); err != nil {
		_ = logger.Sync()
		return nil, err
	}
	a.journal = journal.New(a.store, logger)

	var confirmer attest.Confirmer
	switch cfg.Exchange {
	case config.ExchangeOneClick:
		a.exchange = client.NewOneClickClient(cfg.JWTToken, cfg.DepositWindow, logger)
	default:
		rc := client.NewRelayerClient(client.RelayerOpts{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}, logger)
		a.exchange = rc
		confirmer = rc
	}

	a.catalog = catalog.NewCatalog(a.registry, a.exchange, logger.Named("catalog"), catalog.WithTTL(cfg.CatalogTTL))
	a.attester = attest.NewAdapter(identity.LocalProver{}, confirmer, logger)

	a.promReg = prometheus.NewRegistry()
	a.promReg.MustRegister(collectors.NewGoCollector())
	a.metrics = metrics.New(a.promReg)

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Backend {
	case config.StoreRedis:
		rs, err := kv.NewRedisStore(ctx, kv.RedisOptions{
			Addr:     a.cfg.Store.RedisAddr,
			Password: a.cfg.Store.RedisPass,
			DB:       a.cfg.Store.RedisDB,
		}, a.logger)
		if err != nil {
			return err
		}
		a.store = rs
		a.closers = append(a.closers, rs.Close)
	default:
		fs, err := kv.NewFileStore(a.cfg.Store.Path)
		if err != nil {
			return err
		}
		a.store = fs
	}
	return nil
}

// Close releases the store and flushes the logger
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("Close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// serveMetrics starts the metrics endpoint when one is configured
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.MetricsAddr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, a.cfg.MetricsAddr, a.promReg, a.logger); err != nil {
			a.logger.Warn("Metrics endpoint stopped", zap.Error(err))
		}
	}()
}

// secret returns the configured or stored identity secret, or "" when the
// user has none yet.
func (a *app) secret(ctx context.Context) (string, error) {
	if a.cfg.IdentitySecret != "" {
		return a.cfg.IdentitySecret, nil
	}
	secret, err := identity.LoadSecret(ctx, a.store)
	if errors.Is(err, identity.ErrNoSecret) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return secret, nil
}

func (a *app) tokenLookup(chainID, symbol string) (types.Token, bool) {
	return catalog.FindToken(a.catalog.Cached(chainID), symbol)
}

// warmCatalog fetches the merged lists for the given chains so validation
// sees the exchange's current availability. Unknown chains are skipped.
func (a *app) warmCatalog(ctx context.Context, chainIDs ...string) {
	for _, id := range chainIDs {
		if _, ok := a.registry.GetChain(id); !ok {
			continue
		}
		if _, err := a.catalog.Tokens(ctx, id); err != nil {
			a.logger.Debug("Catalog warm-up failed", zap.String("chain", id), zap.Error(err))
		}
	}
}

func (a *app) newOrchestrator(log *activity.Log) *swap.Orchestrator {
	return swap.New(swap.Deps{
		Exchange:  a.exchange,
		Validator: validator.New(a.registry, a.tokenLookup),
		Attester:  a.attester,
		Journal:   a.journal,
		Activity:  log,
		Metrics:   a.metrics,
	}, swap.Config{
		PollInterval:   a.cfg.PollInterval,
		SettleDelay:    a.cfg.SettleDelay,
		DepositWindow:  a.cfg.DepositWindow,
		HandshakeDelay: a.cfg.HandshakeDelay,
	}, a.logger)
}

func mustApp(cmd *cobra.Command) *app {
	a, err := newApp(cmd)
	if err != nil {
		printError(fmt.Errorf("failed to initialise: %w", err))
		os.Exit(1)
	}
	return a
}
