package deposit

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"anonswap/config"
	"anonswap/pkg/chains"
)

// Transfer describes one deposit to send from the configured hot wallet
type Transfer struct {
	To     string
	Amount string
	// TokenContract is empty for the chain's native asset
	TokenContract string
}

// Depositor sends deposits on one chain
type Depositor interface {
	SendDeposit(ctx context.Context, t Transfer) (string, error)
	Close()
}

// Manager handles auto-deposit for different blockchains
type Manager struct {
	config   config.AutoDepositConfig
	registry *chains.Registry
	logger   *zap.Logger
}

// NewManager creates a new deposit manager
func NewManager(cfg config.AutoDepositConfig, registry *chains.Registry, logger *zap.Logger) *Manager {
	return &Manager{
		config:   cfg,
		registry: registry,
		logger:   logger.Named("deposit"),
	}
}

// IsEnabled returns whether auto-deposit is enabled globally
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// IsEnabledForChain reports whether a hot wallet is configured for chainID
func (m *Manager) IsEnabledForChain(chainID string) bool {
	if !m.config.Enabled {
		return false
	}

	c, ok := m.registry.GetChain(chainID)
	if !ok {
		return false
	}

	switch c.Family {
	case chains.FamilyEVM:
		_, ok := m.config.EVM[c.ID]
		return ok
	case chains.FamilySolana:
		return m.config.Solana.RPCUrl != "" && m.config.Solana.PrivateKey != ""
	default:
		return false
	}
}

// SendDeposit sends t on chainID and returns the transaction id
func (m *Manager) SendDeposit(ctx context.Context, chainID string, t Transfer) (string, error) {
	if !m.IsEnabled() {
		return "", fmt.Errorf("auto-deposit is not enabled in configuration")
	}
	if !m.IsEnabledForChain(chainID) {
		return "", fmt.Errorf("auto-deposit is not enabled for chain: %s", chainID)
	}

	c, _ := m.registry.GetChain(chainID)
	if !chains.ValidateAddress(t.To, c) {
		return "", fmt.Errorf("deposit address %s is not valid for %s", t.To, c.Name)
	}

	var (
		depositor Depositor
		err       error
	)
	switch c.Family {
	case chains.FamilyEVM:
		depositor, err = NewEVMDepositor(ctx, c.ID, m.config.EVM[c.ID])
	case chains.FamilySolana:
		depositor, err = NewSolanaDepositor(m.config.Solana)
	default:
		err = fmt.Errorf("auto-deposit not supported for chain: %s", chainID)
	}
	if err != nil {
		return "", err
	}
	defer depositor.Close()

	m.logger.Info("Sending deposit",
		zap.String("chain", c.ID),
		zap.String("to", t.To),
		zap.String("amount", t.Amount),
		zap.String("token", t.TokenContract))

	txid, err := depositor.SendDeposit(ctx, t)
	if err != nil {
		return "", err
	}

	m.logger.Info("Deposit sent", zap.String("chain", c.ID), zap.String("txid", txid))
	return txid, nil
}

// GetSupportedChains returns the chain ids that have a hot wallet configured
func (m *Manager) GetSupportedChains() []string {
	supported := make([]string, 0, len(m.config.EVM)+1)
	for id := range m.config.EVM {
		if m.IsEnabledForChain(id) {
			supported = append(supported, id)
		}
	}
	if m.IsEnabledForChain("solana") {
		supported = append(supported, "solana")
	}
	sort.Strings(supported)
	return supported
}

// toBaseUnits converts a human amount into the token's smallest unit,
// rejecting amounts that are not positive or carry more precision than the
// token supports.
func toBaseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	if !d.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %s", amount)
	}

	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return scaled.BigInt(), nil
}
