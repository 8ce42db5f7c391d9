package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anonswap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "store:\n  path: /tmp/anonswap-test.json\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ExchangeRelayer, cfg.Exchange)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.DepositWindow)
	assert.Equal(t, 3*time.Second, cfg.SettleDelay)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	assert.Equal(t, "/tmp/anonswap-test.json", cfg.Store.Path)
	assert.Same(t, cfg, Get())
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
exchange: oneclick
jwt_token: abc
base_url: https://example.test/
poll_interval: 2s
store:
  backend: redis
  redis_addr: cache:6379
auto_deposit:
  enabled: true
  evm:
    ethereum:
      rpc_url: https://rpc.example
      private_key: "0x01"
      chain_id: 1
  solana:
    rpc_url: https://sol.example
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ExchangeOneClick, cfg.Exchange)
	assert.Equal(t, "https://example.test", cfg.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	require.True(t, cfg.AutoDeposit.Enabled)
	require.Contains(t, cfg.AutoDeposit.EVM, "ethereum")
	assert.Equal(t, int64(1), cfg.AutoDeposit.EVM["ethereum"].ChainID)
	assert.Equal(t, "https://sol.example", cfg.AutoDeposit.Solana.RPCUrl)
}

func TestValidate(t *testing.T) {
	base := Config{
		Exchange:      ExchangeRelayer,
		BaseURL:       "https://relay.test",
		Store:         StoreConfig{Backend: StoreFile},
		PollInterval:  time.Second,
		DepositWindow: time.Minute,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown exchange", mutate: func(c *Config) { c.Exchange = "dex" }, wantErr: true},
		{name: "oneclick without jwt", mutate: func(c *Config) { c.Exchange = ExchangeOneClick }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Backend = "s3" }, wantErr: true},
		{name: "zero poll interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantErr: true},
		{name: "negative settle delay", mutate: func(c *Config) { c.SettleDelay = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "log_level: info\nstore:\n  path: /tmp/anonswap-test.json\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "warn", "")
	flags.String("exchange", "", "")
	require.NoError(t, flags.Parse([]string{"--log-level", "debug"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ExchangeRelayer, cfg.Exchange)
}
