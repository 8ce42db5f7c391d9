package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ExchangeRelayer  = "relayer"
	ExchangeOneClick = "oneclick"

	StoreFile  = "file"
	StoreRedis = "redis"

	DefaultStoreFileName = ".anonswap-store.json"
)

// Config holds the application configuration
type Config struct {
	Exchange string
	BaseURL  string
	JWTToken string
	APIKey   string

	Store StoreConfig

	PollInterval   time.Duration
	SettleDelay    time.Duration
	DepositWindow  time.Duration
	HandshakeDelay time.Duration
	CatalogTTL     time.Duration

	LogLevel    string
	LogEncoding string
	MetricsAddr string

	IdentitySecret string

	AutoDeposit AutoDepositConfig
}

// StoreConfig selects where the swap journal and identity secret live.
type StoreConfig struct {
	Backend   string
	Path      string
	RedisAddr string
	RedisDB   int
	RedisPass string
}

// AutoDepositConfig configures the optional hot-wallet deposit sender.
type AutoDepositConfig struct {
	Enabled bool
	EVM     map[string]EVMNetwork
	Solana  SolanaConfig
}

// EVMNetwork holds RPC and signing settings for one EVM chain, keyed by chain id.
type EVMNetwork struct {
	RPCUrl     string
	PrivateKey string
	ChainID    int64
	GasLimit   uint64
}

// SolanaConfig holds RPC and signing settings for Solana.
type SolanaConfig struct {
	RPCUrl     string
	PrivateKey string
}

var globalConfig *Config

// Load reads configuration from the config file, environment variables and flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("exchange", ExchangeRelayer)
	v.SetDefault("base_url", "https://relay.anonswap.io")
	v.SetDefault("store.backend", StoreFile)
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("poll_interval", 10*time.Second)
	v.SetDefault("settle_delay", 3*time.Second)
	v.SetDefault("deposit_window", 30*time.Minute)
	v.SetDefault("handshake_delay", 400*time.Millisecond)
	v.SetDefault("catalog_ttl", 5*time.Minute)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_encoding", "console")

	v.SetEnvPrefix("ANONSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Flags use dashes on the command line and underscores as config keys.
	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName(".anonswap")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Exchange: strings.ToLower(v.GetString("exchange")),
		BaseURL:  strings.TrimRight(v.GetString("base_url"), "/"),
		JWTToken: v.GetString("jwt_token"),
		APIKey:   v.GetString("api_key"),
		Store: StoreConfig{
			Backend:   strings.ToLower(v.GetString("store.backend")),
			Path:      v.GetString("store.path"),
			RedisAddr: v.GetString("store.redis_addr"),
			RedisDB:   v.GetInt("store.redis_db"),
			RedisPass: v.GetString("store.redis_password"),
		},
		PollInterval:   v.GetDuration("poll_interval"),
		SettleDelay:    v.GetDuration("settle_delay"),
		DepositWindow:  v.GetDuration("deposit_window"),
		HandshakeDelay: v.GetDuration("handshake_delay"),
		CatalogTTL:     v.GetDuration("catalog_ttl"),
		LogLevel:       v.GetString("log_level"),
		LogEncoding:    v.GetString("log_encoding"),
		MetricsAddr:    v.GetString("metrics_addr"),
		IdentitySecret: v.GetString("identity_secret"),
		AutoDeposit:    loadAutoDeposit(v),
	}

	if cfg.Store.Backend == StoreFile && cfg.Store.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.Store.Path = filepath.Join(home, DefaultStoreFileName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func loadAutoDeposit(v *viper.Viper) AutoDepositConfig {
	ad := AutoDepositConfig{
		Enabled: v.GetBool("auto_deposit.enabled"),
		EVM:     make(map[string]EVMNetwork),
		Solana: SolanaConfig{
			RPCUrl:     v.GetString("auto_deposit.solana.rpc_url"),
			PrivateKey: v.GetString("auto_deposit.solana.private_key"),
		},
	}

	for name := range v.GetStringMap("auto_deposit.evm") {
		prefix := "auto_deposit.evm." + name + "."
		ad.EVM[strings.ToLower(name)] = EVMNetwork{
			RPCUrl:     v.GetString(prefix + "rpc_url"),
			PrivateKey: v.GetString(prefix + "private_key"),
			ChainID:    v.GetInt64(prefix + "chain_id"),
			GasLimit:   v.GetUint64(prefix + "gas_limit"),
		}
	}

	return ad
}

// Validate checks that the configuration can drive a swap session.
func (c *Config) Validate() error {
	switch c.Exchange {
	case ExchangeRelayer:
		if c.BaseURL == "" {
			return fmt.Errorf("base_url is required for the relayer exchange")
		}
	case ExchangeOneClick:
		if c.JWTToken == "" {
			return fmt.Errorf("JWT token not found. Please set ANONSWAP_JWT_TOKEN or jwt_token in .anonswap.yaml")
		}
	default:
		return fmt.Errorf("unknown exchange %q (expected %s or %s)", c.Exchange, ExchangeRelayer, ExchangeOneClick)
	}

	switch c.Store.Backend {
	case StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store backend %q (expected %s or %s)", c.Store.Backend, StoreFile, StoreRedis)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.DepositWindow <= 0 {
		return fmt.Errorf("deposit_window must be positive")
	}
	if c.SettleDelay < 0 || c.HandshakeDelay < 0 {
		return fmt.Errorf("settle_delay and handshake_delay cannot be negative")
	}

	return nil
}

// Get returns the last loaded configuration
func Get() *Config {
	return globalConfig
}
