package config

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

// Token describes one SPL token the relay accepts fee payments in.
type Token struct {
	Mint       string `mapstructure:"mint"`
	Symbol     string `mapstructure:"symbol"`
	Decimals   uint8  `mapstructure:"decimals"`
	MinFee     uint64 `mapstructure:"min_fee"`
	FeeAccount string `mapstructure:"fee_account"`

	// Parsed at load time, never from the config file.
	MintKey       solana.PublicKey `mapstructure:"-"`
	FeeAccountKey solana.PublicKey `mapstructure:"-"`
}

// RateLimit is the per-caller fixed-window quota.
type RateLimit struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// Config holds the process-wide relay configuration. It is loaded once at
// startup and treated as immutable afterwards.
type Config struct {
	RPCURL          string  `mapstructure:"rpc_url"`
	Commitment      string  `mapstructure:"commitment"`
	FeePayerSecret  string  `mapstructure:"fee_payer_secret"`
	FeePayerPubkey  string  `mapstructure:"fee_payer_pubkey"`
	RemoteSignerURL string  `mapstructure:"remote_signer_url"`
	ListenAddr      string  `mapstructure:"listen_addr"`
	ConfirmTimeout  int     `mapstructure:"confirm_timeout_seconds"`
	MinSOLBalance   float64 `mapstructure:"min_sol_balance"`

	RateLimit RateLimit `mapstructure:"rate_limit"`

	// Tokens are tried in order when no mint hint is given; the first token
	// whose fee account matches a transfer wins. Two entries sharing a fee
	// account resolve to the earlier one.
	Tokens []Token `mapstructure:"tokens"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var globalConfig *Config

// Load reads configuration from relay.yaml and RELAY_-prefixed environment
// variables, validates it and parses all on-chain addresses.
func Load() (*Config, error) {
	viper.SetConfigName("relay")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("rpc_url", rpc.DevNet_RPC)
	viper.SetDefault("commitment", "confirmed")
	viper.SetDefault("listen_addr", ":8090")
	viper.SetDefault("confirm_timeout_seconds", 30)
	viper.SetDefault("min_sol_balance", 0.001)
	viper.SetDefault("rate_limit.max_requests", 60)
	viper.SetDefault("rate_limit.window_seconds", 60)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "json")

	viper.SetEnvPrefix("RELAY")
	viper.AutomaticEnv()

	// Config file is optional; env vars alone are enough.
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// The custody secret comes from the environment, never the yaml file.
	if s := os.Getenv("FEE_PAYER_SECRET"); s != "" {
		cfg.FeePayerSecret = s
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Validate checks the configuration and parses all on-chain addresses into
// their binary form.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is not configured")
	}
	if c.FeePayerSecret == "" && c.RemoteSignerURL == "" {
		return fmt.Errorf("no fee payer key: set FEE_PAYER_SECRET or remote_signer_url")
	}
	if c.FeePayerSecret == "" && c.FeePayerPubkey == "" {
		return fmt.Errorf("remote signing requires fee_payer_pubkey")
	}
	if len(c.Tokens) == 0 {
		return fmt.Errorf("no supported fee tokens configured")
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limit must have positive max_requests and window_seconds")
	}

	for i := range c.Tokens {
		t := &c.Tokens[i]
		mint, err := solana.PublicKeyFromBase58(t.Mint)
		if err != nil {
			return fmt.Errorf("invalid mint address for token %s: %w", t.Symbol, err)
		}
		t.MintKey = mint

		feeAccount, err := solana.PublicKeyFromBase58(t.FeeAccount)
		if err != nil {
			return fmt.Errorf("invalid fee account for token %s: %w", t.Symbol, err)
		}
		t.FeeAccountKey = feeAccount

		if t.MinFee == 0 {
			return fmt.Errorf("token %s has no minimum fee configured", t.Symbol)
		}
	}

	return nil
}

// TokenByMint returns the configured token for a mint address, if any.
func (c *Config) TokenByMint(mint string) (*Token, bool) {
	for i := range c.Tokens {
		if c.Tokens[i].Mint == mint {
			return &c.Tokens[i], true
		}
	}
	return nil, false
}

// CommitmentType maps the configured commitment string to the RPC type.
func (c *Config) CommitmentType() rpc.CommitmentType {
	switch c.Commitment {
	case "finalized":
		return rpc.CommitmentFinalized
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// Get returns the global configuration, loading it on first use.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration.
func Set(cfg *Config) {
	globalConfig = cfg
}
