// Package config loads the treasury node's genesis-style bootstrap
// configuration, grounded in chain/config/genesis.go's
// LoadGenesisConfig/Validate pair, adapted from an EVM chain config to the
// treasury's admin identity, dev wallet and initial economic parameters
// (spec.md §4.6 `initialize`).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// Config is the bootstrap configuration for a treasury node: the principals
// and parameters `initialize` needs, plus the node's own listen addresses.
type Config struct {
	Admin         string `json:"admin"`
	DevWallet     string `json:"dev_wallet"`
	InitialApyBps uint64 `json:"initial_apy_bps"`

	// ProgramID namespaces every PDA treasury/pda derives (the three pool
	// vaults, per-backer deposits, per-deployment requests): the same node
	// deriving the same address twice, and two different deployments of
	// this config never colliding.
	ProgramID string `json:"program_id"`

	StorePath string `json:"store_path"`

	RPCListenAddr        string `json:"rpc_listen_addr"`
	MetricsListenAddr    string `json:"metrics_listen_addr"`
	RPCRateLimitPerMinute int   `json:"rpc_rate_limit_per_minute"`
}

// Default returns a Config with conservative defaults, the way
// genesis.go's DefaultGenesisConfig seeds a dev/test chain config.
func Default() *Config {
	return &Config{
		InitialApyBps:         0,
		StorePath:             "./data/treasury",
		RPCListenAddr:         ":8645",
		MetricsListenAddr:     ":9645",
		RPCRateLimitPerMinute: 600,
	}
}

// Load reads and validates a JSON config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every field `initialize` requires is present and
// well-formed.
func (c *Config) Validate() error {
	if c.Admin == "" {
		return fmt.Errorf("admin pubkey is required")
	}
	if _, err := types.HexToPubkey(c.Admin); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if c.DevWallet == "" {
		return fmt.Errorf("dev_wallet pubkey is required")
	}
	if _, err := types.HexToPubkey(c.DevWallet); err != nil {
		return fmt.Errorf("dev_wallet: %w", err)
	}
	if c.ProgramID == "" {
		return fmt.Errorf("program_id is required")
	}
	if _, err := types.HexToPubkey(c.ProgramID); err != nil {
		return fmt.Errorf("program_id: %w", err)
	}
	if c.InitialApyBps > 10_000 {
		return fmt.Errorf("initial_apy_bps %d exceeds 10000", c.InitialApyBps)
	}
	if c.StorePath == "" {
		return fmt.Errorf("store_path is required")
	}
	return nil
}

// AdminPubkey parses the configured admin hex string.
func (c *Config) AdminPubkey() (types.Pubkey, error) {
	return types.HexToPubkey(c.Admin)
}

// DevWalletPubkey parses the configured dev_wallet hex string.
func (c *Config) DevWalletPubkey() (types.Pubkey, error) {
	return types.HexToPubkey(c.DevWallet)
}

// ProgramIDPubkey parses the configured program_id hex string, the namespace
// passed to every treasury/pda derivation.
func (c *Config) ProgramIDPubkey() (types.Pubkey, error) {
	return types.HexToPubkey(c.ProgramID)
}
