// Package config holds the runtime configuration for a ringcore node:
// the external collaborator endpoints plus the consensus tunables a
// regtest/testnet operator needs to override.
package config

import (
	"fmt"
	"time"

	"github.com/sudo696/ring/internal/consensus"
)

// Config holds all configuration for a ringcore node.
type Config struct {
	// Bitcoin-derived full node RPC, used to reach the chain, UTXO set,
	// and block relay this module treats as external collaborators.
	RPCHost     string `mapstructure:"rpc-host"`
	RPCPort     int    `mapstructure:"rpc-port"`
	RPCUser     string `mapstructure:"rpc-user"`
	RPCPassword string `mapstructure:"rpc-password"`
	Network     string `mapstructure:"network"`

	// Mining.
	EnablePoW  bool `mapstructure:"enable-pow"`
	EnableHive bool `mapstructure:"enable-hive"`
	AllowSolo  bool `mapstructure:"allow-solo"`

	// Block assembly.
	BlockMaxWeight uint32 `mapstructure:"block-max-weight"`
	BlockMinTxFee  int64  `mapstructure:"block-min-tx-fee"`

	// Hive lottery tuning.
	HiveCheckDelay   time.Duration `mapstructure:"hive-check-delay"`
	HiveCheckThreads int           `mapstructure:"hive-check-threads"`
	HiveEarlyAbort   bool          `mapstructure:"hive-early-abort"`

	// Storage.
	DataDir string `mapstructure:"data-dir"`

	// Logging.
	LogLevel string `mapstructure:"log-level"`
}

// DefaultConfig returns a Config with sensible defaults for mainnet.
func DefaultConfig() *Config {
	return &Config{
		RPCHost: "127.0.0.1",
		RPCPort: 8332,
		RPCUser: "user",
		Network: "mainnet",

		EnablePoW:  true,
		EnableHive: true,

		BlockMaxWeight: 4_000_000,
		BlockMinTxFee:  1000,

		HiveCheckDelay:   4 * time.Second,
		HiveCheckThreads: 1,
		HiveEarlyAbort:   true,

		DataDir: ".ringcore",

		LogLevel: "info",
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.RPCHost == "" {
		return fmt.Errorf("rpc-host is required")
	}
	if c.RPCPort <= 0 || c.RPCPort > 65535 {
		return fmt.Errorf("rpc-port must be 1-65535")
	}
	if !c.EnablePoW && !c.EnableHive {
		return fmt.Errorf("at least one of enable-pow or enable-hive must be set")
	}
	if c.BlockMaxWeight == 0 {
		return fmt.Errorf("block-max-weight must be positive")
	}
	if c.HiveCheckThreads < 1 {
		return fmt.Errorf("hive-check-threads must be at least 1")
	}
	if c.HiveCheckDelay < time.Second {
		return fmt.Errorf("hive-check-delay must be at least 1s")
	}
	return nil
}

// RPCURL returns the full RPC URL for the backing full node.
func (c *Config) RPCURL() string {
	return fmt.Sprintf("http://%s:%d", c.RPCHost, c.RPCPort)
}

// Params builds the consensus.Params this config selects, starting from
// the network's base params and layering the operator's block-assembly
// and Hive-lottery overrides on top.
func (c *Config) Params() *consensus.Params {
	var p *consensus.Params
	if c.Network == "regtest" {
		p = consensus.RegTestParams()
	} else {
		p = consensus.MainNetParams()
	}
	p.Network = c.Network
	p.BlockMaxWeight = c.BlockMaxWeight
	p.BlockMinTxFee = c.BlockMinTxFee
	p.MinHiveCheckDelay = c.HiveCheckDelay
	p.HiveCheckThreads = c.HiveCheckThreads
	p.HiveEarlyAbort = c.HiveEarlyAbort
	return p
}
