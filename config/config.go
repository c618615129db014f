// Package config handles application configuration.
//
// Settings come from three layers, each overriding the previous one:
// network defaults, the properties file in the data directory and
// command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds the wallet's runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Node REST endpoint
	Node NodeConfig

	// Wallet storage and derivation
	Wallet WalletConfig

	// Output synchronisation
	Sync SyncConfig

	// Inclusion polling
	Retry RetryConfig

	// Logging
	Log LogConfig
}

// NodeConfig holds the node client settings.
type NodeConfig struct {
	URL      string        `conf:"node.url"`
	Timeout  time.Duration `conf:"node.timeout"`
	InfoTTL  time.Duration `conf:"node.infottl"`
	MaxDrift time.Duration `conf:"node.maxdrift"` // Tolerated node clock skew.

	BreakerFailures uint32        `conf:"node.breaker.failures"`
	BreakerTimeout  time.Duration `conf:"node.breaker.timeout"`
}

// WalletConfig holds wallet settings.
type WalletConfig struct {
	CoinType uint32 `conf:"wallet.cointype"`
	Snapshot string `conf:"wallet.snapshot"` // Encrypted mnemonic file, relative to the network dir.
}

// SyncConfig holds output synchronisation settings.
type SyncConfig struct {
	Parallelism          int  `conf:"sync.parallelism"`
	StrictFoundryLookups bool `conf:"sync.strictfoundries"`
}

// RetryConfig holds the settings used while waiting for inclusion.
type RetryConfig struct {
	Interval      time.Duration `conf:"retry.interval"`
	MaxAttempts   int           `conf:"retry.maxattempts"`
	ReattachEvery int           `conf:"retry.reattachevery"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-ledger
//	macOS:   ~/Library/Application Support/KlingnetLedger
//	Windows: %APPDATA%\KlingnetLedger
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-ledger"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetLedger")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetLedger")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetLedger")
	default:
		return filepath.Join(home, ".klingnet-ledger")
	}
}

// NetworkDir returns the network-specific data directory.
func (c *Config) NetworkDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// DBDir returns the wallet database directory.
func (c *Config) DBDir() string {
	return filepath.Join(c.NetworkDir(), "db")
}

// SnapshotFile returns the path of the encrypted mnemonic snapshot.
func (c *Config) SnapshotFile() string {
	if filepath.IsAbs(c.Wallet.Snapshot) {
		return c.Wallet.Snapshot
	}
	return filepath.Join(c.NetworkDir(), c.Wallet.Snapshot)
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "ledger.conf")
}
