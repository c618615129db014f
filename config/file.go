package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadFile loads configuration values from a .conf file.
// Format: key = value (one per line, # for comments). A missing file
// yields no values.
func LoadFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("properties")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, key := range v.AllKeys() {
		values[key] = unquote(strings.TrimSpace(v.GetString(key)))
	}
	return values, nil
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	var err error
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))
	case "datadir":
		cfg.DataDir = value

	// Node
	case "node.url":
		cfg.Node.URL = value
	case "node.timeout":
		cfg.Node.Timeout, err = time.ParseDuration(value)
	case "node.infottl":
		cfg.Node.InfoTTL, err = time.ParseDuration(value)
	case "node.maxdrift":
		cfg.Node.MaxDrift, err = time.ParseDuration(value)
	case "node.breaker.failures":
		var n uint64
		n, err = strconv.ParseUint(value, 10, 32)
		cfg.Node.BreakerFailures = uint32(n)
	case "node.breaker.timeout":
		cfg.Node.BreakerTimeout, err = time.ParseDuration(value)

	// Wallet
	case "wallet.cointype":
		var n uint64
		n, err = strconv.ParseUint(value, 10, 32)
		cfg.Wallet.CoinType = uint32(n)
	case "wallet.snapshot":
		cfg.Wallet.Snapshot = value

	// Sync
	case "sync.parallelism":
		cfg.Sync.Parallelism, err = strconv.Atoi(value)
	case "sync.strictfoundries":
		cfg.Sync.StrictFoundryLookups = parseBool(value)

	// Retry
	case "retry.interval":
		cfg.Retry.Interval, err = time.ParseDuration(value)
	case "retry.maxattempts":
		cfg.Retry.MaxAttempts, err = strconv.Atoi(value)
	case "retry.reattachevery":
		cfg.Retry.ReattachEvery, err = strconv.Atoi(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return err
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# Klingnet Ledger Wallet Configuration
#
# Values set here are overridden by command-line flags.

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.klingnet-ledger)
# datadir = ~/.klingnet-ledger

# ============================================================================
# Node
# ============================================================================

node.url = ` + cfg.Node.URL + `
node.timeout = ` + cfg.Node.Timeout.String() + `
node.infottl = ` + cfg.Node.InfoTTL.String() + `

# Largest accepted difference between local and node time
node.maxdrift = ` + cfg.Node.MaxDrift.String() + `

# Consecutive failures before requests are short-circuited
node.breaker.failures = ` + strconv.FormatUint(uint64(cfg.Node.BreakerFailures), 10) + `
node.breaker.timeout = ` + cfg.Node.BreakerTimeout.String() + `

# ============================================================================
# Wallet
# ============================================================================

wallet.cointype = ` + strconv.FormatUint(uint64(cfg.Wallet.CoinType), 10) + `
wallet.snapshot = ` + cfg.Wallet.Snapshot + `

# ============================================================================
# Sync
# ============================================================================

sync.parallelism = ` + strconv.Itoa(cfg.Sync.Parallelism) + `

# Fail sync when the node does not know a foundry the wallet references
# sync.strictfoundries = false

# ============================================================================
# Retry
# ============================================================================

retry.interval = ` + cfg.Retry.Interval.String() + `
retry.maxattempts = ` + strconv.Itoa(cfg.Retry.MaxAttempts) + `
retry.reattachevery = ` + strconv.Itoa(cfg.Retry.ReattachEvery) + `

# ============================================================================
# Logging
# ============================================================================

log.level = info
log.json = false
# log.file = ledger.log
`
	return os.WriteFile(path, []byte(content), 0644)
}
