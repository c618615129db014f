package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	u, err := url.Parse(cfg.Node.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("node.url %q is not a valid URL", cfg.Node.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("node.url must use http or https")
	}
	if cfg.Node.Timeout <= 0 {
		return fmt.Errorf("node.timeout must be positive")
	}
	if cfg.Node.InfoTTL < 0 || cfg.Node.MaxDrift < 0 || cfg.Node.BreakerTimeout < 0 {
		return fmt.Errorf("node durations must not be negative")
	}
	if cfg.Node.BreakerFailures == 0 {
		return fmt.Errorf("node.breaker.failures must be at least 1")
	}

	if cfg.Wallet.Snapshot == "" {
		return fmt.Errorf("wallet.snapshot must not be empty")
	}

	if cfg.Sync.Parallelism < 1 {
		return fmt.Errorf("sync.parallelism must be at least 1")
	}

	if cfg.Retry.Interval <= 0 {
		return fmt.Errorf("retry.interval must be positive")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.maxattempts must be at least 1")
	}
	if cfg.Retry.ReattachEvery < 0 {
		return fmt.Errorf("retry.reattachevery must not be negative")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "":
	default:
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}
