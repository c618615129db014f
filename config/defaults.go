package config

import (
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/nodeclient"
	"github.com/Klingon-tech/klingnet-ledger/internal/wallet"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

const (
	mainnetNodeURL = "https://api.shimmer.network"
	testnetNodeURL = "https://api.testnet.shimmer.network"
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	client := nodeclient.DefaultConfig(mainnetNodeURL)
	opts := wallet.DefaultOptions()
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Node: NodeConfig{
			URL:             client.URL,
			Timeout:         client.Timeout,
			InfoTTL:         client.InfoTTL,
			MaxDrift:        client.MaxDrift,
			BreakerFailures: client.BreakerFailures,
			BreakerTimeout:  client.BreakerTimeout,
		},
		Wallet: WalletConfig{
			CoinType: types.CoinTypeShimmer,
			Snapshot: "wallet.snapshot",
		},
		Sync: SyncConfig{
			Parallelism: opts.SyncParallelism,
		},
		Retry: RetryConfig{
			Interval:      opts.RetryInterval,
			MaxAttempts:   opts.RetryMaxAttempts,
			ReattachEvery: opts.ReattachEvery,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Node.URL = testnetNodeURL
	// Testnet milestones are less regular.
	cfg.Retry.Interval = 10 * time.Second
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}

// NodeClientConfig returns the node client settings.
func (c *Config) NodeClientConfig() nodeclient.Config {
	return nodeclient.Config{
		URL:             c.Node.URL,
		Timeout:         c.Node.Timeout,
		InfoTTL:         c.Node.InfoTTL,
		MaxDrift:        c.Node.MaxDrift,
		BreakerFailures: c.Node.BreakerFailures,
		BreakerTimeout:  c.Node.BreakerTimeout,
	}
}

// WalletOptions returns the wallet engine options.
func (c *Config) WalletOptions() wallet.Options {
	return wallet.Options{
		CoinType:             c.Wallet.CoinType,
		StrictFoundryLookups: c.Sync.StrictFoundryLookups,
		SyncParallelism:      c.Sync.Parallelism,
		RetryInterval:        c.Retry.Interval,
		RetryMaxAttempts:     c.Retry.MaxAttempts,
		ReattachEvery:        c.Retry.ReattachEvery,
	}
}
