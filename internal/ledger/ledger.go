// Package ledger assembles a wallet from configuration so it can be
// embedded in any host application.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Klingon-tech/klingnet-ledger/config"
	klog "github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/internal/nodeclient"
	"github.com/Klingon-tech/klingnet-ledger/internal/secret"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/internal/wallet"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/rs/zerolog"
)

// ErrNoSnapshot is returned by Open when no mnemonic snapshot exists yet.
var ErrNoSnapshot = errors.New("mnemonic snapshot not found")

// Ledger is a fully-initialized wallet with its node client, signer and
// database.
type Ledger struct {
	cfg    *config.Config
	logger zerolog.Logger

	Wallet *wallet.Wallet
	Client *nodeclient.Client

	secret *secret.MnemonicManager
}

// CreateSnapshot encrypts mnemonic under password at the configured
// snapshot path. An empty mnemonic generates a new one, which is returned.
func CreateSnapshot(cfg *config.Config, mnemonic string, password []byte, params secret.KDFParams) (string, error) {
	if mnemonic == "" {
		var err error
		mnemonic, err = secret.GenerateMnemonic()
		if err != nil {
			return "", fmt.Errorf("generate mnemonic: %w", err)
		}
	}
	if err := secret.WriteSnapshot(snapshotPath(cfg), mnemonic, password, params); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// Open unlocks the snapshot with password and opens the wallet database.
// It does not contact the node.
func Open(cfg *config.Config, password []byte) (*Ledger, error) {
	// ── 1. Set address HRP ──────────────────────────────────────────
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	// ── 2. Init logger ──────────────────────────────────────────────
	logFile := expandHome(cfg.Log.File)
	if logFile == "" {
		if err := os.MkdirAll(cfg.LogsDir(), 0700); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(cfg.LogsDir(), "ledger.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithNetwork(string(cfg.Network))

	// ── 3. Unlock secret ────────────────────────────────────────────
	path := snapshotPath(cfg)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, path)
	}
	sm, err := secret.NewMnemonicManagerFromSnapshot(path, password, secret.WithLogger(klog.Secret))
	if err != nil {
		return nil, fmt.Errorf("unlock snapshot: %w", err)
	}

	// ── 4. Open storage ─────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.DBDir())
	if err != nil {
		sm.Close()
		return nil, fmt.Errorf("open database at %s: %w", cfg.DBDir(), err)
	}

	// ── 5. Wallet ───────────────────────────────────────────────────
	client := nodeclient.New(cfg.NodeClientConfig(), klog.Client)
	w, err := wallet.New(client, sm, storage.NewManager(db, klog.Storage), cfg.WalletOptions(), klog.Wallet)
	if err != nil {
		db.Close()
		sm.Close()
		return nil, fmt.Errorf("open wallet: %w", err)
	}

	logger.Info().
		Str("node", cfg.Node.URL).
		Str("db", cfg.DBDir()).
		Int("accounts", len(w.Accounts())).
		Msg("Ledger opened")

	return &Ledger{
		cfg:    cfg,
		logger: logger,
		Wallet: w,
		Client: client,
		secret: sm,
	}, nil
}

// Config returns the configuration the ledger was opened with.
func (l *Ledger) Config() *config.Config {
	return l.cfg
}

// Close closes the database and wipes the unlocked seed.
func (l *Ledger) Close() error {
	err := l.Wallet.Close()
	if serr := l.secret.Close(); err == nil {
		err = serr
	}
	l.logger.Info().Msg("Ledger closed")
	return err
}
