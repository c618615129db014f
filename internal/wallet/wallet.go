// Package wallet keeps accounts of a UTXO ledger in sync with a node and
// builds, signs and submits their transactions.
//
// An Account holds a snapshot of its addresses, outputs and transactions
// behind a read/write lock. Readers get copies. Mutating operations
// (sync, sending) are serialised per account and take the snapshot lock
// only for in-memory merges, never across a network call.
package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/secret"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/internal/token"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/rs/zerolog"
)

// Options tune wallet behaviour.
type Options struct {
	CoinType uint32

	// StrictFoundryLookups turns a foundry the node does not know into a
	// sync error instead of skipping it.
	StrictFoundryLookups bool
	// SyncParallelism bounds concurrent output fetches during sync.
	SyncParallelism int

	RetryInterval    time.Duration
	RetryMaxAttempts int
	// ReattachEvery resubmits a pending transaction every n polls. Zero
	// disables resubmission.
	ReattachEvery int
}

// DefaultOptions returns the options used for Shimmer.
func DefaultOptions() Options {
	return Options{
		CoinType:         types.CoinTypeShimmer,
		SyncParallelism:  8,
		RetryInterval:    5 * time.Second,
		RetryMaxAttempts: 40,
		ReattachEvery:    3,
	}
}

// Wallet manages the accounts of one secret manager.
type Wallet struct {
	mu       sync.RWMutex
	accounts []*Account

	client Client
	secret SecretManager
	store  *storage.Manager
	tokens *token.Store
	opts   Options
	logger zerolog.Logger
}

// New creates a wallet and loads the accounts persisted in store.
func New(client Client, secretManager SecretManager, store *storage.Manager, opts Options, logger zerolog.Logger) (*Wallet, error) {
	if opts.SyncParallelism <= 0 {
		opts.SyncParallelism = 1
	}
	w := &Wallet{
		client: client,
		secret: secretManager,
		store:  store,
		tokens: token.NewStore(storage.NewPrefixDB(store.DB(), []byte("token-metadata-"))),
		opts:   opts,
		logger: logger,
	}
	if err := w.loadAccounts(); err != nil {
		return nil, err
	}
	return w, nil
}

// CreateAccount adds an account with one public address.
func (w *Wallet) CreateAccount(ctx context.Context, alias string) (*Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	index := uint32(len(w.accounts))
	for _, acc := range w.accounts {
		if alias != "" && acc.Alias() == alias {
			return nil, fmt.Errorf("%w: %q", ErrAccountExists, alias)
		}
	}
	if alias == "" {
		alias = fmt.Sprintf("account-%d", index)
	}

	acc := newAccount(newAccountDetails(index, w.opts.CoinType, alias), w)
	if _, err := acc.GenerateAddresses(ctx, 1, false); err != nil {
		return nil, err
	}
	if err := w.store.AddAccountIndex(index); err != nil {
		return nil, err
	}
	w.accounts = append(w.accounts, acc)
	w.logger.Info().Uint32("index", index).Str("alias", alias).Msg("Created account")
	return acc, nil
}

// Account returns the account with the given index.
func (w *Wallet) Account(index uint32) (*Account, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, acc := range w.accounts {
		if acc.Index() == index {
			return acc, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, index)
}

// AccountByAlias returns the account with the given alias.
func (w *Wallet) AccountByAlias(alias string) (*Account, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, acc := range w.accounts {
		if acc.Alias() == alias {
			return acc, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, alias)
}

// Accounts returns all accounts ordered by index.
func (w *Wallet) Accounts() []*Account {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Account(nil), w.accounts...)
}

// LedgerNanoStatus forwards the hardware status query to the secret
// manager. Software signers return an error wrapping
// secret.ErrUnsupported.
func (w *Wallet) LedgerNanoStatus(ctx context.Context) (*secret.LedgerNanoStatus, error) {
	return w.secret.LedgerNanoStatus(ctx)
}

// Close closes the storage manager.
func (w *Wallet) Close() error {
	return w.store.Close()
}
