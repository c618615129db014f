package wallet

import (
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-ledger/internal/metrics"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	jsoniter "github.com/json-iterator/go"
	"github.com/zeebo/blake3"
)

// persistState remembers the fingerprint of the last snapshot written.
type persistState struct {
	mu          sync.Mutex
	fingerprint [32]byte
	written     bool
}

// save writes the account snapshot unless it is unchanged since the last
// write. Encoding and writing happen under persist.mu, so snapshots reach
// the store in the order they were taken.
func (a *Account) save() error {
	a.persist.mu.Lock()
	defer a.persist.mu.Unlock()

	a.mu.RLock()
	index := a.details.Index
	data, err := json.Marshal(&a.details)
	a.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode account %d: %w", index, err)
	}

	sum := blake3.Sum256(data)
	if a.persist.written && a.persist.fingerprint == sum {
		metrics.SnapshotWrites.WithLabelValues("unchanged").Inc()
		return nil
	}
	if err := storage.Set(a.store.DB(), storage.AccountKey(index), jsoniter.RawMessage(data)); err != nil {
		return err
	}
	a.persist.fingerprint = sum
	a.persist.written = true
	metrics.SnapshotWrites.WithLabelValues("written").Inc()
	a.logger.Debug().Int("bytes", len(data)).Msg("Saved account snapshot")
	return nil
}

// loadAccounts restores the accounts listed in the storage manager.
func (w *Wallet) loadAccounts() error {
	indexes, err := w.store.AccountIndexes()
	if err != nil {
		return err
	}
	for _, index := range indexes {
		details, found, err := storage.Get[AccountDetails](w.store.DB(), storage.AccountKey(index))
		if err != nil {
			return fmt.Errorf("load account %d: %w", index, err)
		}
		if !found {
			w.logger.Warn().Uint32("index", index).Msg("Account listed but not stored, skipping")
			continue
		}
		w.accounts = append(w.accounts, newAccount(details, w))
	}
	return nil
}
