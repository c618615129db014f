package wallet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/secret"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/internal/token"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/rs/zerolog"
)

// AddressWithIndex is an account address and its position on the
// derivation path.
type AddressWithIndex struct {
	Address  types.Address `json:"address"`
	KeyIndex uint32        `json:"keyIndex"`
	Internal bool          `json:"internal"`
}

// Chain returns the derivation path of the address.
func (a AddressWithIndex) Chain(coinType, accountIndex uint32) types.Bip44 {
	change := uint32(0)
	if a.Internal {
		change = 1
	}
	return types.Bip44{CoinType: coinType, Account: accountIndex, Change: change, AddressIndex: a.KeyIndex}
}

// Transaction is a transaction sent or received by the account.
// Timestamp is in unix milliseconds.
type Transaction struct {
	TransactionID  types.TransactionID `json:"transactionId"`
	BlockID        *types.BlockID      `json:"blockId,omitempty"`
	InclusionState api.InclusionState  `json:"inclusionState"`
	Timestamp      int64               `json:"timestamp"`
	Payload        *tx.Transaction     `json:"payload"`
	Incoming       bool                `json:"incoming"`
	Note           string              `json:"note,omitempty"`
}

// AccountDetails is the persisted state of an account.
type AccountDetails struct {
	Index             uint32             `json:"index"`
	CoinType          uint32             `json:"coinType"`
	Alias             string             `json:"alias"`
	PublicAddresses   []AddressWithIndex `json:"publicAddresses"`
	InternalAddresses []AddressWithIndex `json:"internalAddresses"`

	Outputs              map[types.OutputID]OutputData             `json:"outputs"`
	UnspentOutputs       map[types.OutputID]OutputData             `json:"unspentOutputs"`
	LockedOutputs        map[types.OutputID]struct{}               `json:"lockedOutputs"`
	Transactions         map[types.TransactionID]Transaction       `json:"transactions"`
	PendingTransactions  map[types.TransactionID]struct{}          `json:"pendingTransactions"`
	NativeTokenFoundries map[types.FoundryID]*output.FoundryOutput `json:"nativeTokenFoundries"`
}

func newAccountDetails(index, coinType uint32, alias string) AccountDetails {
	d := AccountDetails{Index: index, CoinType: coinType, Alias: alias}
	d.init()
	return d
}

// init allocates maps missing after decoding.
func (d *AccountDetails) init() {
	if d.Outputs == nil {
		d.Outputs = make(map[types.OutputID]OutputData)
	}
	if d.UnspentOutputs == nil {
		d.UnspentOutputs = make(map[types.OutputID]OutputData)
	}
	if d.LockedOutputs == nil {
		d.LockedOutputs = make(map[types.OutputID]struct{})
	}
	if d.Transactions == nil {
		d.Transactions = make(map[types.TransactionID]Transaction)
	}
	if d.PendingTransactions == nil {
		d.PendingTransactions = make(map[types.TransactionID]struct{})
	}
	if d.NativeTokenFoundries == nil {
		d.NativeTokenFoundries = make(map[types.FoundryID]*output.FoundryOutput)
	}
}

// clone copies every map and slice. Outputs are immutable and shared.
func (d *AccountDetails) clone() AccountDetails {
	c := *d
	c.PublicAddresses = append([]AddressWithIndex(nil), d.PublicAddresses...)
	c.InternalAddresses = append([]AddressWithIndex(nil), d.InternalAddresses...)
	c.Outputs = copyMap(d.Outputs)
	c.UnspentOutputs = copyMap(d.UnspentOutputs)
	c.LockedOutputs = copyMap(d.LockedOutputs)
	c.Transactions = copyMap(d.Transactions)
	c.PendingTransactions = copyMap(d.PendingTransactions)
	c.NativeTokenFoundries = copyMap(d.NativeTokenFoundries)
	return c
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Account is the unit of wallet state. The snapshot lock is held only for
// in-memory reads and merges; opMu serialises mutating operations, which
// may span network calls.
type Account struct {
	mu      sync.RWMutex
	details AccountDetails

	opMu sync.Mutex

	client  Client
	secret  SecretManager
	store   *storage.Manager
	tokens  *token.Store
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
	persist persistState
}

func newAccount(details AccountDetails, w *Wallet) *Account {
	details.init()
	return &Account{
		details: details,
		client:  w.client,
		secret:  w.secret,
		store:   w.store,
		tokens:  w.tokens,
		opts:    w.opts,
		logger:  w.logger.With().Uint32("account", details.Index).Logger(),
		now:     time.Now,
	}
}

// Index returns the account index.
func (a *Account) Index() uint32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.details.Index
}

// Alias returns the account name.
func (a *Account) Alias() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.details.Alias
}

// Details returns a copy of the account state.
func (a *Account) Details() AccountDetails {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.details.clone()
}

// Addresses returns the public addresses followed by the internal ones.
func (a *Account) Addresses() []AddressWithIndex {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AddressWithIndex, 0, len(a.details.PublicAddresses)+len(a.details.InternalAddresses))
	out = append(out, a.details.PublicAddresses...)
	return append(out, a.details.InternalAddresses...)
}

// FirstAddress returns the first public address.
func (a *Account) FirstAddress() (types.Address, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.details.PublicAddresses) == 0 {
		return types.Address{}, ErrNoAddresses
	}
	return a.details.PublicAddresses[0].Address, nil
}

// addressSet returns the set of account addresses. Caller holds mu.
func (a *Account) addressSet() types.AddressSet {
	set := make(types.AddressSet, len(a.details.PublicAddresses)+len(a.details.InternalAddresses))
	for _, addr := range a.details.PublicAddresses {
		set[addr.Address] = struct{}{}
	}
	for _, addr := range a.details.InternalAddresses {
		set[addr.Address] = struct{}{}
	}
	return set
}

// chainFor returns the derivation path of an account address. Caller
// holds mu.
func (a *Account) chainFor(addr types.Address) *types.Bip44 {
	for _, list := range [][]AddressWithIndex{a.details.PublicAddresses, a.details.InternalAddresses} {
		for _, entry := range list {
			if entry.Address == addr {
				chain := entry.Chain(a.details.CoinType, a.details.Index)
				return &chain
			}
		}
	}
	return nil
}

// UnspentOutputs returns the unspent outputs sorted by output id.
func (a *Account) UnspentOutputs() []OutputData {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return sortedOutputs(a.details.UnspentOutputs)
}

// Outputs returns all known outputs sorted by output id.
func (a *Account) Outputs() []OutputData {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return sortedOutputs(a.details.Outputs)
}

// UnspentOutput returns one unspent output.
func (a *Account) UnspentOutput(id types.OutputID) (OutputData, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	o, ok := a.details.UnspentOutputs[id]
	return o, ok
}

// Transaction returns a stored transaction.
func (a *Account) Transaction(id types.TransactionID) (Transaction, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.details.Transactions[id]
	return t, ok
}

// Transactions returns all stored transactions, newest first.
func (a *Account) Transactions() []Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Transaction, 0, len(a.details.Transactions))
	for _, t := range a.details.Transactions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// PendingTransactions returns the transactions not yet confirmed.
func (a *Account) PendingTransactions() []Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Transaction, 0, len(a.details.PendingTransactions))
	for id := range a.details.PendingTransactions {
		if t, ok := a.details.Transactions[id]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// NativeTokenFoundries returns the cached foundries.
func (a *Account) NativeTokenFoundries() map[types.FoundryID]*output.FoundryOutput {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyMap(a.details.NativeTokenFoundries)
}

// GenerateAddresses derives count new addresses on the public or
// internal chain and stores them.
func (a *Account) GenerateAddresses(ctx context.Context, count uint32, internal bool) ([]AddressWithIndex, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	return a.generateAddresses(ctx, count, internal)
}

func (a *Account) generateAddresses(ctx context.Context, count uint32, internal bool) ([]AddressWithIndex, error) {
	a.mu.RLock()
	start := uint32(len(a.details.PublicAddresses))
	if internal {
		start = uint32(len(a.details.InternalAddresses))
	}
	opts := secret.GenerateAddressesOptions{
		CoinType:     a.details.CoinType,
		AccountIndex: a.details.Index,
		Start:        start,
		Count:        count,
		Internal:     internal,
	}
	a.mu.RUnlock()

	addrs, err := a.secret.GenerateEd25519Addresses(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("generate addresses: %w", err)
	}
	generated := make([]AddressWithIndex, len(addrs))
	for i, addr := range addrs {
		generated[i] = AddressWithIndex{Address: addr, KeyIndex: start + uint32(i), Internal: internal}
	}

	a.mu.Lock()
	if internal {
		a.details.InternalAddresses = append(a.details.InternalAddresses, generated...)
	} else {
		a.details.PublicAddresses = append(a.details.PublicAddresses, generated...)
	}
	a.mu.Unlock()

	if err := a.save(); err != nil {
		return nil, err
	}
	return generated, nil
}

// SetAlias renames the account.
func (a *Account) SetAlias(alias string) error {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	a.mu.Lock()
	a.details.Alias = alias
	a.mu.Unlock()
	return a.save()
}
