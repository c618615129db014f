package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/metrics"
	"github.com/Klingon-tech/klingnet-ledger/internal/token"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"golang.org/x/sync/errgroup"
)

// SyncOptions controls what Sync refreshes.
type SyncOptions struct {
	// Parallelism bounds concurrent node requests. Zero uses
	// Options.SyncParallelism.
	Parallelism int
	// SkipPendingTransactions leaves pending transaction states alone.
	SkipPendingTransactions bool
	// SkipFoundries skips the foundry lookup step.
	SkipFoundries bool
}

// maxAliasFoundryLookups bounds the foundries requested per held alias.
const maxAliasFoundryLookups = 256

type foundOutput struct {
	id    types.OutputID
	owner types.Address
}

// Sync reconciles the account with the node: it discovers new outputs,
// marks vanished ones spent, refreshes pending transactions and fetches
// the foundries of held native tokens. It returns the resulting balance.
func (a *Account) Sync(ctx context.Context, opts SyncOptions) (*Balance, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	start := time.Now()
	defer func() { metrics.SyncDuration.Observe(time.Since(start).Seconds()) }()

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = a.opts.SyncParallelism
	}

	if err := a.syncOutputs(ctx, parallelism); err != nil {
		return nil, err
	}
	if !opts.SkipPendingTransactions {
		if err := a.syncPendingTransactions(ctx); err != nil {
			return nil, err
		}
	}
	if !opts.SkipFoundries {
		if err := a.syncFoundries(ctx); err != nil {
			return nil, err
		}
	}
	if err := a.save(); err != nil {
		return nil, err
	}

	balance, err := a.Balance(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Info().
		Uint64("total", balance.BaseCoin.Total).
		Uint64("available", balance.BaseCoin.Available).
		Dur("took", time.Since(start)).
		Msg("Account synced")
	return balance, nil
}

// syncAddresses returns the account and derived addresses not in queried.
func (a *Account) syncAddresses(queried types.AddressSet) []types.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var addrs []types.Address
	for addr := range a.addressSet() {
		if !queried.Contains(addr) {
			addrs = append(addrs, addr)
		}
	}
	for addr := range a.derivedAddresses() {
		if !queried.Contains(addr) {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// syncOutputs lists the unspent outputs of every account address and
// fetches the ones not held yet. Aliases and NFTs found on the way have
// their own addresses queried in a further round. Held outputs no address
// lists any more are marked spent.
func (a *Account) syncOutputs(ctx context.Context, parallelism int) error {
	networkID, err := a.client.NetworkID(ctx)
	if err != nil {
		return err
	}

	queried := make(types.AddressSet)
	current := make(map[types.OutputID]struct{})
	added := 0
	for {
		addrs := a.syncAddresses(queried)
		if len(addrs) == 0 {
			break
		}
		for _, addr := range addrs {
			queried[addr] = struct{}{}
		}
		found, err := a.syncOutputIDs(ctx, addrs, parallelism)
		if err != nil {
			return err
		}
		for _, f := range found {
			current[f.id] = struct{}{}
		}
		n, err := a.fetchOutputs(ctx, found, networkID, parallelism)
		if err != nil {
			return err
		}
		added += n
	}

	spent := 0
	a.mu.Lock()
	for id := range a.details.UnspentOutputs {
		if _, ok := current[id]; ok {
			continue
		}
		a.markSpentLocked(id)
		spent++
	}
	a.mu.Unlock()

	metrics.OutputsFetched.Add(float64(added))
	a.logger.Debug().Int("found", len(current)).Int("new", added).Int("spent", spent).Msg("Synced outputs")
	return nil
}

// syncOutputIDs lists the unspent output ids of addrs.
func (a *Account) syncOutputIDs(ctx context.Context, addrs []types.Address, parallelism int) ([]foundOutput, error) {
	var (
		mu    sync.Mutex
		found []foundOutput
		seen  = make(map[types.OutputID]struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, addr := range addrs {
		addr := addr
		g.Go(func() error {
			ids, err := a.client.OutputIDsForAddress(gctx, addr)
			if err != nil {
				return fmt.Errorf("output ids for %s: %w", addr, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				found = append(found, foundOutput{id: id, owner: addr})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

// fetchOutputs fetches the found outputs not held yet and merges them.
// Nothing is merged if any fetch fails.
func (a *Account) fetchOutputs(ctx context.Context, found []foundOutput, networkID uint64, parallelism int) (int, error) {
	a.mu.RLock()
	var unknown []foundOutput
	for _, f := range found {
		if _, ok := a.details.UnspentOutputs[f.id]; !ok {
			unknown = append(unknown, f)
		}
	}
	a.mu.RUnlock()

	fetched := make([]*OutputData, len(unknown))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, f := range unknown {
		i, f := i, f
		g.Go(func() error {
			out, meta, err := a.client.GetOutput(gctx, f.id)
			if errors.Is(err, api.ErrNotFound) {
				// Spent between listing and fetching.
				return nil
			}
			if err != nil {
				return fmt.Errorf("output %s: %w", f.id, err)
			}
			fetched[i] = &OutputData{
				OutputID:  f.id,
				Metadata:  *meta,
				Output:    out,
				IsSpent:   meta.IsSpent,
				Address:   f.owner,
				NetworkID: networkID,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	added := 0
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range fetched {
		if o == nil {
			continue
		}
		o.Chain = a.chainFor(o.Address)
		a.details.Outputs[o.OutputID] = *o
		if !o.IsSpent {
			a.details.UnspentOutputs[o.OutputID] = *o
		}
		added++
	}
	return added, nil
}

// markSpentLocked moves id out of the unspent set. Caller holds mu.
func (a *Account) markSpentLocked(id types.OutputID) {
	delete(a.details.UnspentOutputs, id)
	delete(a.details.LockedOutputs, id)
	if o, ok := a.details.Outputs[id]; ok {
		o.IsSpent = true
		a.details.Outputs[id] = o
	}
}

// syncPendingTransactions refreshes the inclusion state of pending
// transactions.
func (a *Account) syncPendingTransactions(ctx context.Context) error {
	for _, t := range a.PendingTransactions() {
		state, err := a.client.TransactionInclusionState(ctx, t.TransactionID)
		if err != nil {
			return fmt.Errorf("inclusion state of %s: %w", t.TransactionID, err)
		}
		a.applyInclusionState(t.TransactionID, state)
	}
	return nil
}

// applyInclusionState records a new inclusion state. Confirmed
// transactions spend their inputs; conflicting ones release them.
func (a *Account) applyInclusionState(id types.TransactionID, state api.InclusionState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.details.Transactions[id]
	if !ok || t.InclusionState == state {
		return
	}
	t.InclusionState = state
	a.details.Transactions[id] = t

	switch state {
	case api.InclusionIncluded:
		delete(a.details.PendingTransactions, id)
		if t.Payload != nil {
			for _, outID := range t.Payload.Essence.InputOutputIDs() {
				a.markSpentLocked(outID)
			}
		}
	case api.InclusionConflicting, api.InclusionNoTransaction:
		delete(a.details.PendingTransactions, id)
		if t.Payload != nil {
			for _, outID := range t.Payload.Essence.InputOutputIDs() {
				delete(a.details.LockedOutputs, outID)
			}
		}
	}
	a.logger.Debug().Str("tx", id.String()).Str("state", state.String()).Msg("Transaction inclusion state changed")
}

// syncFoundries requests the foundries of held aliases and native tokens
// and stores their token metadata.
func (a *Account) syncFoundries(ctx context.Context) error {
	a.mu.RLock()
	var ids []types.FoundryID
	for id, o := range a.details.UnspentOutputs {
		if alias, ok := o.Output.(*output.AliasOutput); ok {
			if alias.FoundryCounter() > maxAliasFoundryLookups {
				a.logger.Warn().
					Str("output", id.String()).
					Uint32("foundryCounter", alias.FoundryCounter()).
					Int("limit", maxAliasFoundryLookups).
					Msg("Alias foundry counter above lookup limit, truncating")
			}
			ids = append(ids, alias.FoundryIDs(id, maxAliasFoundryLookups)...)
		}
		for _, nt := range o.Output.NativeTokens() {
			ids = append(ids, nt.ID.FoundryID())
		}
	}
	a.mu.RUnlock()

	if err := a.requestAndStoreFoundryOutputs(ctx, ids); err != nil {
		return err
	}

	var foundries []*output.FoundryOutput
	for _, f := range a.NativeTokenFoundries() {
		foundries = append(foundries, f)
	}
	written, err := token.ExtractAndStoreMetadata(a.tokens, foundries)
	if err != nil {
		return fmt.Errorf("store token metadata: %w", err)
	}
	if written > 0 {
		a.logger.Debug().Int("tokens", written).Msg("Stored token metadata")
	}
	return nil
}
