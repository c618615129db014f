package wallet

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/internal/token"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

// BaseCoinBalance is the base coin held by an account.
type BaseCoinBalance struct {
	Total     uint64 `json:"total"`
	Available uint64 `json:"available"`
}

// RequiredStorageDeposit is the deposit tied up per output kind.
type RequiredStorageDeposit struct {
	Alias   uint64 `json:"alias"`
	Basic   uint64 `json:"basic"`
	Foundry uint64 `json:"foundry"`
	Nft     uint64 `json:"nft"`
}

// NativeTokenBalance is the amount of one native token held.
type NativeTokenBalance struct {
	TokenID   types.TokenID   `json:"tokenId"`
	Metadata  *token.Metadata `json:"metadata,omitempty"`
	Total     *uint256.Int    `json:"total"`
	Available *uint256.Int    `json:"available"`
}

// Balance summarises the unspent outputs of an account.
type Balance struct {
	BaseCoin               BaseCoinBalance        `json:"baseCoin"`
	RequiredStorageDeposit RequiredStorageDeposit `json:"requiredStorageDeposit"`
	NativeTokens           []NativeTokenBalance   `json:"nativeTokens"`
	Nfts                   []types.NftID          `json:"nfts"`
	Aliases                []types.AliasID        `json:"aliases"`
	Foundries              []types.FoundryID      `json:"foundries"`

	// PotentiallyLockedOutputs lists outputs with time or deposit return
	// conditions. The value is true when the account can consume the
	// output now.
	PotentiallyLockedOutputs map[types.OutputID]bool `json:"potentiallyLockedOutputs"`
}

// Balance computes the balance at the node's current time.
func (a *Account) Balance(ctx context.Context) (*Balance, error) {
	now, err := a.client.TimeChecked(ctx)
	if err != nil {
		return nil, err
	}
	rent, err := a.client.RentStructure(ctx)
	if err != nil {
		return nil, err
	}
	return a.BalanceAt(now, rent)
}

// BalanceAt computes the balance at now without network access.
func (a *Account) BalanceAt(now uint32, rent output.RentStructure) (*Balance, error) {
	a.mu.RLock()
	owned := a.addressSet()
	derived := a.derivedAddresses()
	unspent := sortedOutputs(a.details.UnspentOutputs)
	locked := copyMap(a.details.LockedOutputs)
	foundries := copyMap(a.details.NativeTokenFoundries)
	a.mu.RUnlock()

	b := &Balance{PotentiallyLockedOutputs: make(map[types.OutputID]bool)}
	total := make(token.Balances)
	available := make(token.Balances)

	for _, o := range unspent {
		out := o.Output
		if out.Kind() == output.KindTreasury {
			continue
		}
		conds := out.UnlockConditions()
		unlockable := CanUnlockNow(owned, derived, out, now, nil)
		if conds.HasTimeDependence() {
			b.PotentiallyLockedOutputs[o.OutputID] = unlockable
		}
		if !unlockable {
			continue
		}

		amount := out.Amount()
		if sdr, ok := conds.StorageDepositReturn(); ok && !owned.Contains(sdr.ReturnAddress) {
			amount -= sdr.Amount
		}
		b.BaseCoin.Total += amount
		_, isLocked := locked[o.OutputID]
		if !isLocked {
			b.BaseCoin.Available += amount
		}

		deposit := rent.MinimumStorageDeposit(out)
		switch v := out.(type) {
		case *output.BasicOutput:
			b.RequiredStorageDeposit.Basic += deposit
		case *output.AliasOutput:
			b.RequiredStorageDeposit.Alias += deposit
			b.Aliases = append(b.Aliases, v.AliasIDNonNull(o.OutputID))
		case *output.FoundryOutput:
			b.RequiredStorageDeposit.Foundry += deposit
			b.Foundries = append(b.Foundries, v.ID())
		case *output.NftOutput:
			b.RequiredStorageDeposit.Nft += deposit
			b.Nfts = append(b.Nfts, v.NftIDNonNull(o.OutputID))
		}

		for _, nt := range out.NativeTokens() {
			if err := total.Add(nt.ID, nt.Amount); err != nil {
				return nil, err
			}
			if !isLocked {
				if err := available.Add(nt.ID, nt.Amount); err != nil {
					return nil, err
				}
			}
		}
	}

	for id, amount := range total {
		nb := NativeTokenBalance{TokenID: id, Total: amount, Available: available.Get(id)}
		nb.Metadata = a.tokenMetadata(id, foundries)
		b.NativeTokens = append(b.NativeTokens, nb)
	}
	sort.Slice(b.NativeTokens, func(i, j int) bool {
		return bytes.Compare(b.NativeTokens[i].TokenID[:], b.NativeTokens[j].TokenID[:]) < 0
	})
	return b, nil
}

// tokenMetadata looks up IRC30 metadata in the cached foundry first and
// the token store second.
func (a *Account) tokenMetadata(id types.TokenID, foundries map[types.FoundryID]*output.FoundryOutput) *token.Metadata {
	if f, ok := foundries[id.FoundryID()]; ok {
		if meta, ok := token.FoundryMetadata(f); ok {
			return meta
		}
	}
	if a.tokens == nil {
		return nil
	}
	meta, err := a.tokens.Get(id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.Debug().Err(err).Str("token", id.String()).Msg("Token metadata lookup failed")
		}
		return nil
	}
	return meta
}
