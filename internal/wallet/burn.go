package wallet

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

// BurnNft destroys an NFT. The NFT's base tokens and native tokens go to
// the address currently able to unlock it. An NFT is not burned while its
// address can unlock any unspent output at the node's time.
func (a *Account) BurnNft(ctx context.Context, nftID types.NftID, opts *TransactionOptions) (*Transaction, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	now, err := a.client.TimeChecked(ctx)
	if err != nil {
		return nil, err
	}
	supply, err := a.client.TokenSupply(ctx)
	if err != nil {
		return nil, err
	}

	nftAddr := types.AddressSet{nftID.ToAddress(): struct{}{}}
	var (
		blocking []types.OutputID
		nftOut   *OutputData
	)
	for _, o := range a.UnspentOutputs() {
		o := o
		if CanUnlockNow(nil, nftAddr, o.Output, now, nil) {
			blocking = append(blocking, o.OutputID)
			continue
		}
		if n, ok := o.Output.(*output.NftOutput); ok && n.NftIDNonNull(o.OutputID) == nftID {
			nftOut = &o
		}
	}
	if len(blocking) > 0 {
		sort.Slice(blocking, func(i, j int) bool { return bytes.Compare(blocking[i][:], blocking[j][:]) < 0 })
		return nil, &StillOwnsOutputsError{NftID: nftID, OutputIDs: blocking}
	}
	if nftOut == nil {
		return nil, fmt.Errorf("%w: %s", ErrNftNotFoundInUnspentOutputs, nftID)
	}

	owner, ok := EffectiveAddress(nftOut.Output, now, nil)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCustomInputNotUnlockable, nftOut.OutputID)
	}
	basic, err := output.NewBasicOutputBuilder(nftOut.Output.Amount()).
		WithNativeTokens(nftOut.Output.NativeTokens()).
		AddUnlockCondition(output.AddressUnlockCondition{Address: owner}).
		Finish(supply)
	if err != nil {
		return nil, err
	}

	opts = opts.clone()
	opts.MandatoryInputs = append(opts.MandatoryInputs, nftOut.OutputID)
	if opts.Burn == nil {
		opts.Burn = &tx.Burn{}
	}
	opts.Burn.AddNft(nftID)

	a.logger.Info().Str("nft", nftID.String()).Msg("Burning NFT")
	return a.send(ctx, []output.Output{basic}, opts)
}

// BurnNativeToken destroys amount of a native token held by the account.
// Whatever is left of the consumed outputs goes to the remainder.
func (a *Account) BurnNativeToken(ctx context.Context, tokenID types.TokenID, amount *uint256.Int, opts *TransactionOptions) (*Transaction, error) {
	if amount == nil || amount.IsZero() {
		return nil, fmt.Errorf("%w: zero burn amount", ErrInvalidAmount)
	}
	a.opMu.Lock()
	defer a.opMu.Unlock()

	held := new(uint256.Int)
	for _, o := range a.UnspentOutputs() {
		held.Add(held, tokenAmount(o, tokenID))
	}
	if held.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: %s holds %s, burning %s", ErrNativeTokenNotFound, tokenID, held.Dec(), amount.Dec())
	}

	opts = opts.clone()
	if opts.Burn == nil {
		opts.Burn = &tx.Burn{}
	}
	opts.Burn.AddNativeToken(tokenID, amount)

	a.logger.Info().Str("token", tokenID.String()).Str("amount", amount.Dec()).Msg("Burning native tokens")
	return a.send(ctx, nil, opts)
}
