package output

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// NftOutput is a unique, non-fungible output with immutable features.
type NftOutput struct {
	amount            uint64
	nativeTokens      NativeTokens
	nftID             types.NftID
	unlockConditions  UnlockConditions
	features          Features
	immutableFeatures Features
}

// Kind implements Output.
func (o *NftOutput) Kind() Kind { return KindNft }

// Amount implements Output.
func (o *NftOutput) Amount() uint64 { return o.amount }

// NativeTokens implements Output.
func (o *NftOutput) NativeTokens() NativeTokens { return o.nativeTokens.clone() }

// UnlockConditions implements Output.
func (o *NftOutput) UnlockConditions() UnlockConditions { return o.unlockConditions.clone() }

// Features implements Output.
func (o *NftOutput) Features() Features { return o.features.clone() }

// ImmutableFeatures implements Output.
func (o *NftOutput) ImmutableFeatures() Features { return o.immutableFeatures.clone() }

// NftID returns the NFT ID; null for an NFT being minted.
func (o *NftOutput) NftID() types.NftID { return o.nftID }

// NftIDNonNull returns the NFT ID, deriving it from outputID when null.
func (o *NftOutput) NftIDNonNull(outputID types.OutputID) types.NftID {
	return o.nftID.OrFromOutputID(outputID)
}

// Address returns the address of the Address unlock condition.
func (o *NftOutput) Address() types.Address {
	uc, _ := o.unlockConditions.Address()
	return uc.Address
}

// NftOutputBuilder builds an NftOutput.
type NftOutputBuilder struct {
	builderBase
	nftID             types.NftID
	immutableFeatures []Feature
}

// NewNftOutputBuilder starts an NFT output carrying amount.
func NewNftOutputBuilder(amount uint64, nftID types.NftID) *NftOutputBuilder {
	return &NftOutputBuilder{builderBase: builderBase{amount: amount}, nftID: nftID}
}

// NewNftOutputBuilderWithMinimumStorageDeposit starts an NFT output whose
// amount is the minimum storage deposit under rent.
func NewNftOutputBuilderWithMinimumStorageDeposit(rent RentStructure, nftID types.NftID) *NftOutputBuilder {
	return &NftOutputBuilder{builderBase: builderBase{rent: &rent}, nftID: nftID}
}

// WithAmount sets a fixed amount.
func (b *NftOutputBuilder) WithAmount(amount uint64) *NftOutputBuilder {
	b.amount = amount
	b.rent = nil
	return b
}

// WithNftID sets the NFT ID.
func (b *NftOutputBuilder) WithNftID(id types.NftID) *NftOutputBuilder {
	b.nftID = id
	return b
}

// AddNativeToken adds a native token.
func (b *NftOutputBuilder) AddNativeToken(nt NativeToken) *NftOutputBuilder {
	b.nativeTokens = append(b.nativeTokens, nt)
	return b
}

// WithNativeTokens replaces the native tokens.
func (b *NftOutputBuilder) WithNativeTokens(nts NativeTokens) *NftOutputBuilder {
	b.nativeTokens = append([]NativeToken(nil), nts...)
	return b
}

// AddUnlockCondition adds an unlock condition.
func (b *NftOutputBuilder) AddUnlockCondition(uc UnlockCondition) *NftOutputBuilder {
	b.unlockConditions = append(b.unlockConditions, uc)
	return b
}

// AddFeature adds a mutable feature.
func (b *NftOutputBuilder) AddFeature(f Feature) *NftOutputBuilder {
	b.features = append(b.features, f)
	return b
}

// AddImmutableFeature adds an immutable feature.
func (b *NftOutputBuilder) AddImmutableFeature(f Feature) *NftOutputBuilder {
	b.immutableFeatures = append(b.immutableFeatures, f)
	return b
}

// Finish validates the accumulated fields against tokenSupply and returns
// the output.
func (b *NftOutputBuilder) Finish(tokenSupply uint64) (*NftOutput, error) {
	nts, conds, features, err := b.finishCommon(nftUnlockConditions, nftFeatures)
	if err != nil {
		return nil, err
	}
	immutable, err := newFeatures(b.immutableFeatures, nftImmutableFeatures)
	if err != nil {
		return nil, fmt.Errorf("immutable features: %w", err)
	}
	if err := requireUnlockCondition(conds, UnlockAddress); err != nil {
		return nil, err
	}
	out := &NftOutput{
		nativeTokens:      nts,
		nftID:             b.nftID,
		unlockConditions:  conds,
		features:          features,
		immutableFeatures: immutable,
	}
	if !b.nftID.IsNull() && out.Address() == b.nftID.ToAddress() {
		return nil, fmt.Errorf("%w: nft %s", ErrSelfDeposit, b.nftID)
	}
	out.amount = b.resolveAmount(out)
	if err := verifyAmount(out.amount, tokenSupply); err != nil {
		return nil, err
	}
	if err := verifyStorageDepositReturnAmount(conds, out.amount); err != nil {
		return nil, err
	}
	return out, nil
}
