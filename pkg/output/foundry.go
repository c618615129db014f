package output

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// FoundryOutput controls the supply of one native token.
type FoundryOutput struct {
	amount            uint64
	nativeTokens      NativeTokens
	serialNumber      uint32
	tokenScheme       *SimpleTokenScheme
	unlockConditions  UnlockConditions
	features          Features
	immutableFeatures Features
}

// Kind implements Output.
func (o *FoundryOutput) Kind() Kind { return KindFoundry }

// Amount implements Output.
func (o *FoundryOutput) Amount() uint64 { return o.amount }

// NativeTokens implements Output.
func (o *FoundryOutput) NativeTokens() NativeTokens { return o.nativeTokens.clone() }

// UnlockConditions implements Output.
func (o *FoundryOutput) UnlockConditions() UnlockConditions { return o.unlockConditions.clone() }

// Features implements Output.
func (o *FoundryOutput) Features() Features { return o.features.clone() }

// ImmutableFeatures implements Output.
func (o *FoundryOutput) ImmutableFeatures() Features { return o.immutableFeatures.clone() }

// SerialNumber returns the serial number within the controlling alias.
func (o *FoundryOutput) SerialNumber() uint32 { return o.serialNumber }

// TokenScheme returns the token scheme. The scheme is immutable.
func (o *FoundryOutput) TokenScheme() *SimpleTokenScheme { return o.tokenScheme }

// AliasAddress returns the controlling alias address.
func (o *FoundryOutput) AliasAddress() types.Address {
	uc, _ := o.unlockConditions.ImmutableAliasAddress()
	return uc.Address
}

// ID returns the foundry ID.
func (o *FoundryOutput) ID() types.FoundryID {
	return types.NewFoundryID(o.AliasAddress(), o.serialNumber, o.tokenScheme.Kind())
}

// TokenID returns the ID of the native token the foundry controls.
func (o *FoundryOutput) TokenID() types.TokenID {
	return o.ID().TokenID()
}

// FoundryOutputBuilder builds a FoundryOutput.
type FoundryOutputBuilder struct {
	builderBase
	serialNumber      uint32
	tokenScheme       *SimpleTokenScheme
	immutableFeatures []Feature
}

// NewFoundryOutputBuilder starts a foundry output carrying amount.
func NewFoundryOutputBuilder(amount uint64, serialNumber uint32, scheme *SimpleTokenScheme) *FoundryOutputBuilder {
	return &FoundryOutputBuilder{
		builderBase:  builderBase{amount: amount},
		serialNumber: serialNumber,
		tokenScheme:  scheme,
	}
}

// NewFoundryOutputBuilderWithMinimumStorageDeposit starts a foundry output
// whose amount is the minimum storage deposit under rent.
func NewFoundryOutputBuilderWithMinimumStorageDeposit(rent RentStructure, serialNumber uint32, scheme *SimpleTokenScheme) *FoundryOutputBuilder {
	return &FoundryOutputBuilder{
		builderBase:  builderBase{rent: &rent},
		serialNumber: serialNumber,
		tokenScheme:  scheme,
	}
}

// AddNativeToken adds a native token.
func (b *FoundryOutputBuilder) AddNativeToken(nt NativeToken) *FoundryOutputBuilder {
	b.nativeTokens = append(b.nativeTokens, nt)
	return b
}

// AddUnlockCondition adds an unlock condition.
func (b *FoundryOutputBuilder) AddUnlockCondition(uc UnlockCondition) *FoundryOutputBuilder {
	b.unlockConditions = append(b.unlockConditions, uc)
	return b
}

// AddFeature adds a mutable feature.
func (b *FoundryOutputBuilder) AddFeature(f Feature) *FoundryOutputBuilder {
	b.features = append(b.features, f)
	return b
}

// AddImmutableFeature adds an immutable feature.
func (b *FoundryOutputBuilder) AddImmutableFeature(f Feature) *FoundryOutputBuilder {
	b.immutableFeatures = append(b.immutableFeatures, f)
	return b
}

// Finish validates the accumulated fields against tokenSupply and returns
// the output.
func (b *FoundryOutputBuilder) Finish(tokenSupply uint64) (*FoundryOutput, error) {
	if b.tokenScheme == nil {
		return nil, fmt.Errorf("%w: missing", ErrInvalidTokenScheme)
	}
	nts, conds, features, err := b.finishCommon(foundryUnlockConditions, foundryFeatures)
	if err != nil {
		return nil, err
	}
	immutable, err := newFeatures(b.immutableFeatures, foundryImmutableFeatures)
	if err != nil {
		return nil, fmt.Errorf("immutable features: %w", err)
	}
	if err := requireUnlockCondition(conds, UnlockImmutableAliasAddress); err != nil {
		return nil, err
	}
	out := &FoundryOutput{
		nativeTokens:      nts,
		serialNumber:      b.serialNumber,
		tokenScheme:       b.tokenScheme,
		unlockConditions:  conds,
		features:          features,
		immutableFeatures: immutable,
	}
	out.amount = b.resolveAmount(out)
	if err := verifyAmount(out.amount, tokenSupply); err != nil {
		return nil, err
	}
	return out, nil
}
