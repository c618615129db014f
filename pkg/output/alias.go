package output

import (
	"bytes"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// AliasStateMetadataMaxLength bounds the alias state metadata.
const AliasStateMetadataMaxLength = 8192

// AliasOutput is a chain output with a state controller and a governor.
// Aliases control foundries.
type AliasOutput struct {
	amount            uint64
	nativeTokens      NativeTokens
	aliasID           types.AliasID
	stateIndex        uint32
	stateMetadata     []byte
	foundryCounter    uint32
	unlockConditions  UnlockConditions
	features          Features
	immutableFeatures Features
}

// Kind implements Output.
func (o *AliasOutput) Kind() Kind { return KindAlias }

// Amount implements Output.
func (o *AliasOutput) Amount() uint64 { return o.amount }

// NativeTokens implements Output.
func (o *AliasOutput) NativeTokens() NativeTokens { return o.nativeTokens.clone() }

// UnlockConditions implements Output.
func (o *AliasOutput) UnlockConditions() UnlockConditions { return o.unlockConditions.clone() }

// Features implements Output.
func (o *AliasOutput) Features() Features { return o.features.clone() }

// ImmutableFeatures implements Output.
func (o *AliasOutput) ImmutableFeatures() Features { return o.immutableFeatures.clone() }

// AliasID returns the alias ID; null for an alias being created.
func (o *AliasOutput) AliasID() types.AliasID { return o.aliasID }

// AliasIDNonNull returns the alias ID, deriving it from outputID when null.
func (o *AliasOutput) AliasIDNonNull(outputID types.OutputID) types.AliasID {
	return o.aliasID.OrFromOutputID(outputID)
}

// StateIndex returns the state index.
func (o *AliasOutput) StateIndex() uint32 { return o.stateIndex }

// StateMetadata returns a copy of the state metadata.
func (o *AliasOutput) StateMetadata() []byte { return bytes.Clone(o.stateMetadata) }

// FoundryCounter returns the number of foundries created by the alias.
func (o *AliasOutput) FoundryCounter() uint32 { return o.foundryCounter }

// StateControllerAddress returns the state controller.
func (o *AliasOutput) StateControllerAddress() types.Address {
	uc, _ := o.unlockConditions.StateControllerAddress()
	return uc.Address
}

// GovernorAddress returns the governor.
func (o *AliasOutput) GovernorAddress() types.Address {
	uc, _ := o.unlockConditions.GovernorAddress()
	return uc.Address
}

// FoundryIDs returns the IDs of the foundries the alias has created, given
// the output ID the alias lives in. A positive limit keeps only the first
// limit serial numbers.
func (o *AliasOutput) FoundryIDs(outputID types.OutputID, limit int) []types.FoundryID {
	n := uint64(o.foundryCounter)
	if limit > 0 && uint64(limit) < n {
		n = uint64(limit)
	}
	addr := o.AliasIDNonNull(outputID).ToAddress()
	ids := make([]types.FoundryID, 0, n)
	for serial := uint64(1); serial <= n; serial++ {
		ids = append(ids, types.NewFoundryID(addr, uint32(serial), TokenSchemeSimple))
	}
	return ids
}

// AliasOutputBuilder builds an AliasOutput.
type AliasOutputBuilder struct {
	builderBase
	aliasID           types.AliasID
	stateIndex        uint32
	stateMetadata     []byte
	foundryCounter    uint32
	immutableFeatures []Feature
}

// NewAliasOutputBuilder starts an alias output carrying amount.
func NewAliasOutputBuilder(amount uint64, aliasID types.AliasID) *AliasOutputBuilder {
	return &AliasOutputBuilder{builderBase: builderBase{amount: amount}, aliasID: aliasID}
}

// NewAliasOutputBuilderWithMinimumStorageDeposit starts an alias output whose
// amount is the minimum storage deposit under rent.
func NewAliasOutputBuilderWithMinimumStorageDeposit(rent RentStructure, aliasID types.AliasID) *AliasOutputBuilder {
	return &AliasOutputBuilder{builderBase: builderBase{rent: &rent}, aliasID: aliasID}
}

// WithAmount sets a fixed amount.
func (b *AliasOutputBuilder) WithAmount(amount uint64) *AliasOutputBuilder {
	b.amount = amount
	b.rent = nil
	return b
}

// WithStateIndex sets the state index.
func (b *AliasOutputBuilder) WithStateIndex(i uint32) *AliasOutputBuilder {
	b.stateIndex = i
	return b
}

// WithStateMetadata sets the state metadata.
func (b *AliasOutputBuilder) WithStateMetadata(data []byte) *AliasOutputBuilder {
	b.stateMetadata = bytes.Clone(data)
	return b
}

// WithFoundryCounter sets the foundry counter.
func (b *AliasOutputBuilder) WithFoundryCounter(n uint32) *AliasOutputBuilder {
	b.foundryCounter = n
	return b
}

// AddNativeToken adds a native token.
func (b *AliasOutputBuilder) AddNativeToken(nt NativeToken) *AliasOutputBuilder {
	b.nativeTokens = append(b.nativeTokens, nt)
	return b
}

// AddUnlockCondition adds an unlock condition.
func (b *AliasOutputBuilder) AddUnlockCondition(uc UnlockCondition) *AliasOutputBuilder {
	b.unlockConditions = append(b.unlockConditions, uc)
	return b
}

// AddFeature adds a mutable feature.
func (b *AliasOutputBuilder) AddFeature(f Feature) *AliasOutputBuilder {
	b.features = append(b.features, f)
	return b
}

// AddImmutableFeature adds an immutable feature.
func (b *AliasOutputBuilder) AddImmutableFeature(f Feature) *AliasOutputBuilder {
	b.immutableFeatures = append(b.immutableFeatures, f)
	return b
}

// Finish validates the accumulated fields against tokenSupply and returns
// the output.
func (b *AliasOutputBuilder) Finish(tokenSupply uint64) (*AliasOutput, error) {
	nts, conds, features, err := b.finishCommon(aliasUnlockConditions, aliasFeatures)
	if err != nil {
		return nil, err
	}
	immutable, err := newFeatures(b.immutableFeatures, aliasImmutableFeatures)
	if err != nil {
		return nil, fmt.Errorf("immutable features: %w", err)
	}
	if err := requireUnlockCondition(conds, UnlockStateControllerAddress); err != nil {
		return nil, err
	}
	if err := requireUnlockCondition(conds, UnlockGovernorAddress); err != nil {
		return nil, err
	}
	if len(b.stateMetadata) > AliasStateMetadataMaxLength {
		return nil, fmt.Errorf("%w: length %d, max %d", ErrInvalidStateMetadata, len(b.stateMetadata), AliasStateMetadataMaxLength)
	}
	if b.aliasID.IsNull() && (b.stateIndex != 0 || b.foundryCounter != 0) {
		return nil, ErrNonZeroStateOnCreation
	}
	out := &AliasOutput{
		nativeTokens:      nts,
		aliasID:           b.aliasID,
		stateIndex:        b.stateIndex,
		stateMetadata:     bytes.Clone(b.stateMetadata),
		foundryCounter:    b.foundryCounter,
		unlockConditions:  conds,
		features:          features,
		immutableFeatures: immutable,
	}
	if !b.aliasID.IsNull() {
		self := b.aliasID.ToAddress()
		if out.StateControllerAddress() == self || out.GovernorAddress() == self {
			return nil, fmt.Errorf("%w: alias %s", ErrSelfDeposit, b.aliasID)
		}
	}
	out.amount = b.resolveAmount(out)
	if err := verifyAmount(out.amount, tokenSupply); err != nil {
		return nil, err
	}
	return out, nil
}
