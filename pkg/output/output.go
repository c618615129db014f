// Package output models the ledger's unspent outputs.
//
// Outputs are immutable once built. Every output kind has a builder; the
// builder's Finish method is the only way to obtain a value, so every live
// output satisfies the rules of its kind.
package output

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// AmountMin is the smallest amount any non-treasury output can carry.
const AmountMin uint64 = 1

// Kind tags the variant of an Output.
type Kind byte

// Output kinds.
const (
	KindTreasury Kind = 2
	KindBasic    Kind = 3
	KindAlias    Kind = 4
	KindFoundry  Kind = 5
	KindNft      Kind = 6
)

func (k Kind) String() string {
	switch k {
	case KindTreasury:
		return "treasury"
	case KindBasic:
		return "basic"
	case KindAlias:
		return "alias"
	case KindFoundry:
		return "foundry"
	case KindNft:
		return "nft"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// Output is the capability set shared by all output kinds.
// Accessors return copies; an Output never changes after Finish.
type Output interface {
	Kind() Kind
	Amount() uint64
	NativeTokens() NativeTokens
	UnlockConditions() UnlockConditions
	Features() Features
	ImmutableFeatures() Features
	// Bytes returns the canonical binary serialization.
	Bytes() []byte
}

// Allowed sets per kind.
var (
	basicUnlockConditions = UnlockAddress.flag() | UnlockStorageDepositReturn.flag() |
		UnlockTimelock.flag() | UnlockExpiration.flag()
	nftUnlockConditions     = basicUnlockConditions
	aliasUnlockConditions   = UnlockStateControllerAddress.flag() | UnlockGovernorAddress.flag()
	foundryUnlockConditions = UnlockImmutableAliasAddress.flag()

	basicFeatures            = FeatureSender.flag() | FeatureMetadata.flag() | FeatureTag.flag()
	nftFeatures              = basicFeatures
	nftImmutableFeatures     = FeatureIssuer.flag() | FeatureMetadata.flag()
	aliasFeatures            = FeatureSender.flag() | FeatureMetadata.flag()
	aliasImmutableFeatures   = FeatureIssuer.flag() | FeatureMetadata.flag()
	foundryFeatures          = FeatureMetadata.flag()
	foundryImmutableFeatures = FeatureMetadata.flag()
)

// OwnerAddress returns the address that controls out when no time-based
// condition applies: the Address condition of basic and NFT outputs, the
// state controller of aliases and the alias of foundries.
func OwnerAddress(out Output) (types.Address, bool) {
	conds := out.UnlockConditions()
	switch out.Kind() {
	case KindBasic, KindNft:
		uc, ok := conds.Address()
		return uc.Address, ok
	case KindAlias:
		uc, ok := conds.StateControllerAddress()
		return uc.Address, ok
	case KindFoundry:
		uc, ok := conds.ImmutableAliasAddress()
		return uc.Address, ok
	default:
		return types.Address{}, false
	}
}

func verifyAmount(amount, tokenSupply uint64) error {
	if amount < AmountMin {
		return fmt.Errorf("%w: %d < %d", ErrAmountBelowMinimum, amount, AmountMin)
	}
	if amount > tokenSupply {
		return fmt.Errorf("%w: %d > %d", ErrAmountExceedsTokenSupply, amount, tokenSupply)
	}
	return nil
}

func requireUnlockCondition(conds UnlockConditions, kind UnlockConditionKind) error {
	if conds.get(kind) == nil {
		return fmt.Errorf("%w: %s", ErrMissingUnlockCondition, kind)
	}
	return nil
}

// builderBase holds what every output builder accumulates.
type builderBase struct {
	amount           uint64
	rent             *RentStructure
	nativeTokens     []NativeToken
	unlockConditions []UnlockCondition
	features         []Feature
}

func (b *builderBase) replaceUnlockCondition(uc UnlockCondition) {
	for i, c := range b.unlockConditions {
		if c.Kind() == uc.Kind() {
			b.unlockConditions[i] = uc
			return
		}
	}
	b.unlockConditions = append(b.unlockConditions, uc)
}

func (b *builderBase) replaceFeature(f Feature) {
	for i, c := range b.features {
		if c.Kind() == f.Kind() {
			b.features[i] = f
			return
		}
	}
	b.features = append(b.features, f)
}

func (b *builderBase) finishCommon(allowedConds, allowedFeatures uint16) (NativeTokens, UnlockConditions, Features, error) {
	nts, err := newNativeTokens(b.nativeTokens)
	if err != nil {
		return nil, nil, nil, err
	}
	conds, err := newUnlockConditions(b.unlockConditions, allowedConds)
	if err != nil {
		return nil, nil, nil, err
	}
	features, err := newFeatures(b.features, allowedFeatures)
	if err != nil {
		return nil, nil, nil, err
	}
	return nts, conds, features, nil
}

// resolveAmount returns the builder amount, or the minimum storage deposit of
// out when the builder was created from a rent structure.
func (b *builderBase) resolveAmount(out Output) uint64 {
	if b.rent == nil {
		return b.amount
	}
	deposit := b.rent.MinimumStorageDeposit(out)
	if deposit < AmountMin {
		deposit = AmountMin
	}
	return deposit
}
