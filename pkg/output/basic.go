package output

import "fmt"

// BasicOutput holds base coins and native tokens owned by an address.
type BasicOutput struct {
	amount           uint64
	nativeTokens     NativeTokens
	unlockConditions UnlockConditions
	features         Features
}

// Kind implements Output.
func (o *BasicOutput) Kind() Kind { return KindBasic }

// Amount implements Output.
func (o *BasicOutput) Amount() uint64 { return o.amount }

// NativeTokens implements Output.
func (o *BasicOutput) NativeTokens() NativeTokens { return o.nativeTokens.clone() }

// UnlockConditions implements Output.
func (o *BasicOutput) UnlockConditions() UnlockConditions { return o.unlockConditions.clone() }

// Features implements Output.
func (o *BasicOutput) Features() Features { return o.features.clone() }

// ImmutableFeatures implements Output. Basic outputs have none.
func (o *BasicOutput) ImmutableFeatures() Features { return nil }

// IsSimpleTransfer reports whether the output is locked by nothing but an
// address and carries no native tokens.
func (o *BasicOutput) IsSimpleTransfer() bool {
	return len(o.unlockConditions) == 1 && len(o.nativeTokens) == 0
}

// BasicOutputBuilder builds a BasicOutput.
type BasicOutputBuilder struct {
	builderBase
}

// NewBasicOutputBuilder starts a basic output carrying amount.
func NewBasicOutputBuilder(amount uint64) *BasicOutputBuilder {
	return &BasicOutputBuilder{builderBase{amount: amount}}
}

// NewBasicOutputBuilderWithMinimumStorageDeposit starts a basic output whose
// amount is the minimum storage deposit under rent.
func NewBasicOutputBuilderWithMinimumStorageDeposit(rent RentStructure) *BasicOutputBuilder {
	return &BasicOutputBuilder{builderBase{rent: &rent}}
}

// WithAmount sets a fixed amount.
func (b *BasicOutputBuilder) WithAmount(amount uint64) *BasicOutputBuilder {
	b.amount = amount
	b.rent = nil
	return b
}

// AddNativeToken adds a native token.
func (b *BasicOutputBuilder) AddNativeToken(nt NativeToken) *BasicOutputBuilder {
	b.nativeTokens = append(b.nativeTokens, nt)
	return b
}

// WithNativeTokens replaces the native tokens.
func (b *BasicOutputBuilder) WithNativeTokens(nts NativeTokens) *BasicOutputBuilder {
	b.nativeTokens = append([]NativeToken(nil), nts...)
	return b
}

// AddUnlockCondition adds an unlock condition.
func (b *BasicOutputBuilder) AddUnlockCondition(uc UnlockCondition) *BasicOutputBuilder {
	b.unlockConditions = append(b.unlockConditions, uc)
	return b
}

// ReplaceUnlockCondition sets uc, replacing any condition of the same kind.
func (b *BasicOutputBuilder) ReplaceUnlockCondition(uc UnlockCondition) *BasicOutputBuilder {
	b.replaceUnlockCondition(uc)
	return b
}

// AddFeature adds a feature.
func (b *BasicOutputBuilder) AddFeature(f Feature) *BasicOutputBuilder {
	b.features = append(b.features, f)
	return b
}

// ReplaceFeature sets f, replacing any feature of the same kind.
func (b *BasicOutputBuilder) ReplaceFeature(f Feature) *BasicOutputBuilder {
	b.replaceFeature(f)
	return b
}

// Finish validates the accumulated fields against tokenSupply and returns
// the output.
func (b *BasicOutputBuilder) Finish(tokenSupply uint64) (*BasicOutput, error) {
	nts, conds, features, err := b.finishCommon(basicUnlockConditions, basicFeatures)
	if err != nil {
		return nil, err
	}
	if err := requireUnlockCondition(conds, UnlockAddress); err != nil {
		return nil, err
	}
	out := &BasicOutput{
		nativeTokens:     nts,
		unlockConditions: conds,
		features:         features,
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

func verifyStorageDepositReturnAmount(conds UnlockConditions, amount uint64) error {
	sdr, ok := conds.StorageDepositReturn()
	if ok && sdr.Amount > amount {
		return fmt.Errorf("%w: storage deposit return %d exceeds amount %d", ErrInvalidUnlockCondition, sdr.Amount, amount)
	}
	return nil
}
