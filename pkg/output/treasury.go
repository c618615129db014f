package output

import "fmt"

// TreasuryOutput holds the protocol treasury. It has no unlock conditions
// and can only be consumed by a milestone.
type TreasuryOutput struct {
	amount uint64
}

// NewTreasuryOutput validates amount against tokenSupply.
func NewTreasuryOutput(amount, tokenSupply uint64) (*TreasuryOutput, error) {
	if amount > tokenSupply {
		return nil, fmt.Errorf("%w: %d > %d", ErrAmountExceedsTokenSupply, amount, tokenSupply)
	}
	return &TreasuryOutput{amount: amount}, nil
}

// Kind implements Output.
func (o *TreasuryOutput) Kind() Kind { return KindTreasury }

// Amount implements Output.
func (o *TreasuryOutput) Amount() uint64 { return o.amount }

// NativeTokens implements Output. Treasury outputs hold none.
func (o *TreasuryOutput) NativeTokens() NativeTokens { return nil }

// UnlockConditions implements Output. Treasury outputs have none.
func (o *TreasuryOutput) UnlockConditions() UnlockConditions { return nil }

// Features implements Output.
func (o *TreasuryOutput) Features() Features { return nil }

// ImmutableFeatures implements Output.
func (o *TreasuryOutput) ImmutableFeatures() Features { return nil }
