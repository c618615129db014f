package token

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

// Token validation errors.
var (
	ErrTokenConservation        = errors.New("token conservation violated")
	ErrUndeclaredBurn           = errors.New("native tokens burned without being declared")
	ErrTokenAmountOverflow      = errors.New("token amount overflows 256 bits")
	ErrInvalidFoundryTransition = errors.New("foundry supply counters decreased")
	ErrFoundryNotBurned         = errors.New("foundry destroyed without being declared")
)

// Balances maps token ids to amounts.
type Balances map[types.TokenID]*uint256.Int

// Add increases the balance of id by amount.
func (b Balances) Add(id types.TokenID, amount *uint256.Int) error {
	cur, ok := b[id]
	if !ok {
		b[id] = amount.Clone()
		return nil
	}
	sum, overflow := new(uint256.Int).AddOverflow(cur, amount)
	if overflow {
		return fmt.Errorf("token %s: %w", id, ErrTokenAmountOverflow)
	}
	b[id] = sum
	return nil
}

// Get returns the balance of id, zero when absent.
func (b Balances) Get(id types.TokenID) *uint256.Int {
	if v, ok := b[id]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

// SumNativeTokens totals the native tokens held by outputs.
func SumNativeTokens(outputs []output.Output) (Balances, error) {
	sums := make(Balances)
	for _, out := range outputs {
		for _, nt := range out.NativeTokens() {
			if err := sums.Add(nt.ID, nt.Amount); err != nil {
				return nil, err
			}
		}
	}
	return sums, nil
}

// SupplyChange is how much of a token the foundries of a transaction mint
// and melt.
type SupplyChange struct {
	Minted *uint256.Int
	Melted *uint256.Int
}

func foundriesByID(outputs []output.Output) map[types.FoundryID]*output.FoundryOutput {
	m := make(map[types.FoundryID]*output.FoundryOutput)
	for _, out := range outputs {
		if f, ok := out.(*output.FoundryOutput); ok {
			m[f.ID()] = f
		}
	}
	return m
}

// SupplyChanges compares the token schemes of input and output foundries.
// A foundry only present among the inputs must be declared in burn.
func SupplyChanges(inputs, outputs []output.Output, burn *tx.Burn) (map[types.TokenID]SupplyChange, error) {
	in := foundriesByID(inputs)
	out := foundriesByID(outputs)
	changes := make(map[types.TokenID]SupplyChange)

	for id, f := range out {
		minted := f.TokenScheme().MintedTokens()
		melted := f.TokenScheme().MeltedTokens()
		if prev, ok := in[id]; ok {
			prevMinted := prev.TokenScheme().MintedTokens()
			prevMelted := prev.TokenScheme().MeltedTokens()
			if minted.Lt(prevMinted) || melted.Lt(prevMelted) {
				return nil, fmt.Errorf("foundry %s: %w", id, ErrInvalidFoundryTransition)
			}
			minted.Sub(minted, prevMinted)
			melted.Sub(melted, prevMelted)
		}
		changes[id.TokenID()] = SupplyChange{Minted: minted, Melted: melted}
	}
	for id := range in {
		if _, ok := out[id]; ok {
			continue
		}
		if !burn.ContainsFoundry(id) {
			return nil, fmt.Errorf("foundry %s: %w", id, ErrFoundryNotBurned)
		}
	}
	return changes, nil
}

// ValidateTransition checks native token conservation for a transaction
// consuming inputs and creating outputs. For every token,
//
//	inputs + minted == outputs + melted + burned
//
// where burned is the amount declared in burn. Tokens that disappear
// without a declaration fail with ErrUndeclaredBurn.
func ValidateTransition(inputs, outputs []output.Output, burn *tx.Burn) error {
	inSums, err := SumNativeTokens(inputs)
	if err != nil {
		return err
	}
	outSums, err := SumNativeTokens(outputs)
	if err != nil {
		return err
	}
	changes, err := SupplyChanges(inputs, outputs, burn)
	if err != nil {
		return err
	}

	ids := make(map[types.TokenID]struct{})
	for id := range inSums {
		ids[id] = struct{}{}
	}
	for id := range outSums {
		ids[id] = struct{}{}
	}
	for id := range changes {
		ids[id] = struct{}{}
	}
	if burn != nil {
		for id := range burn.NativeTokens {
			ids[id] = struct{}{}
		}
	}

	for id := range ids {
		available := inSums.Get(id)
		required := outSums.Get(id)
		if c, ok := changes[id]; ok {
			if _, overflow := available.AddOverflow(available, c.Minted); overflow {
				return fmt.Errorf("token %s: %w", id, ErrTokenAmountOverflow)
			}
			if _, overflow := required.AddOverflow(required, c.Melted); overflow {
				return fmt.Errorf("token %s: %w", id, ErrTokenAmountOverflow)
			}
		}
		if burn != nil {
			if burned, ok := burn.NativeTokens[id]; ok {
				if _, overflow := required.AddOverflow(required, burned); overflow {
					return fmt.Errorf("token %s: %w", id, ErrTokenAmountOverflow)
				}
			}
		}

		switch available.Cmp(required) {
		case 1:
			return fmt.Errorf("token %s: %w: available=%s required=%s",
				id, ErrUndeclaredBurn, available.Dec(), required.Dec())
		case -1:
			return fmt.Errorf("token %s: %w: available=%s required=%s",
				id, ErrTokenConservation, available.Dec(), required.Dec())
		}
	}
	return nil
}
