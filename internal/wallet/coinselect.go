package wallet

import (
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []OutputData // Selected outputs to spend.
	Total  uint64       // Sum of selected input amounts.
	Change uint64       // Change = Total - target.
}

// SelectCoins chooses outputs to fund the given target amount.
// It tries two strategies:
//  1. Single output: finds the smallest single output that covers the target (minimizes inputs).
//  2. Largest-first accumulation: greedily adds the largest outputs until the target is met.
//
// Returns the strategy that produces the least change.
func SelectCoins(outputs []OutputData, target uint64) (*CoinSelection, error) {
	if len(outputs) == 0 {
		return nil, ErrNoOutputs
	}
	if target == 0 {
		return nil, fmt.Errorf("%w: target must be positive", ErrInvalidAmount)
	}

	candidates := make([]OutputData, len(outputs))
	copy(candidates, outputs)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Output.Amount() < candidates[j].Output.Amount()
	})

	// Strategy 1: Single output, smallest one that covers the target.
	var single *CoinSelection
	for _, o := range candidates {
		if amount := o.Output.Amount(); amount >= target {
			single = &CoinSelection{
				Inputs: []OutputData{o},
				Total:  amount,
				Change: amount - target,
			}
			break // Already sorted ascending, first match is smallest.
		}
	}

	// Strategy 2: Largest-first accumulation.
	var accum *CoinSelection
	var selected []OutputData
	var total uint64
	for i := len(candidates) - 1; i >= 0; i-- {
		selected = append(selected, candidates[i])
		total += candidates[i].Output.Amount()
		if total >= target {
			accum = &CoinSelection{
				Inputs: selected,
				Total:  total,
				Change: total - target,
			}
			break
		}
	}

	switch {
	case single != nil && accum != nil:
		if single.Change <= accum.Change {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, totalAmount(candidates), target)
	}
}

// SelectNativeTokens picks outputs holding token, largest holding first,
// until their combined amount reaches need.
func SelectNativeTokens(outputs []OutputData, token types.TokenID, need *uint256.Int) ([]OutputData, error) {
	var holders []OutputData
	for _, o := range outputs {
		if !tokenAmount(o, token).IsZero() {
			holders = append(holders, o)
		}
	}
	sort.SliceStable(holders, func(i, j int) bool {
		return tokenAmount(holders[i], token).Gt(tokenAmount(holders[j], token))
	})

	have := new(uint256.Int)
	var selected []OutputData
	for _, o := range holders {
		if have.Cmp(need) >= 0 {
			break
		}
		have.Add(have, tokenAmount(o, token))
		selected = append(selected, o)
	}
	if have.Lt(need) {
		return nil, fmt.Errorf("%w: token %s: have %s, need %s", ErrInsufficientFunds, token, have.Dec(), need.Dec())
	}
	return selected, nil
}

func totalAmount(outputs []OutputData) uint64 {
	var total uint64
	for _, o := range outputs {
		total += o.Output.Amount()
	}
	return total
}

// tokenAmount returns the amount of token o holds, zero if none.
func tokenAmount(o OutputData, token types.TokenID) *uint256.Int {
	if amount := o.Output.NativeTokens().Get(token); amount != nil {
		return amount
	}
	return new(uint256.Int)
}
