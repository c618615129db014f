package output

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

// MaxNativeTokensCount bounds the distinct native tokens one output can hold.
const MaxNativeTokensCount = 64

// NativeToken is an amount of a token minted by a foundry.
type NativeToken struct {
	ID     types.TokenID
	Amount *uint256.Int
}

// NewNativeToken returns a native token, rejecting zero amounts.
func NewNativeToken(id types.TokenID, amount *uint256.Int) (NativeToken, error) {
	if amount == nil || amount.IsZero() {
		return NativeToken{}, fmt.Errorf("%w: %s", ErrZeroNativeTokenAmount, id)
	}
	return NativeToken{ID: id, Amount: amount.Clone()}, nil
}

// NativeTokens is a validated list of native tokens sorted by token ID.
type NativeTokens []NativeToken

func newNativeTokens(list []NativeToken) (NativeTokens, error) {
	if len(list) == 0 {
		return nil, nil
	}
	if len(list) > MaxNativeTokensCount {
		return nil, fmt.Errorf("%w: %d, max %d", ErrTooManyNativeTokens, len(list), MaxNativeTokensCount)
	}
	out := make(NativeTokens, len(list))
	for i, nt := range list {
		if nt.Amount == nil || nt.Amount.IsZero() {
			return nil, fmt.Errorf("%w: %s", ErrZeroNativeTokenAmount, nt.ID)
		}
		out[i] = NativeToken{ID: nt.ID, Amount: nt.Amount.Clone()}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	for i := 1; i < len(out); i++ {
		if out[i].ID == out[i-1].ID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNativeToken, out[i].ID)
		}
	}
	return out, nil
}

// Get returns the amount held of the token, or nil.
func (n NativeTokens) Get(id types.TokenID) *uint256.Int {
	for _, nt := range n {
		if nt.ID == id {
			return nt.Amount.Clone()
		}
	}
	return nil
}

func (n NativeTokens) clone() NativeTokens {
	if n == nil {
		return nil
	}
	out := make(NativeTokens, len(n))
	for i, nt := range n {
		out[i] = NativeToken{ID: nt.ID, Amount: nt.Amount.Clone()}
	}
	return out
}

// NativeTokensBuilder accumulates token amounts, merging equal IDs.
type NativeTokensBuilder map[types.TokenID]*uint256.Int

// Add adds amount of token id.
func (b NativeTokensBuilder) Add(id types.TokenID, amount *uint256.Int) error {
	cur, ok := b[id]
	if !ok {
		b[id] = amount.Clone()
		return nil
	}
	sum, overflow := new(uint256.Int).AddOverflow(cur, amount)
	if overflow {
		return fmt.Errorf("%w: %s", ErrNativeTokenOverflow, id)
	}
	b[id] = sum
	return nil
}

// AddAll adds every token of list.
func (b NativeTokensBuilder) AddAll(list NativeTokens) error {
	for _, nt := range list {
		if err := b.Add(nt.ID, nt.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Finish returns the accumulated tokens as a sorted list, dropping zero entries.
func (b NativeTokensBuilder) Finish() (NativeTokens, error) {
	list := make([]NativeToken, 0, len(b))
	for id, amount := range b {
		if amount.IsZero() {
			continue
		}
		list = append(list, NativeToken{ID: id, Amount: amount})
	}
	return newNativeTokens(list)
}
