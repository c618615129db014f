package tx

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

// Burn lists what a transaction destroys on purpose.
type Burn struct {
	Aliases      []types.AliasID                `json:"aliases,omitempty"`
	Nfts         []types.NftID                  `json:"nfts,omitempty"`
	Foundries    []types.FoundryID              `json:"foundries,omitempty"`
	NativeTokens map[types.TokenID]*uint256.Int `json:"nativeTokens,omitempty"`
}

// AddNft adds an NFT to burn.
func (b *Burn) AddNft(id types.NftID) *Burn {
	b.Nfts = append(b.Nfts, id)
	return b
}

// AddNativeToken adds an amount of native token to burn.
func (b *Burn) AddNativeToken(id types.TokenID, amount *uint256.Int) *Burn {
	if b.NativeTokens == nil {
		b.NativeTokens = make(map[types.TokenID]*uint256.Int)
	}
	if cur, ok := b.NativeTokens[id]; ok {
		b.NativeTokens[id] = new(uint256.Int).Add(cur, amount)
		return b
	}
	b.NativeTokens[id] = amount.Clone()
	return b
}

// ContainsNft reports whether id is burned.
func (b *Burn) ContainsNft(id types.NftID) bool {
	if b == nil {
		return false
	}
	for _, n := range b.Nfts {
		if n == id {
			return true
		}
	}
	return false
}

// ContainsAlias reports whether id is burned.
func (b *Burn) ContainsAlias(id types.AliasID) bool {
	if b == nil {
		return false
	}
	for _, a := range b.Aliases {
		if a == id {
			return true
		}
	}
	return false
}

// ContainsFoundry reports whether id is burned.
func (b *Burn) ContainsFoundry(id types.FoundryID) bool {
	if b == nil {
		return false
	}
	for _, f := range b.Foundries {
		if f == id {
			return true
		}
	}
	return false
}
