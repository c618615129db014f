package output

import (
	"fmt"

	"github.com/holiman/uint256"
)

// TokenSchemeSimple is the kind of the simple token scheme.
const TokenSchemeSimple byte = 0

// SimpleTokenScheme tracks the supply of a foundry's native token.
// Invariant: melted <= minted <= maximum and maximum > 0.
type SimpleTokenScheme struct {
	minted  *uint256.Int
	melted  *uint256.Int
	maximum *uint256.Int
}

// NewSimpleTokenScheme validates and returns a simple token scheme.
func NewSimpleTokenScheme(minted, melted, maximum *uint256.Int) (*SimpleTokenScheme, error) {
	if minted == nil || melted == nil || maximum == nil {
		return nil, fmt.Errorf("%w: missing supply value", ErrInvalidTokenScheme)
	}
	if maximum.IsZero() {
		return nil, fmt.Errorf("%w: maximum supply is zero", ErrInvalidTokenScheme)
	}
	if melted.Gt(minted) {
		return nil, fmt.Errorf("%w: melted %s > minted %s", ErrInvalidTokenScheme, melted.Dec(), minted.Dec())
	}
	if minted.Gt(maximum) {
		return nil, fmt.Errorf("%w: minted %s > maximum %s", ErrInvalidTokenScheme, minted.Dec(), maximum.Dec())
	}
	return &SimpleTokenScheme{
		minted:  minted.Clone(),
		melted:  melted.Clone(),
		maximum: maximum.Clone(),
	}, nil
}

// Kind returns the token scheme kind.
func (s *SimpleTokenScheme) Kind() byte { return TokenSchemeSimple }

// MintedTokens returns the minted supply.
func (s *SimpleTokenScheme) MintedTokens() *uint256.Int { return s.minted.Clone() }

// MeltedTokens returns the melted supply.
func (s *SimpleTokenScheme) MeltedTokens() *uint256.Int { return s.melted.Clone() }

// MaximumSupply returns the maximum supply.
func (s *SimpleTokenScheme) MaximumSupply() *uint256.Int { return s.maximum.Clone() }

// CirculatingSupply returns minted minus melted.
func (s *SimpleTokenScheme) CirculatingSupply() *uint256.Int {
	return new(uint256.Int).Sub(s.minted, s.melted)
}
