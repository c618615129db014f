package types

import "fmt"

// Coin types registered for the supported networks.
const (
	CoinTypeShimmer uint32 = 4219
	CoinTypeIOTA    uint32 = 4218
)

// Bip44 is a BIP-44 derivation path m/44'/coin'/account'/change'/index'.
// Every level is hardened when deriving Ed25519 keys.
type Bip44 struct {
	CoinType     uint32 `json:"coinType"`
	Account      uint32 `json:"account"`
	Change       uint32 `json:"change"`
	AddressIndex uint32 `json:"addressIndex"`
}

// Path returns the hardened path indices, without the hardening offset.
func (b Bip44) Path() []uint32 {
	return []uint32{44, b.CoinType, b.Account, b.Change, b.AddressIndex}
}

func (b Bip44) String() string {
	return fmt.Sprintf("m/44'/%d'/%d'/%d'/%d'", b.CoinType, b.Account, b.Change, b.AddressIndex)
}
