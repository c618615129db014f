package types

import (
	"fmt"
)

// Address HRP (human-readable part) constants for bech32 encoding.
const (
	MainnetHRP = "smr"
	TestnetHRP = "rms"
)

// activeHRP is the address HRP used by String().
// Set once at startup via SetAddressHRP(). Default is mainnet.
var activeHRP = MainnetHRP

// SetAddressHRP sets the active address HRP (call once at startup).
func SetAddressHRP(hrp string) {
	activeHRP = hrp
}

// GetAddressHRP returns the currently active address HRP.
func GetAddressHRP() string {
	return activeHRP
}

// AddressKind tags the variant of an Address.
type AddressKind byte

// Address kinds.
const (
	AddressEd25519 AddressKind = 0
	AddressAlias   AddressKind = 8
	AddressNft     AddressKind = 16
)

func (k AddressKind) String() string {
	switch k {
	case AddressEd25519:
		return "ed25519"
	case AddressAlias:
		return "alias"
	case AddressNft:
		return "nft"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// Valid reports whether k is a known address kind.
func (k AddressKind) Valid() bool {
	return k == AddressEd25519 || k == AddressAlias || k == AddressNft
}

// AddressHashSize is the length of the address payload.
const AddressHashSize = 32

// AddressSize is the serialized length: kind byte plus payload.
const AddressSize = 1 + AddressHashSize

// Address is an Ed25519 public key hash, an alias id or an nft id, tagged by kind.
// Address values are comparable and can be used as map keys.
type Address struct {
	Kind AddressKind
	Hash [AddressHashSize]byte
}

// NewEd25519Address returns the address for a blake2b-256 public key hash.
func NewEd25519Address(hash [AddressHashSize]byte) Address {
	return Address{Kind: AddressEd25519, Hash: hash}
}

// IsZero returns true if the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns the serialized address: kind byte followed by the payload.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	b[0] = byte(a.Kind)
	copy(b[1:], a.Hash[:])
	return b
}

// AliasID returns the alias id of an alias address.
func (a Address) AliasID() (AliasID, bool) {
	if a.Kind != AddressAlias {
		return AliasID{}, false
	}
	return AliasID(a.Hash), true
}

// NftID returns the nft id of an nft address.
func (a Address) NftID() (NftID, bool) {
	if a.Kind != AddressNft {
		return NftID{}, false
	}
	return NftID(a.Hash), true
}

// String returns the bech32-encoded address using the active HRP.
func (a Address) String() string {
	s, err := a.Bech32(activeHRP)
	if err != nil {
		return EncodeHex(a.Bytes())
	}
	return s
}

// AddressFromBytes decodes a serialized address.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(b))
	}
	kind := AddressKind(b[0])
	if !kind.Valid() {
		return Address{}, fmt.Errorf("unknown address kind %d", b[0])
	}
	a := Address{Kind: kind}
	copy(a.Hash[:], b[1:])
	return a, nil
}

// AddressSet is a set of addresses.
type AddressSet map[Address]struct{}

// NewAddressSet builds a set from addrs.
func NewAddressSet(addrs ...Address) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

// Contains reports whether a is in the set. A nil set contains nothing.
func (s AddressSet) Contains(a Address) bool {
	_, ok := s[a]
	return ok
}
