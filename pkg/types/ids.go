package types

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// MaxOutputsCount bounds the number of outputs (and inputs) of one transaction.
const MaxOutputsCount = 128

// ErrOutputIndexOutOfRange is returned for output indexes >= MaxOutputsCount.
var ErrOutputIndexOutOfRange = errors.New("output index out of range")

// TransactionID identifies a transaction: blake2b-256 of the serialized payload.
type TransactionID Hash

// BlockID identifies the block a transaction was attached in.
type BlockID Hash

// AliasID identifies an alias output chain. It is null until the alias is created.
type AliasID Hash

// NftID identifies an NFT output chain. It is null until the NFT is minted.
type NftID Hash

// IsZero returns true if the transaction ID is all zeros.
func (t TransactionID) IsZero() bool { return Hash(t).IsZero() }

// String returns the 0x-prefixed hex-encoded transaction ID.
func (t TransactionID) String() string { return Hash(t).String() }

// MarshalText encodes the transaction ID as hex.
func (t TransactionID) MarshalText() ([]byte, error) { return Hash(t).MarshalText() }

// UnmarshalText decodes a hex transaction ID.
func (t *TransactionID) UnmarshalText(text []byte) error {
	return DecodeHexInto("transactionId", string(text), t[:])
}

// String returns the 0x-prefixed hex-encoded block ID.
func (b BlockID) String() string { return Hash(b).String() }

// MarshalText encodes the block ID as hex.
func (b BlockID) MarshalText() ([]byte, error) { return Hash(b).MarshalText() }

// UnmarshalText decodes a hex block ID.
func (b *BlockID) UnmarshalText(text []byte) error {
	return DecodeHexInto("blockId", string(text), b[:])
}

// IsNull reports whether the alias ID has not been assigned yet.
func (a AliasID) IsNull() bool { return Hash(a).IsZero() }

// String returns the 0x-prefixed hex-encoded alias ID.
func (a AliasID) String() string { return Hash(a).String() }

// ToAddress returns the alias address controlled by this alias.
func (a AliasID) ToAddress() Address { return Address{Kind: AddressAlias, Hash: a} }

// OrFromOutputID returns a, or the ID derived from outputID when a is null.
func (a AliasID) OrFromOutputID(outputID OutputID) AliasID {
	if a.IsNull() {
		return AliasIDFromOutputID(outputID)
	}
	return a
}

// MarshalText encodes the alias ID as hex.
func (a AliasID) MarshalText() ([]byte, error) { return Hash(a).MarshalText() }

// UnmarshalText decodes a hex alias ID.
func (a *AliasID) UnmarshalText(text []byte) error {
	return DecodeHexInto("aliasId", string(text), a[:])
}

// IsNull reports whether the NFT ID has not been assigned yet.
func (n NftID) IsNull() bool { return Hash(n).IsZero() }

// String returns the 0x-prefixed hex-encoded NFT ID.
func (n NftID) String() string { return Hash(n).String() }

// ToAddress returns the NFT address owned by this NFT.
func (n NftID) ToAddress() Address { return Address{Kind: AddressNft, Hash: n} }

// OrFromOutputID returns n, or the ID derived from outputID when n is null.
func (n NftID) OrFromOutputID(outputID OutputID) NftID {
	if n.IsNull() {
		return NftIDFromOutputID(outputID)
	}
	return n
}

// MarshalText encodes the NFT ID as hex.
func (n NftID) MarshalText() ([]byte, error) { return Hash(n).MarshalText() }

// UnmarshalText decodes a hex NFT ID.
func (n *NftID) UnmarshalText(text []byte) error {
	return DecodeHexInto("nftId", string(text), n[:])
}

// AliasIDFromOutputID derives the alias ID of the output that created the alias.
func AliasIDFromOutputID(id OutputID) AliasID {
	return blake2b.Sum256(id[:])
}

// NftIDFromOutputID derives the NFT ID of the output that minted the NFT.
func NftIDFromOutputID(id OutputID) NftID {
	return blake2b.Sum256(id[:])
}

// OutputIDSize is the length of an OutputID: transaction ID plus u16 index.
const OutputIDSize = HashSize + 2

// OutputID addresses one output: transaction ID followed by the
// little-endian output index.
type OutputID [OutputIDSize]byte

// NewOutputID builds an OutputID, rejecting indexes >= MaxOutputsCount.
func NewOutputID(txID TransactionID, index uint16) (OutputID, error) {
	if index >= MaxOutputsCount {
		return OutputID{}, fmt.Errorf("%w: %d", ErrOutputIndexOutOfRange, index)
	}
	var id OutputID
	copy(id[:HashSize], txID[:])
	binary.LittleEndian.PutUint16(id[HashSize:], index)
	return id, nil
}

// OutputIDFromBytes decodes a serialized OutputID.
func OutputIDFromBytes(b []byte) (OutputID, error) {
	if len(b) != OutputIDSize {
		return OutputID{}, InvalidField("outputId", fmt.Errorf("must be %d bytes, got %d", OutputIDSize, len(b)))
	}
	var id OutputID
	copy(id[:], b)
	if id.Index() >= MaxOutputsCount {
		return OutputID{}, InvalidField("outputId", fmt.Errorf("%w: %d", ErrOutputIndexOutOfRange, id.Index()))
	}
	return id, nil
}

// ParseOutputID decodes a 0x-prefixed hex OutputID.
func ParseOutputID(s string) (OutputID, error) {
	var id OutputID
	if err := id.UnmarshalText([]byte(s)); err != nil {
		return OutputID{}, err
	}
	return id, nil
}

// TransactionID returns the transaction part of the OutputID.
func (o OutputID) TransactionID() TransactionID {
	var t TransactionID
	copy(t[:], o[:HashSize])
	return t
}

// Index returns the output index.
func (o OutputID) Index() uint16 {
	return binary.LittleEndian.Uint16(o[HashSize:])
}

// String returns the 0x-prefixed hex-encoded OutputID.
func (o OutputID) String() string { return EncodeHex(o[:]) }

// MarshalText encodes the OutputID as hex.
func (o OutputID) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText decodes a hex OutputID.
func (o *OutputID) UnmarshalText(text []byte) error {
	var raw [OutputIDSize]byte
	if err := DecodeHexInto("outputId", string(text), raw[:]); err != nil {
		return err
	}
	id, err := OutputIDFromBytes(raw[:])
	if err != nil {
		return err
	}
	*o = id
	return nil
}

// FoundryIDSize is the length of a FoundryID (and TokenID).
const FoundryIDSize = AddressSize + 4 + 1

// FoundryID identifies a foundry: alias address | serial number (u32 LE) |
// token scheme kind.
type FoundryID [FoundryIDSize]byte

// NewFoundryID derives the ID of the foundry with the given serial number
// controlled by aliasAddress.
func NewFoundryID(aliasAddress Address, serialNumber uint32, tokenSchemeKind byte) FoundryID {
	var id FoundryID
	copy(id[:AddressSize], aliasAddress.Bytes())
	binary.LittleEndian.PutUint32(id[AddressSize:], serialNumber)
	id[FoundryIDSize-1] = tokenSchemeKind
	return id
}

// AliasAddress returns the controlling alias address.
func (f FoundryID) AliasAddress() Address {
	a := Address{Kind: AddressKind(f[0])}
	copy(a.Hash[:], f[1:AddressSize])
	return a
}

// SerialNumber returns the foundry serial number.
func (f FoundryID) SerialNumber() uint32 {
	return binary.LittleEndian.Uint32(f[AddressSize:])
}

// TokenSchemeKind returns the token scheme kind suffix.
func (f FoundryID) TokenSchemeKind() byte {
	return f[FoundryIDSize-1]
}

// TokenID returns the ID of the native token minted by this foundry.
func (f FoundryID) TokenID() TokenID { return TokenID(f) }

// String returns the 0x-prefixed hex-encoded FoundryID.
func (f FoundryID) String() string { return EncodeHex(f[:]) }

// MarshalText encodes the FoundryID as hex.
func (f FoundryID) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText decodes a hex FoundryID.
func (f *FoundryID) UnmarshalText(text []byte) error {
	return DecodeHexInto("foundryId", string(text), f[:])
}

// TokenID identifies a native token. It carries the bytes of the FoundryID
// that controls the token's supply.
type TokenID [FoundryIDSize]byte

// FoundryID returns the ID of the foundry that controls the token.
func (t TokenID) FoundryID() FoundryID { return FoundryID(t) }

// String returns the 0x-prefixed hex-encoded TokenID.
func (t TokenID) String() string { return EncodeHex(t[:]) }

// MarshalText encodes the TokenID as hex.
func (t TokenID) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a hex TokenID.
func (t *TokenID) UnmarshalText(text []byte) error {
	return DecodeHexInto("tokenId", string(text), t[:])
}

// ParseTokenID decodes a 0x-prefixed hex TokenID.
func ParseTokenID(s string) (TokenID, error) {
	var t TokenID
	err := t.UnmarshalText([]byte(s))
	return t, err
}
