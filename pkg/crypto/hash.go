// Package crypto provides the hashing and signature primitives of the ledger.
package crypto

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"golang.org/x/crypto/blake2b"
)

// Hash computes a BLAKE2b-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake2b.Sum256(data)
}

// HashConcat hashes the concatenation of the given byte slices.
func HashConcat(parts ...[]byte) types.Hash {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// AddressFromPubKey derives the Ed25519 address of a public key.
// Address = BLAKE2b-256(pubkey).
func AddressFromPubKey(pubKey []byte) types.Address {
	return types.NewEd25519Address(Hash(pubKey))
}
