package secret

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// HardenedOffset is added to an index to request hardened derivation.
const HardenedOffset uint32 = 0x80000000

var slip10Curve = []byte("ed25519 seed")

// HDKey is a SLIP-10 Ed25519 extended private key. Ed25519 only supports
// hardened children, so there is no public derivation.
type HDKey struct {
	key       [32]byte
	chainCode [32]byte
	depth     uint8
}

// NewMasterKey derives the master key from a BIP-39 seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, fmt.Errorf("seed must be 16 to 64 bytes, got %d", len(seed))
	}
	mac := hmac.New(sha512.New, slip10Curve)
	mac.Write(seed)
	return splitHMAC(mac.Sum(nil), 0), nil
}

func splitHMAC(sum []byte, depth uint8) *HDKey {
	k := &HDKey{depth: depth}
	copy(k.key[:], sum[:32])
	copy(k.chainCode[:], sum[32:])
	return k
}

// DeriveChild derives the hardened child at index. index must already
// include HardenedOffset.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	if index < HardenedOffset {
		return nil, fmt.Errorf("%w: %d", ErrNonHardenedIndex, index)
	}
	var data [1 + 32 + 4]byte
	copy(data[1:33], k.key[:])
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, k.chainCode[:])
	mac.Write(data[:])
	return splitHMAC(mac.Sum(nil), k.depth+1), nil
}

// DerivePath derives along indexes, hardening each one.
func (k *HDKey) DerivePath(indexes ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indexes {
		child, err := current.DeriveChild(idx | HardenedOffset)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// DeriveChain derives the key at m/44'/coin'/account'/change'/index'.
func (k *HDKey) DeriveChain(chain types.Bip44) (*HDKey, error) {
	return k.DerivePath(chain.Path()...)
}

// PrivateKeyBytes returns the 32-byte Ed25519 seed of this node.
func (k *HDKey) PrivateKeyBytes() []byte {
	out := make([]byte, 32)
	copy(out, k.key[:])
	return out
}

// ChainCode returns the 32-byte chain code.
func (k *HDKey) ChainCode() []byte {
	out := make([]byte, 32)
	copy(out, k.chainCode[:])
	return out
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.depth
}

// Signer returns the Ed25519 private key of this node.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	return crypto.PrivateKeyFromSeed(k.key[:])
}

// Address returns the Ed25519 address of this node.
func (k *HDKey) Address() (types.Address, error) {
	signer, err := k.Signer()
	if err != nil {
		return types.Address{}, err
	}
	defer signer.Zero()
	return signer.Address(), nil
}

// Zero wipes the key material.
func (k *HDKey) Zero() {
	for i := range k.key {
		k.key[i] = 0
		k.chainCode[i] = 0
	}
}
