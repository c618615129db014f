package crypto

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Signature sizes.
const (
	PublicKeySize = ed25519.PublicKeySize
	SignatureSize = ed25519.SignatureSize
)

// SignatureKindEd25519 is the serialized kind of an Ed25519 signature.
const SignatureKindEd25519 byte = 0

// Verification errors.
var (
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrUnsupportedAddressKind = errors.New("address kind cannot be signed for")
)

// SignaturePublicKeyMismatchError is returned when the signing public key
// does not hash to the address it is supposed to unlock.
type SignaturePublicKeyMismatchError struct {
	Expected string
	Actual   string
}

func (e *SignaturePublicKeyMismatchError) Error() string {
	return fmt.Sprintf("signature public key mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Ed25519Signature is a public key plus the signature it produced.
type Ed25519Signature struct {
	PublicKey [PublicKeySize]byte
	Signature [SignatureSize]byte
}

// Verify checks that the public key belongs to address and that the
// signature is valid for message. The address check runs first.
func (s *Ed25519Signature) Verify(message []byte, address types.Address) error {
	if address.Kind != types.AddressEd25519 {
		return fmt.Errorf("%w: %s", ErrUnsupportedAddressKind, address.Kind)
	}
	pubKeyHash := Hash(s.PublicKey[:])
	if pubKeyHash != types.Hash(address.Hash) {
		return &SignaturePublicKeyMismatchError{
			Expected: types.EncodeHex(address.Hash[:]),
			Actual:   pubKeyHash.String(),
		}
	}
	if !ed25519.Verify(s.PublicKey[:], message, s.Signature[:]) {
		return ErrInvalidSignature
	}
	return nil
}

// Address returns the Ed25519 address of the embedded public key.
func (s *Ed25519Signature) Address() types.Address {
	return AddressFromPubKey(s.PublicKey[:])
}

// Ed25519SignatureDTO is the JSON form of an Ed25519Signature.
type Ed25519SignatureDTO struct {
	Type      byte   `json:"type"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// ToDTO returns the JSON-facing form of the signature.
func (s *Ed25519Signature) ToDTO() Ed25519SignatureDTO {
	return Ed25519SignatureDTO{
		Type:      SignatureKindEd25519,
		PublicKey: types.EncodeHex(s.PublicKey[:]),
		Signature: types.EncodeHex(s.Signature[:]),
	}
}

// SignatureFromDTO decodes a signature DTO.
func SignatureFromDTO(dto Ed25519SignatureDTO) (*Ed25519Signature, error) {
	if dto.Type != SignatureKindEd25519 {
		return nil, types.InvalidField("signature", fmt.Errorf("unknown signature kind %d", dto.Type))
	}
	var s Ed25519Signature
	if err := types.DecodeHexInto("publicKey", dto.PublicKey, s.PublicKey[:]); err != nil {
		return nil, err
	}
	if err := types.DecodeHexInto("signature", dto.Signature, s.Signature[:]); err != nil {
		return nil, err
	}
	return &s, nil
}

// PrivateKey wraps an Ed25519 private key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// PrivateKeyFromSeed creates a PrivateKey from a 32-byte seed.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// Sign signs message and returns the signature together with the public key.
func (pk *PrivateKey) Sign(message []byte) *Ed25519Signature {
	var s Ed25519Signature
	copy(s.PublicKey[:], pk.key.Public().(ed25519.PublicKey))
	copy(s.Signature[:], ed25519.Sign(pk.key, message))
	return &s
}

// PublicKey returns the 32-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	pub := pk.key.Public().(ed25519.PublicKey)
	out := make([]byte, len(pub))
	copy(out, pub)
	return out
}

// Address returns the Ed25519 address of the key.
func (pk *PrivateKey) Address() types.Address {
	return AddressFromPubKey(pk.PublicKey())
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	for i := range pk.key {
		pk.key[i] = 0
	}
}
