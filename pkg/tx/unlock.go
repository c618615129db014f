package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/iotaledger/hive.go/marshalutil"
)

// UnlockKind tags the variant of an Unlock.
type UnlockKind byte

// Unlock kinds.
const (
	UnlockSignature UnlockKind = 0
	UnlockReference UnlockKind = 1
	UnlockAlias     UnlockKind = 2
	UnlockNft       UnlockKind = 3
)

func (k UnlockKind) String() string {
	switch k {
	case UnlockSignature:
		return "signature"
	case UnlockReference:
		return "reference"
	case UnlockAlias:
		return "alias"
	case UnlockNft:
		return "nft"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// Unlock proves the right to consume the input at the same position.
type Unlock interface {
	Kind() UnlockKind
}

// SignatureUnlock carries a signature over the essence hash.
type SignatureUnlock struct {
	Signature crypto.Ed25519Signature
}

// ReferenceUnlock reuses the signature unlock at Index.
type ReferenceUnlock struct {
	Index uint16
}

// AliasUnlock unlocks an input owned by the alias consumed at Index.
type AliasUnlock struct {
	Index uint16
}

// NftUnlock unlocks an input owned by the NFT consumed at Index.
type NftUnlock struct {
	Index uint16
}

func (SignatureUnlock) Kind() UnlockKind { return UnlockSignature }

func (ReferenceUnlock) Kind() UnlockKind { return UnlockReference }

func (AliasUnlock) Kind() UnlockKind { return UnlockAlias }

func (NftUnlock) Kind() UnlockKind { return UnlockNft }

// referenceIndex returns the index an index-based unlock points at.
func referenceIndex(u Unlock) (uint16, bool) {
	switch ul := u.(type) {
	case ReferenceUnlock:
		return ul.Index, true
	case AliasUnlock:
		return ul.Index, true
	case NftUnlock:
		return ul.Index, true
	default:
		return 0, false
	}
}

func writeUnlock(m *marshalutil.MarshalUtil, u Unlock) {
	m.WriteByte(byte(u.Kind()))
	if sig, ok := u.(SignatureUnlock); ok {
		m.WriteByte(crypto.SignatureKindEd25519)
		m.WriteBytes(sig.Signature.PublicKey[:])
		m.WriteBytes(sig.Signature.Signature[:])
		return
	}
	idx, _ := referenceIndex(u)
	m.WriteUint16(idx)
}

func readUnlock(m *marshalutil.MarshalUtil) (Unlock, error) {
	kind, err := m.ReadByte()
	if err != nil {
		return nil, types.InvalidField("unlocks", err)
	}
	if UnlockKind(kind) == UnlockSignature {
		sigKind, err := m.ReadByte()
		if err != nil {
			return nil, types.InvalidField("signature", err)
		}
		if sigKind != crypto.SignatureKindEd25519 {
			return nil, types.InvalidField("signature", fmt.Errorf("unknown signature kind %d", sigKind))
		}
		var s crypto.Ed25519Signature
		pub, err := m.ReadBytes(crypto.PublicKeySize)
		if err != nil {
			return nil, types.InvalidField("publicKey", err)
		}
		copy(s.PublicKey[:], pub)
		sig, err := m.ReadBytes(crypto.SignatureSize)
		if err != nil {
			return nil, types.InvalidField("signature", err)
		}
		copy(s.Signature[:], sig)
		return SignatureUnlock{Signature: s}, nil
	}
	idx, err := m.ReadUint16()
	if err != nil {
		return nil, types.InvalidField("reference", err)
	}
	switch UnlockKind(kind) {
	case UnlockReference:
		return ReferenceUnlock{Index: idx}, nil
	case UnlockAlias:
		return AliasUnlock{Index: idx}, nil
	case UnlockNft:
		return NftUnlock{Index: idx}, nil
	default:
		return nil, types.InvalidField("unlocks", fmt.Errorf("unknown unlock kind %d", kind))
	}
}
