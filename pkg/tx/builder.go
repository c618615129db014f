package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Builder constructs transaction essences incrementally.
type Builder struct {
	essence  *Essence
	consumed []output.Output
}

// NewBuilder creates a new essence builder for networkID.
func NewBuilder(networkID uint64) *Builder {
	return &Builder{
		essence: &Essence{NetworkID: networkID},
	}
}

// AddInput adds an input consuming out, which lives at id.
func (b *Builder) AddInput(id types.OutputID, out output.Output) *Builder {
	b.essence.Inputs = append(b.essence.Inputs, Input{OutputID: id})
	b.consumed = append(b.consumed, out)
	return b
}

// AddOutput adds an output.
func (b *Builder) AddOutput(out output.Output) *Builder {
	b.essence.Outputs = append(b.essence.Outputs, out)
	return b
}

// SetTaggedData attaches a tagged data payload.
func (b *Builder) SetTaggedData(tag, data []byte) *Builder {
	b.essence.Payload = &TaggedDataPayload{Tag: tag, Data: data}
	return b
}

// Build computes the inputs commitment and returns the essence.
// Does NOT validate; call Essence.ValidateWithInputs separately.
func (b *Builder) Build() *Essence {
	b.essence.InputsCommitment = InputsCommitment(b.consumed)
	return b.essence
}

// Consumed returns the outputs consumed by the inputs, in input order.
func (b *Builder) Consumed() []output.Output {
	return b.consumed
}

// SignFunc signs msg for addr, whose key is derived along chain when the
// caller tracks derivation paths.
type SignFunc func(addr types.Address, chain *types.Bip44, msg []byte) (*crypto.Ed25519Signature, error)

// BuildUnlocks creates one unlock per input: the first input owned by an
// Ed25519 address gets a signature, later inputs owned by the same address
// reference it, and inputs owned by an alias or NFT reference the input
// consuming that chain, which must come earlier.
func BuildUnlocks(essence *Essence, inputs []InputSigningData, now uint32, sign SignFunc) ([]Unlock, error) {
	if len(inputs) != len(essence.Inputs) {
		return nil, fmt.Errorf("%w: %d signing inputs for %d inputs", ErrInputCountMismatch, len(inputs), len(essence.Inputs))
	}
	hash := essence.Hash()
	signed := make(map[types.Address]uint16)
	chains := make(map[types.Address]uint16)
	unlocks := make([]Unlock, 0, len(inputs))

	for i, in := range inputs {
		required, err := UnlockAddress(in.Output, in.OutputID, essence.Outputs, now)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		switch required.Kind {
		case types.AddressEd25519:
			if idx, ok := signed[required]; ok {
				unlocks = append(unlocks, ReferenceUnlock{Index: idx})
				break
			}
			sig, err := sign(required, in.Chain, hash[:])
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			signed[required] = uint16(i)
			unlocks = append(unlocks, SignatureUnlock{Signature: *sig})
		case types.AddressAlias:
			idx, ok := chains[required]
			if !ok {
				return nil, fmt.Errorf("input %d: %w: alias %s not consumed earlier", i, ErrInvalidUnlock, required)
			}
			unlocks = append(unlocks, AliasUnlock{Index: idx})
		case types.AddressNft:
			idx, ok := chains[required]
			if !ok {
				return nil, fmt.Errorf("input %d: %w: nft %s not consumed earlier", i, ErrInvalidUnlock, required)
			}
			unlocks = append(unlocks, NftUnlock{Index: idx})
		default:
			return nil, fmt.Errorf("input %d: %w: address kind %s", i, ErrInvalidUnlock, required.Kind)
		}

		switch o := in.Output.(type) {
		case *output.AliasOutput:
			chains[o.AliasIDNonNull(in.OutputID).ToAddress()] = uint16(i)
		case *output.NftOutput:
			chains[o.NftIDNonNull(in.OutputID).ToAddress()] = uint16(i)
		}
	}
	return unlocks, nil
}

// Sign builds the unlocks for prepared with keys indexed by address.
func Sign(prepared *PreparedTransactionData, keys map[types.Address]*crypto.PrivateKey, now uint32) (*Transaction, error) {
	unlocks, err := BuildUnlocks(prepared.Essence, prepared.InputsData, now,
		func(addr types.Address, _ *types.Bip44, msg []byte) (*crypto.Ed25519Signature, error) {
			key, ok := keys[addr]
			if !ok {
				return nil, fmt.Errorf("no signer for address %s", addr)
			}
			return key.Sign(msg), nil
		})
	if err != nil {
		return nil, err
	}
	return &Transaction{Essence: *prepared.Essence, Unlocks: unlocks}, nil
}
