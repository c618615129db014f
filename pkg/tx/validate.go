package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

// Validation errors.
var (
	ErrNoInputs                 = errors.New("transaction has no inputs")
	ErrNoOutputs                = errors.New("transaction has no outputs")
	ErrDuplicateInput           = errors.New("duplicate input")
	ErrAmountOverflow           = errors.New("amounts overflow")
	ErrTooManyInputs            = errors.New("too many inputs")
	ErrTooManyOutputs           = errors.New("too many outputs")
	ErrUnlockCountMismatch      = errors.New("unlock count does not match input count")
	ErrInvalidUnlock            = errors.New("invalid unlock")
	ErrDuplicateSignature       = errors.New("duplicate signature unlock")
	ErrInputCountMismatch       = errors.New("consumed outputs do not match inputs")
	ErrInputsCommitmentMismatch = errors.New("inputs commitment mismatch")
	ErrUnbalancedAmounts        = errors.New("input and output amounts differ")
	ErrNativeTokensExceedInputs = errors.New("native token outputs exceed inputs")
	ErrTreasuryInput            = errors.New("treasury output cannot be consumed")
)

// Validate checks essence structure without consumed outputs.
func (e *Essence) Validate() error {
	if len(e.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(e.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(e.Inputs) > MaxInputsCount {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(e.Inputs), MaxInputsCount)
	}
	if len(e.Outputs) > MaxOutputsCount {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(e.Outputs), MaxOutputsCount)
	}

	seen := make(map[types.OutputID]bool, len(e.Inputs))
	for i, in := range e.Inputs {
		if seen[in.OutputID] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in.OutputID] = true
	}

	if _, err := e.TotalOutputAmount(); err != nil {
		return err
	}
	return nil
}

// Validate checks transaction structure and unlock references.
// This does NOT check the consumed outputs.
func (tx *Transaction) Validate() error {
	if err := tx.Essence.Validate(); err != nil {
		return err
	}
	if len(tx.Unlocks) != len(tx.Essence.Inputs) {
		return fmt.Errorf("%w: %d unlocks, %d inputs", ErrUnlockCountMismatch, len(tx.Unlocks), len(tx.Essence.Inputs))
	}

	signers := make(map[[32]byte]bool)
	for i, u := range tx.Unlocks {
		switch ul := u.(type) {
		case SignatureUnlock:
			if signers[ul.Signature.PublicKey] {
				return fmt.Errorf("unlock %d: %w", i, ErrDuplicateSignature)
			}
			signers[ul.Signature.PublicKey] = true
		case ReferenceUnlock:
			if int(ul.Index) >= i {
				return fmt.Errorf("unlock %d: %w: reference %d is not earlier", i, ErrInvalidUnlock, ul.Index)
			}
			if _, ok := tx.Unlocks[ul.Index].(SignatureUnlock); !ok {
				return fmt.Errorf("unlock %d: %w: reference %d is not a signature", i, ErrInvalidUnlock, ul.Index)
			}
		case AliasUnlock, NftUnlock:
			idx, _ := referenceIndex(ul)
			if int(idx) >= i {
				return fmt.Errorf("unlock %d: %w: %s unlock %d is not earlier", i, ErrInvalidUnlock, ul.Kind(), idx)
			}
		default:
			return fmt.Errorf("unlock %d: %w: unsupported type %T", i, ErrInvalidUnlock, u)
		}
	}
	return nil
}

// ValidateWithInputs checks the essence against the outputs it consumes,
// given in input order: the inputs commitment, exact base coin balance and
// native token conservation. Native tokens may only exceed the inputs by
// what foundry transitions mint, and may fall short of them (burn).
func (e *Essence) ValidateWithInputs(inputs []output.Output) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if len(inputs) != len(e.Inputs) {
		return fmt.Errorf("%w: %d outputs for %d inputs", ErrInputCountMismatch, len(inputs), len(e.Inputs))
	}
	for i, in := range inputs {
		if in.Kind() == output.KindTreasury {
			return fmt.Errorf("input %d: %w", i, ErrTreasuryInput)
		}
	}
	if commitment := InputsCommitment(inputs); commitment != e.InputsCommitment {
		return fmt.Errorf("%w: expected %s, got %s", ErrInputsCommitmentMismatch, commitment, e.InputsCommitment)
	}

	inTotal, err := sumAmounts(inputs)
	if err != nil {
		return fmt.Errorf("inputs: %w", err)
	}
	outTotal, err := e.TotalOutputAmount()
	if err != nil {
		return fmt.Errorf("outputs: %w", err)
	}
	if inTotal != outTotal {
		return fmt.Errorf("%w: inputs=%d outputs=%d", ErrUnbalancedAmounts, inTotal, outTotal)
	}

	return validateNativeTokens(inputs, e.Outputs)
}

func validateNativeTokens(inputs, outputs []output.Output) error {
	// Each side carries its held tokens plus the other side's circulating
	// foundry supply, so a mint on the output side raises the input budget.
	available := output.NativeTokensBuilder{}
	required := output.NativeTokensBuilder{}
	for _, in := range inputs {
		if err := available.AddAll(in.NativeTokens()); err != nil {
			return err
		}
		if f, ok := in.(*output.FoundryOutput); ok {
			if err := required.Add(f.TokenID(), f.TokenScheme().CirculatingSupply()); err != nil {
				return err
			}
		}
	}
	for _, out := range outputs {
		if err := required.AddAll(out.NativeTokens()); err != nil {
			return err
		}
		if f, ok := out.(*output.FoundryOutput); ok {
			if err := available.Add(f.TokenID(), f.TokenScheme().CirculatingSupply()); err != nil {
				return err
			}
		}
	}
	for id, need := range required {
		have, ok := available[id]
		if !ok {
			have = new(uint256.Int)
		}
		if need.Gt(have) {
			return fmt.Errorf("%w: token %s needs %s, has %s", ErrNativeTokensExceedInputs, id, need.Dec(), have.Dec())
		}
	}
	return nil
}

// UnlockAddress returns the address that must sign for input, consumed at
// inputID by a transaction creating outputs, at time now. An alias whose
// state index is unchanged in outputs is a governance transition and
// requires its governor.
func UnlockAddress(input output.Output, inputID types.OutputID, outputs []output.Output, now uint32) (types.Address, error) {
	conds := input.UnlockConditions()
	switch in := input.(type) {
	case *output.AliasOutput:
		aliasID := in.AliasIDNonNull(inputID)
		for _, out := range outputs {
			next, ok := out.(*output.AliasOutput)
			if ok && next.AliasID() == aliasID && next.StateIndex() == in.StateIndex() {
				return in.GovernorAddress(), nil
			}
		}
		return in.StateControllerAddress(), nil
	case *output.FoundryOutput:
		return in.AliasAddress(), nil
	case *output.BasicOutput, *output.NftOutput:
		if conds.IsTimelocked(now) {
			return types.Address{}, fmt.Errorf("%w: output %s is timelocked", ErrInvalidUnlock, inputID)
		}
		addr, _ := conds.Address()
		return conds.LockedAddress(addr.Address, now), nil
	default:
		return types.Address{}, fmt.Errorf("%w: %s output", ErrInvalidUnlock, input.Kind())
	}
}

// VerifySignatures checks every unlock against the outputs consumed, given
// in input order, at time now.
func (tx *Transaction) VerifySignatures(inputs []output.Output, now uint32) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if len(inputs) != len(tx.Essence.Inputs) {
		return fmt.Errorf("%w: %d outputs for %d inputs", ErrInputCountMismatch, len(inputs), len(tx.Essence.Inputs))
	}
	hash := tx.Essence.Hash()

	// Chain addresses unlocked by earlier inputs, by input index.
	chains := make([]types.Address, len(inputs))
	for i, in := range inputs {
		id := tx.Essence.Inputs[i].OutputID
		switch o := in.(type) {
		case *output.AliasOutput:
			chains[i] = o.AliasIDNonNull(id).ToAddress()
		case *output.NftOutput:
			chains[i] = o.NftIDNonNull(id).ToAddress()
		}
	}

	for i, u := range tx.Unlocks {
		required, err := UnlockAddress(inputs[i], tx.Essence.Inputs[i].OutputID, tx.Essence.Outputs, now)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		switch ul := u.(type) {
		case SignatureUnlock:
			if err := ul.Signature.Verify(hash[:], required); err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
		case ReferenceUnlock:
			ref := tx.Unlocks[ul.Index].(SignatureUnlock)
			if ref.Signature.Address() != required {
				return fmt.Errorf("input %d: %w: referenced signature is for %s", i, ErrInvalidUnlock, ref.Signature.Address())
			}
		case AliasUnlock:
			if required.Kind != types.AddressAlias || chains[ul.Index] != required {
				return fmt.Errorf("input %d: %w: alias unlock %d does not own %s", i, ErrInvalidUnlock, ul.Index, required)
			}
		case NftUnlock:
			if required.Kind != types.AddressNft || chains[ul.Index] != required {
				return fmt.Errorf("input %d: %w: nft unlock %d does not own %s", i, ErrInvalidUnlock, ul.Index, required)
			}
		}
	}
	return nil
}
