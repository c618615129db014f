package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Wallet errors.
var (
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrNoOutputs                   = errors.New("no unspent outputs available")
	ErrBurningOrMeltingFailed      = errors.New("burning or melting failed")
	ErrNftNotFoundInUnspentOutputs = errors.New("nft not found in unspent outputs")
	ErrNativeTokenNotFound         = errors.New("native token not found in unspent outputs")
	ErrCustomInputNotFound         = errors.New("custom input not found in unspent outputs")
	ErrCustomInputLocked           = errors.New("custom input is used by a pending transaction")
	ErrCustomInputNotUnlockable    = errors.New("custom input cannot be unlocked now")
	ErrTransactionNotFound         = errors.New("transaction not found")
	ErrTransactionConflicting      = errors.New("transaction conflicts with the ledger")
	ErrRetryExhausted              = errors.New("retry attempts exhausted")
	ErrAccountNotFound             = errors.New("account not found")
	ErrAccountExists               = errors.New("account already exists")
	ErrNoAddresses                 = errors.New("account has no addresses")
	ErrEmptyOutputs                = errors.New("no outputs to send")
	ErrInvalidAmount               = errors.New("invalid amount")
	ErrChainInputNotTransitioned   = errors.New("consumed alias or nft is neither burned nor kept")
)

// StillOwnsOutputsError is returned when an NFT to burn still controls
// other unspent outputs.
type StillOwnsOutputsError struct {
	NftID     types.NftID
	OutputIDs []types.OutputID
}

func (e *StillOwnsOutputsError) Error() string {
	ids := make([]string, len(e.OutputIDs))
	for i, id := range e.OutputIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%v: nft %s still owns outputs [%s]", ErrBurningOrMeltingFailed, e.NftID, strings.Join(ids, ", "))
}

func (e *StillOwnsOutputsError) Unwrap() error {
	return ErrBurningOrMeltingFailed
}

// Bech32HrpMismatchError is returned when an address belongs to another
// network.
type Bech32HrpMismatchError struct {
	Provided string
	Expected string
}

func (e *Bech32HrpMismatchError) Error() string {
	return fmt.Sprintf("bech32 hrp mismatch: provided %q, expected %q", e.Provided, e.Expected)
}

// RetryExhaustedError reports a transaction still not included after the
// configured number of attempts.
type RetryExhaustedError struct {
	TransactionID types.TransactionID
	Attempts      int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("transaction %s not included after %d attempts", e.TransactionID, e.Attempts)
}

func (e *RetryExhaustedError) Unwrap() error {
	return ErrRetryExhausted
}
