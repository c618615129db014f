package output

import "errors"

// Validation errors. Each names the rule an output violated; builders wrap
// them with detail, so match with errors.Is.
var (
	ErrAmountBelowMinimum         = errors.New("amount below protocol minimum")
	ErrAmountExceedsTokenSupply   = errors.New("amount exceeds token supply")
	ErrDisallowedUnlockCondition  = errors.New("unlock condition not allowed for output kind")
	ErrDuplicateUnlockCondition   = errors.New("duplicate unlock condition kind")
	ErrMissingUnlockCondition     = errors.New("required unlock condition missing")
	ErrInvalidUnlockCondition     = errors.New("invalid unlock condition")
	ErrDisallowedFeature          = errors.New("feature not allowed for output kind")
	ErrDuplicateFeature           = errors.New("duplicate feature kind")
	ErrInvalidFeature             = errors.New("invalid feature")
	ErrTooManyNativeTokens        = errors.New("too many native tokens")
	ErrDuplicateNativeToken       = errors.New("duplicate native token")
	ErrZeroNativeTokenAmount      = errors.New("native token amount is zero")
	ErrNativeTokenOverflow        = errors.New("native token amount overflows 256 bits")
	ErrInvalidTokenScheme         = errors.New("invalid token scheme")
	ErrSelfDeposit                = errors.New("output is locked to its own address")
	ErrInvalidStateMetadata       = errors.New("invalid alias state metadata")
	ErrNonZeroStateOnCreation     = errors.New("new alias must have zero state index and foundry counter")
	ErrInsufficientStorageDeposit = errors.New("amount below minimum storage deposit")
	ErrUnknownOutputKind          = errors.New("unknown output kind")
	ErrTrailingBytes              = errors.New("trailing bytes after output")
)
