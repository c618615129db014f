package wallet

import (
	"context"

	"github.com/Klingon-tech/klingnet-ledger/internal/secret"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/participation"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Client is the network boundary. Lookups of missing entities fail with
// an error wrapping api.ErrNotFound.
type Client interface {
	GetOutput(ctx context.Context, id types.OutputID) (output.Output, *api.OutputMetadata, error)
	FoundryOutputID(ctx context.Context, id types.FoundryID) (types.OutputID, error)
	OutputIDsForAddress(ctx context.Context, addr types.Address) ([]types.OutputID, error)
	TokenSupply(ctx context.Context) (uint64, error)
	RentStructure(ctx context.Context) (output.RentStructure, error)
	NetworkID(ctx context.Context) (uint64, error)
	Bech32HRP(ctx context.Context) (string, error)
	TimeChecked(ctx context.Context) (uint32, error)
	SubmitTransaction(ctx context.Context, transaction *tx.Transaction) (types.BlockID, error)
	TransactionInclusionState(ctx context.Context, id types.TransactionID) (api.InclusionState, error)
}

// ParticipationClient is implemented by clients that can reach a node's
// participation plugin.
type ParticipationClient interface {
	ParticipationEvent(ctx context.Context, id participation.EventID) (*participation.EventData, error)
	ParticipationOutputStatus(ctx context.Context, id types.OutputID) (*participation.OutputStatusResponse, error)
}

// SecretManager is the signing boundary.
type SecretManager interface {
	GenerateEd25519Addresses(ctx context.Context, opts secret.GenerateAddressesOptions) ([]types.Address, error)
	SignTransaction(ctx context.Context, prepared *tx.PreparedTransactionData, now uint32) (*tx.Transaction, error)
	// LedgerNanoStatus reports hardware signer state. Software signers
	// return an error wrapping secret.ErrUnsupported.
	LedgerNanoStatus(ctx context.Context) (*secret.LedgerNanoStatus, error)
}
