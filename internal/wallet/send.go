package wallet

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// AddressWithAmount is a bech32 recipient and the base tokens it gets.
type AddressWithAmount struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// SignTransaction signs prepared and checks the result against the
// consumed outputs.
func (a *Account) SignTransaction(ctx context.Context, prepared *tx.PreparedTransactionData) (*tx.Transaction, error) {
	now, err := a.client.TimeChecked(ctx)
	if err != nil {
		return nil, err
	}
	signed, err := a.secret.SignTransaction(ctx, prepared, now)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	consumed := prepared.ConsumedOutputs()
	if err := signed.Essence.ValidateWithInputs(consumed); err != nil {
		return nil, fmt.Errorf("signed transaction: %w", err)
	}
	if err := signed.VerifySignatures(consumed, now); err != nil {
		return nil, fmt.Errorf("signed transaction: %w", err)
	}
	return signed, nil
}

// SubmitAndStoreTransaction submits signed and records it as pending.
// Its inputs stay locked until it is included or conflicts.
func (a *Account) SubmitAndStoreTransaction(ctx context.Context, signed *tx.Transaction, note string) (*Transaction, error) {
	blockID, err := a.client.SubmitTransaction(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("submit transaction: %w", err)
	}
	id := signed.ID()
	record := Transaction{
		TransactionID:  id,
		BlockID:        &blockID,
		InclusionState: api.InclusionPending,
		Timestamp:      a.now().UnixMilli(),
		Payload:        signed,
		Note:           note,
	}

	a.mu.Lock()
	for _, outID := range signed.Essence.InputOutputIDs() {
		a.details.LockedOutputs[outID] = struct{}{}
	}
	a.details.Transactions[id] = record
	a.details.PendingTransactions[id] = struct{}{}
	a.mu.Unlock()

	a.logger.Info().
		Str("tx", id.String()).
		Str("block", blockID.String()).
		Msg("Submitted transaction")
	if err := a.save(); err != nil {
		return nil, err
	}
	return &record, nil
}

// Send prepares, signs and submits a transaction creating outputs.
func (a *Account) Send(ctx context.Context, outputs []output.Output, opts *TransactionOptions) (*Transaction, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	return a.send(ctx, outputs, opts.clone())
}

func (a *Account) send(ctx context.Context, outputs []output.Output, opts *TransactionOptions) (*Transaction, error) {
	prepared, err := a.prepareTransaction(ctx, outputs, opts)
	if err != nil {
		return nil, err
	}
	signed, err := a.SignTransaction(ctx, prepared)
	if err != nil {
		return nil, err
	}
	return a.SubmitAndStoreTransaction(ctx, signed, opts.Note)
}

// SendAmount sends base tokens to bech32 addresses of the node's network.
func (a *Account) SendAmount(ctx context.Context, recipients []AddressWithAmount, opts *TransactionOptions) (*Transaction, error) {
	if len(recipients) == 0 {
		return nil, ErrEmptyOutputs
	}
	supply, err := a.client.TokenSupply(ctx)
	if err != nil {
		return nil, err
	}
	outputs := make([]output.Output, 0, len(recipients))
	for _, r := range recipients {
		addr, err := a.parseBech32(ctx, r.Address)
		if err != nil {
			return nil, err
		}
		if r.Amount == 0 {
			return nil, fmt.Errorf("%w: zero amount to %s", ErrInvalidAmount, r.Address)
		}
		out, err := output.NewBasicOutputBuilder(r.Amount).
			AddUnlockCondition(output.AddressUnlockCondition{Address: addr}).
			Finish(supply)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return a.Send(ctx, outputs, opts)
}

// parseBech32 decodes s and checks its HRP against the node's.
func (a *Account) parseBech32(ctx context.Context, s string) (types.Address, error) {
	expected, err := a.client.Bech32HRP(ctx)
	if err != nil {
		return types.Address{}, err
	}
	hrp, addr, err := types.ParseBech32Address(s)
	if err != nil {
		return types.Address{}, err
	}
	if hrp != expected {
		return types.Address{}, &Bech32HrpMismatchError{Provided: hrp, Expected: expected}
	}
	return addr, nil
}
