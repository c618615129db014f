package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/metrics"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// RetryTransactionUntilIncluded polls the inclusion state of a pending
// transaction until it is included. Zero interval or maxAttempts use the
// wallet options. The payload is resubmitted every ReattachEvery polls.
// It returns the id of the block the transaction was submitted in, if
// known. It does not hold the operation lock while waiting, so other
// operations on the account may run between polls.
func (a *Account) RetryTransactionUntilIncluded(ctx context.Context, id types.TransactionID, interval time.Duration, maxAttempts int) (*types.BlockID, error) {
	if interval <= 0 {
		interval = a.opts.RetryInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = a.opts.RetryMaxAttempts
	}
	record, ok := a.Transaction(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	blockID := record.BlockID

	timer := time.NewTimer(interval)
	timer.Stop()
	defer timer.Stop()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		metrics.RetryAttempts.Inc()
		state, err := a.client.TransactionInclusionState(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("inclusion state of %s: %w", id, err)
		}
		switch state {
		case api.InclusionIncluded:
			a.applyInclusionState(id, state)
			if err := a.save(); err != nil {
				return nil, err
			}
			a.logger.Info().Str("tx", id.String()).Int("attempts", attempt).Msg("Transaction included")
			return blockID, nil
		case api.InclusionConflicting:
			a.applyInclusionState(id, state)
			if err := a.save(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrTransactionConflicting, id)
		}

		if a.opts.ReattachEvery > 0 && attempt%a.opts.ReattachEvery == 0 && record.Payload != nil {
			reattached, err := a.client.SubmitTransaction(ctx, record.Payload)
			if err != nil {
				a.logger.Warn().Err(err).Str("tx", id.String()).Msg("Resubmitting transaction failed")
			} else {
				blockID = &reattached
				a.setBlockID(id, reattached)
			}
		}

		if attempt == maxAttempts {
			break
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, &RetryExhaustedError{TransactionID: id, Attempts: maxAttempts}
}

func (a *Account) setBlockID(id types.TransactionID, blockID types.BlockID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.details.Transactions[id]; ok {
		t.BlockID = &blockID
		a.details.Transactions[id] = t
	}
}
