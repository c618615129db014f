package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/internal/metrics"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"golang.org/x/sync/errgroup"
)

// RequestAndStoreFoundryOutputs fetches the foundries in ids that are not
// cached yet and merges them into the account. Lookups run concurrently,
// one per missing id. A foundry the node does not know is skipped unless
// Options.StrictFoundryLookups is set. Any other failure aborts the call
// and nothing is merged.
func (a *Account) RequestAndStoreFoundryOutputs(ctx context.Context, ids []types.FoundryID) error {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	if err := a.requestAndStoreFoundryOutputs(ctx, ids); err != nil {
		return err
	}
	return a.save()
}

func (a *Account) requestAndStoreFoundryOutputs(ctx context.Context, ids []types.FoundryID) error {
	a.mu.RLock()
	seen := make(map[types.FoundryID]struct{}, len(ids))
	var missing []types.FoundryID
	for _, id := range ids {
		if _, ok := a.details.NativeTokenFoundries[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	a.mu.RUnlock()

	if len(missing) == 0 {
		return nil
	}

	results := make([]*output.FoundryOutput, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range missing {
		i, id := i, id
		g.Go(func() error {
			f, err := a.fetchFoundry(gctx, id)
			switch {
			case errors.Is(err, api.ErrNotFound) && !a.opts.StrictFoundryLookups:
				metrics.FoundryLookups.WithLabelValues("not_found").Inc()
				a.logger.Debug().Str("foundry", id.String()).Msg("Foundry not found, skipping")
				return nil
			case err != nil:
				metrics.FoundryLookups.WithLabelValues("error").Inc()
				return fmt.Errorf("foundry %s: %w", id, err)
			}
			metrics.FoundryLookups.WithLabelValues("found").Inc()
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := 0
	a.mu.Lock()
	for _, f := range results {
		if f == nil {
			continue
		}
		a.details.NativeTokenFoundries[f.ID()] = f
		merged++
	}
	a.mu.Unlock()

	a.logger.Debug().Int("requested", len(missing)).Int("merged", merged).Msg("Stored foundry outputs")
	return nil
}

func (a *Account) fetchFoundry(ctx context.Context, id types.FoundryID) (*output.FoundryOutput, error) {
	outputID, err := a.client.FoundryOutputID(ctx, id)
	if err != nil {
		return nil, err
	}
	out, _, err := a.client.GetOutput(ctx, outputID)
	if err != nil {
		return nil, err
	}
	f, ok := out.(*output.FoundryOutput)
	if !ok {
		return nil, fmt.Errorf("output %s is a %s output, not a foundry", outputID, out.Kind())
	}
	if f.ID() != id {
		return nil, fmt.Errorf("output %s holds foundry %s", outputID, f.ID())
	}
	return f, nil
}
