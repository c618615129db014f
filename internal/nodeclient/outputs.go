package nodeclient

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/go-resty/resty/v2"
)

// GetOutput fetches an output with its metadata. Unknown outputs return
// api.ErrNotFound.
func (c *Client) GetOutput(ctx context.Context, id types.OutputID) (output.Output, *api.OutputMetadata, error) {
	var resp api.OutputWithMetadataResponse
	if err := c.get(ctx, "output", corePath+"/outputs/"+id.String(), &resp); err != nil {
		return nil, nil, err
	}
	supply, err := c.TokenSupply(ctx)
	if err != nil {
		return nil, nil, err
	}
	out, err := resp.Decode(supply)
	if err != nil {
		return nil, nil, fmt.Errorf("decode output %s: %w", id, err)
	}
	return out, &resp.Metadata, nil
}

// FoundryOutputID resolves the output currently holding a foundry.
// Unknown foundries return api.ErrNotFound.
func (c *Client) FoundryOutputID(ctx context.Context, id types.FoundryID) (types.OutputID, error) {
	var resp api.OutputsResponse
	if err := c.get(ctx, "foundry", indexerPath+"/outputs/foundry/"+id.String(), &resp); err != nil {
		return types.OutputID{}, err
	}
	if len(resp.Items) == 0 {
		return types.OutputID{}, fmt.Errorf("foundry %s: %w", id, api.ErrNotFound)
	}
	return types.ParseOutputID(resp.Items[0])
}

// indexerQuery is one indexer route plus its filter parameter.
type indexerQuery struct {
	route string
	param string
}

func queriesFor(addr types.Address) []indexerQuery {
	queries := []indexerQuery{
		{route: "basic", param: "address"},
		{route: "nft", param: "address"},
		{route: "alias", param: "stateController"},
		{route: "alias", param: "governor"},
	}
	if addr.Kind == types.AddressAlias {
		queries = append(queries, indexerQuery{route: "foundry", param: "aliasAddress"})
	}
	return queries
}

// OutputIDsForAddress lists the ids of all unspent outputs an address can
// unlock or control, following indexer cursors to the end.
func (c *Client) OutputIDsForAddress(ctx context.Context, addr types.Address) ([]types.OutputID, error) {
	hrp, err := c.Bech32HRP(ctx)
	if err != nil {
		return nil, err
	}
	bech, err := addr.Bech32(hrp)
	if err != nil {
		return nil, err
	}

	seen := make(map[types.OutputID]struct{})
	var ids []types.OutputID
	for _, q := range queriesFor(addr) {
		cursor := ""
		for {
			var page api.OutputsResponse
			err := c.do(ctx, "indexer", func(r *resty.Request) (*resty.Response, error) {
				r.SetQueryParam(q.param, bech)
				if cursor != "" {
					r.SetQueryParam("cursor", cursor)
				}
				return r.Get(indexerPath + "/outputs/" + q.route)
			}, &page)
			if err != nil {
				return nil, err
			}
			for _, item := range page.Items {
				id, err := types.ParseOutputID(item)
				if err != nil {
					return nil, fmt.Errorf("indexer item %q: %w", item, err)
				}
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
			if page.Cursor == nil || *page.Cursor == "" {
				break
			}
			cursor = *page.Cursor
		}
	}
	return ids, nil
}
