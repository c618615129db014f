package nodeclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/internal/metrics"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/go-resty/resty/v2"
)

// ProtocolVersion is the block protocol version the client produces.
const ProtocolVersion = 2

// Block is the JSON form of a block carrying a transaction payload.
type Block struct {
	ProtocolVersion byte               `json:"protocolVersion"`
	Parents         []types.BlockID    `json:"parents"`
	Payload         *tx.TransactionDTO `json:"payload,omitempty"`
	Nonce           string             `json:"nonce"`
}

// Tips returns block ids to use as parents.
func (c *Client) Tips(ctx context.Context) ([]types.BlockID, error) {
	var resp api.TipsResponse
	if err := c.get(ctx, "tips", corePath+"/tips", &resp); err != nil {
		return nil, err
	}
	return resp.Tips, nil
}

// SubmitTransaction wraps transaction in a block on top of the current
// tips and posts it. Proof of work is left to the node.
func (c *Client) SubmitTransaction(ctx context.Context, transaction *tx.Transaction) (types.BlockID, error) {
	tips, err := c.Tips(ctx)
	if err != nil {
		return types.BlockID{}, err
	}
	block := Block{
		ProtocolVersion: ProtocolVersion,
		Parents:         tips,
		Payload:         transaction.ToDTO(),
		Nonce:           "0",
	}

	var resp api.SubmitBlockResponse
	err = c.do(ctx, "submit", func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Content-Type", "application/json").
			SetBody(block).
			Post(corePath + "/blocks")
	}, &resp)
	if err != nil {
		return types.BlockID{}, err
	}
	metrics.TransactionsSubmitted.Inc()
	c.logger.Debug().
		Str("tx", transaction.ID().String()).
		Str("block", resp.BlockID.String()).
		Msg("Submitted transaction")
	return resp.BlockID, nil
}

// BlockMetadata returns the metadata of a block.
func (c *Client) BlockMetadata(ctx context.Context, id types.BlockID) (*api.BlockMetadataResponse, error) {
	var resp api.BlockMetadataResponse
	if err := c.get(ctx, "block-metadata", corePath+"/blocks/"+id.String()+"/metadata", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TransactionInclusionState reports the ledger state of a transaction.
// A transaction the node has not included yet is pending.
func (c *Client) TransactionInclusionState(ctx context.Context, id types.TransactionID) (api.InclusionState, error) {
	var resp api.BlockMetadataResponse
	err := c.get(ctx, "included-block", corePath+"/transactions/"+id.String()+"/included-block/metadata", &resp)
	if errors.Is(err, api.ErrNotFound) {
		return api.InclusionPending, nil
	}
	if err != nil {
		return 0, err
	}
	state, err := api.ParseInclusionState(resp.LedgerInclusionState)
	if err != nil {
		return 0, fmt.Errorf("transaction %s: %w", id, err)
	}
	return state, nil
}
