package nodeclient

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
)

// ProtocolParameters returns the node's protocol parameters.
func (c *Client) ProtocolParameters(ctx context.Context) (*api.ProtocolParameters, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return nil, err
	}
	return &info.Protocol, nil
}

// TokenSupply returns the total base token supply.
func (c *Client) TokenSupply(ctx context.Context) (uint64, error) {
	params, err := c.ProtocolParameters(ctx)
	if err != nil {
		return 0, err
	}
	return params.TokenSupplyValue()
}

// RentStructure returns the storage deposit parameters.
func (c *Client) RentStructure(ctx context.Context) (output.RentStructure, error) {
	params, err := c.ProtocolParameters(ctx)
	if err != nil {
		return output.RentStructure{}, err
	}
	return params.RentStructure, nil
}

// NetworkID returns the numeric network id used in essences.
func (c *Client) NetworkID(ctx context.Context) (uint64, error) {
	params, err := c.ProtocolParameters(ctx)
	if err != nil {
		return 0, err
	}
	return params.NetworkID(), nil
}

// Bech32HRP returns the human readable part of the network's addresses.
func (c *Client) Bech32HRP(ctx context.Context) (string, error) {
	params, err := c.ProtocolParameters(ctx)
	if err != nil {
		return "", err
	}
	return params.Bech32HRP, nil
}

// TimeChecked returns the local unix time after checking it against the
// latest milestone timestamp.
func (c *Client) TimeChecked(ctx context.Context) (uint32, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return 0, err
	}
	local := c.now()
	milestone := time.Unix(int64(info.Status.LatestMilestone.Timestamp), 0)
	drift := local.Sub(milestone)
	if drift < 0 {
		drift = -drift
	}
	if c.maxDrift > 0 && drift > c.maxDrift {
		return 0, fmt.Errorf("%w: local %s, milestone %d at %s",
			ErrTimeNotSynced, local.UTC().Format(time.RFC3339),
			info.Status.LatestMilestone.Index, milestone.UTC().Format(time.RFC3339))
	}
	return uint32(local.Unix()), nil
}
