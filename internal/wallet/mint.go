package wallet

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// NftOptions describe one NFT to mint. Addresses are bech32 and must use
// the node's HRP. An empty Address mints to the account's first address.
type NftOptions struct {
	Address  string `json:"address,omitempty"`
	Sender   string `json:"sender,omitempty"`
	Metadata []byte `json:"metadata,omitempty"`
	Tag      []byte `json:"tag,omitempty"`

	Issuer            string `json:"issuer,omitempty"`
	ImmutableMetadata []byte `json:"immutableMetadata,omitempty"`
}

// MintNfts mints every requested NFT in a single transaction. Each NFT
// carries the minimum storage deposit.
func (a *Account) MintNfts(ctx context.Context, nfts []NftOptions, opts *TransactionOptions) (*Transaction, error) {
	if len(nfts) == 0 {
		return nil, ErrEmptyOutputs
	}
	a.opMu.Lock()
	defer a.opMu.Unlock()

	outputs, err := a.nftOutputs(ctx, nfts)
	if err != nil {
		return nil, err
	}
	a.logger.Info().Int("count", len(outputs)).Msg("Minting NFTs")
	return a.send(ctx, outputs, opts.clone())
}

func (a *Account) nftOutputs(ctx context.Context, nfts []NftOptions) ([]output.Output, error) {
	supply, err := a.client.TokenSupply(ctx)
	if err != nil {
		return nil, err
	}
	rent, err := a.client.RentStructure(ctx)
	if err != nil {
		return nil, err
	}

	outputs := make([]output.Output, 0, len(nfts))
	for i, n := range nfts {
		var addr types.Address
		if n.Address == "" {
			if addr, err = a.FirstAddress(); err != nil {
				return nil, err
			}
		} else if addr, err = a.parseBech32(ctx, n.Address); err != nil {
			return nil, fmt.Errorf("nft %d address: %w", i, err)
		}

		b := output.NewNftOutputBuilderWithMinimumStorageDeposit(rent, types.NftID{}).
			AddUnlockCondition(output.AddressUnlockCondition{Address: addr})
		if n.Sender != "" {
			sender, err := a.parseBech32(ctx, n.Sender)
			if err != nil {
				return nil, fmt.Errorf("nft %d sender: %w", i, err)
			}
			b.AddFeature(output.SenderFeature{Address: sender})
		}
		if len(n.Metadata) > 0 {
			b.AddFeature(output.MetadataFeature{Data: n.Metadata})
		}
		if len(n.Tag) > 0 {
			b.AddFeature(output.TagFeature{Tag: n.Tag})
		}
		if n.Issuer != "" {
			issuer, err := a.parseBech32(ctx, n.Issuer)
			if err != nil {
				return nil, fmt.Errorf("nft %d issuer: %w", i, err)
			}
			b.AddImmutableFeature(output.IssuerFeature{Address: issuer})
		}
		if len(n.ImmutableMetadata) > 0 {
			b.AddImmutableFeature(output.MetadataFeature{Data: n.ImmutableMetadata})
		}

		out, err := b.Finish(supply)
		if err != nil {
			return nil, fmt.Errorf("nft %d: %w", i, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
