package wallet

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OutputData is an output known to the account.
type OutputData struct {
	OutputID  types.OutputID
	Metadata  api.OutputMetadata
	Output    output.Output
	IsSpent   bool
	Address   types.Address
	NetworkID uint64
	Remainder bool

	// Chain is the derivation path of Address, nil for outputs owned by an
	// alias or NFT of the account.
	Chain *types.Bip44
}

// InputSigningData returns what a signer needs to consume the output.
func (o OutputData) InputSigningData() tx.InputSigningData {
	return tx.InputSigningData{
		Output:   o.Output,
		OutputID: o.OutputID,
		Metadata: o.Metadata,
		Chain:    o.Chain,
	}
}

type outputDataJSON struct {
	OutputID  types.OutputID     `json:"outputId"`
	Metadata  api.OutputMetadata `json:"metadata"`
	Output    *output.DTO        `json:"output"`
	IsSpent   bool               `json:"isSpent"`
	Address   *output.AddressDTO `json:"address"`
	NetworkID uint64             `json:"networkId"`
	Remainder bool               `json:"remainder"`
	Chain     *types.Bip44       `json:"chain,omitempty"`
}

// MarshalJSON encodes the output in its node JSON form.
func (o OutputData) MarshalJSON() ([]byte, error) {
	if o.Output == nil {
		return nil, fmt.Errorf("output data %s: missing output", o.OutputID)
	}
	return json.Marshal(outputDataJSON{
		OutputID:  o.OutputID,
		Metadata:  o.Metadata,
		Output:    output.ToDTO(o.Output),
		IsSpent:   o.IsSpent,
		Address:   output.AddressToDTO(o.Address),
		NetworkID: o.NetworkID,
		Remainder: o.Remainder,
		Chain:     o.Chain,
	})
}

// UnmarshalJSON decodes stored output data. Amounts are not bounded by a
// token supply; they were checked when the output was first fetched.
func (o *OutputData) UnmarshalJSON(data []byte) error {
	var raw outputDataJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Output == nil {
		return types.InvalidField("output", fmt.Errorf("missing"))
	}
	out, err := output.FromDTOUnverified(raw.Output)
	if err != nil {
		return err
	}
	addr, err := output.AddressFromDTO(raw.Address, "address")
	if err != nil {
		return err
	}
	*o = OutputData{
		OutputID:  raw.OutputID,
		Metadata:  raw.Metadata,
		Output:    out,
		IsSpent:   raw.IsSpent,
		Address:   addr,
		NetworkID: raw.NetworkID,
		Remainder: raw.Remainder,
		Chain:     raw.Chain,
	}
	return nil
}

type addressWithIndexJSON struct {
	Address  *output.AddressDTO `json:"address"`
	KeyIndex uint32             `json:"keyIndex"`
	Internal bool               `json:"internal"`
}

// MarshalJSON encodes the address in its node JSON form.
func (a AddressWithIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressWithIndexJSON{
		Address:  output.AddressToDTO(a.Address),
		KeyIndex: a.KeyIndex,
		Internal: a.Internal,
	})
}

func (a *AddressWithIndex) UnmarshalJSON(data []byte) error {
	var raw addressWithIndexJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	addr, err := output.AddressFromDTO(raw.Address, "address")
	if err != nil {
		return err
	}
	*a = AddressWithIndex{Address: addr, KeyIndex: raw.KeyIndex, Internal: raw.Internal}
	return nil
}

func sortedOutputs(m map[types.OutputID]OutputData) []OutputData {
	out := make([]OutputData, 0, len(m))
	for _, o := range m {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].OutputID[:], out[j].OutputID[:]) < 0
	})
	return out
}
