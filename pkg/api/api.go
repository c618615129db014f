// Package api defines the node REST API response types shared by the node
// client and the wallet engine.
package api

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// ErrNotFound is returned when the node does not know the requested item.
var ErrNotFound = errors.New("not found")

// OutputMetadata describes where an output was created and whether it has
// been spent.
type OutputMetadata struct {
	BlockID                  types.BlockID        `json:"blockId"`
	TransactionID            types.TransactionID  `json:"transactionId"`
	OutputIndex              uint16               `json:"outputIndex"`
	IsSpent                  bool                 `json:"isSpent"`
	MilestoneIndexSpent      uint32               `json:"milestoneIndexSpent,omitempty"`
	MilestoneTimestampSpent  uint32               `json:"milestoneTimestampSpent,omitempty"`
	TransactionIDSpent       *types.TransactionID `json:"transactionIdSpent,omitempty"`
	MilestoneIndexBooked     uint32               `json:"milestoneIndexBooked"`
	MilestoneTimestampBooked uint32               `json:"milestoneTimestampBooked"`
	LedgerIndex              uint32               `json:"ledgerIndex"`
}

// OutputID returns the ID of the output the metadata describes.
func (m OutputMetadata) OutputID() (types.OutputID, error) {
	return types.NewOutputID(m.TransactionID, m.OutputIndex)
}

// OutputWithMetadataResponse is the node's answer to an output lookup.
type OutputWithMetadataResponse struct {
	Metadata OutputMetadata `json:"metadata"`
	Output   output.DTO     `json:"output"`
}

// Decode converts the response output, validating it against tokenSupply.
func (r *OutputWithMetadataResponse) Decode(tokenSupply uint64) (output.Output, error) {
	return output.FromDTO(&r.Output, tokenSupply)
}

// OutputsResponse is an indexer page of output IDs.
type OutputsResponse struct {
	LedgerIndex uint32   `json:"ledgerIndex"`
	Cursor      *string  `json:"cursor,omitempty"`
	Items       []string `json:"items"`
	PageSize    int      `json:"pageSize,omitempty"`
}

// InclusionState is the ledger state of a submitted transaction.
type InclusionState int

// Inclusion states.
const (
	InclusionPending InclusionState = iota
	InclusionIncluded
	InclusionConflicting
	InclusionNoTransaction
)

func (s InclusionState) String() string {
	switch s {
	case InclusionPending:
		return "pending"
	case InclusionIncluded:
		return "included"
	case InclusionConflicting:
		return "conflicting"
	case InclusionNoTransaction:
		return "noTransaction"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s InclusionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *InclusionState) UnmarshalText(text []byte) error {
	state, err := ParseInclusionState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// ParseInclusionState parses a node ledger inclusion state.
func ParseInclusionState(s string) (InclusionState, error) {
	switch s {
	case "pending", "":
		return InclusionPending, nil
	case "included":
		return InclusionIncluded, nil
	case "conflicting":
		return InclusionConflicting, nil
	case "noTransaction":
		return InclusionNoTransaction, nil
	default:
		return 0, types.InvalidField("ledgerInclusionState", fmt.Errorf("unknown state %q", s))
	}
}

// BlockMetadataResponse is the subset of block metadata the wallet reads.
type BlockMetadataResponse struct {
	BlockID              types.BlockID `json:"blockId"`
	LedgerInclusionState string        `json:"ledgerInclusionState,omitempty"`
	ConflictReason       int           `json:"conflictReason,omitempty"`
}

// ProtocolParameters are the node's protocol settings.
type ProtocolParameters struct {
	Version       byte                 `json:"version"`
	NetworkName   string               `json:"networkName"`
	Bech32HRP     string               `json:"bech32Hrp"`
	MinPoWScore   uint32               `json:"minPowScore"`
	RentStructure output.RentStructure `json:"rentStructure"`
	TokenSupply   string               `json:"tokenSupply"`
}

// TokenSupplyValue parses the decimal token supply.
func (p ProtocolParameters) TokenSupplyValue() (uint64, error) {
	v, err := strconv.ParseUint(p.TokenSupply, 10, 64)
	if err != nil {
		return 0, types.InvalidField("tokenSupply", err)
	}
	return v, nil
}

// NetworkID derives the numeric network identifier carried in essences:
// the first eight bytes, little-endian, of the BLAKE2b-256 hash of the
// network name.
func (p ProtocolParameters) NetworkID() uint64 {
	h := crypto.Hash([]byte(p.NetworkName))
	return binary.LittleEndian.Uint64(h[:8])
}

// MilestoneInfo identifies a milestone.
type MilestoneInfo struct {
	Index       uint32 `json:"index"`
	Timestamp   uint32 `json:"timestamp"`
	MilestoneID string `json:"milestoneId,omitempty"`
}

// NodeStatus is the node's sync status.
type NodeStatus struct {
	IsHealthy          bool          `json:"isHealthy"`
	LatestMilestone    MilestoneInfo `json:"latestMilestone"`
	ConfirmedMilestone MilestoneInfo `json:"confirmedMilestone"`
}

// NodeInfo is the response of the node info endpoint.
type NodeInfo struct {
	Name     string             `json:"name"`
	Version  string             `json:"version"`
	Status   NodeStatus         `json:"status"`
	Protocol ProtocolParameters `json:"protocol"`
}

// TipsResponse lists blocks a new block can reference.
type TipsResponse struct {
	Tips []types.BlockID `json:"tips"`
}

// SubmitBlockResponse carries the ID of an accepted block.
type SubmitBlockResponse struct {
	BlockID types.BlockID `json:"blockId"`
}

// ErrorResponse is the node's error body.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
