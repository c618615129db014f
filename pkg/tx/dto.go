package tx

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InputDTO is the JSON form of a UTXO input.
type InputDTO struct {
	Type                   byte   `json:"type"`
	TransactionID          string `json:"transactionId"`
	TransactionOutputIndex uint16 `json:"transactionOutputIndex"`
}

// TaggedDataDTO is the JSON form of a tagged data payload.
type TaggedDataDTO struct {
	Type uint32 `json:"type"`
	Tag  string `json:"tag,omitempty"`
	Data string `json:"data,omitempty"`
}

// EssenceDTO is the JSON form of an essence.
type EssenceDTO struct {
	Type             byte           `json:"type"`
	NetworkID        string         `json:"networkId"`
	Inputs           []InputDTO     `json:"inputs"`
	InputsCommitment string         `json:"inputsCommitment"`
	Outputs          []output.DTO   `json:"outputs"`
	Payload          *TaggedDataDTO `json:"payload,omitempty"`
}

// UnlockDTO is the JSON form of an unlock.
type UnlockDTO struct {
	Type      byte                        `json:"type"`
	Signature *crypto.Ed25519SignatureDTO `json:"signature,omitempty"`
	Reference uint16                      `json:"reference,omitempty"`
}

// TransactionDTO is the JSON form of a transaction payload.
type TransactionDTO struct {
	Type    uint32      `json:"type"`
	Essence EssenceDTO  `json:"essence"`
	Unlocks []UnlockDTO `json:"unlocks"`
}

// ToDTO converts the essence to its JSON form.
func (e *Essence) ToDTO() EssenceDTO {
	dto := EssenceDTO{
		Type:             EssenceKindRegular,
		NetworkID:        strconv.FormatUint(e.NetworkID, 10),
		InputsCommitment: e.InputsCommitment.String(),
	}
	for _, in := range e.Inputs {
		dto.Inputs = append(dto.Inputs, InputDTO{
			Type:                   InputKindUTXO,
			TransactionID:          in.OutputID.TransactionID().String(),
			TransactionOutputIndex: in.OutputID.Index(),
		})
	}
	for _, out := range e.Outputs {
		dto.Outputs = append(dto.Outputs, *output.ToDTO(out))
	}
	if e.Payload != nil {
		dto.Payload = &TaggedDataDTO{
			Type: PayloadKindTaggedData,
			Tag:  types.EncodeHex(e.Payload.Tag),
			Data: types.EncodeHex(e.Payload.Data),
		}
	}
	return dto
}

// ToDTO converts the transaction to its JSON form.
func (tx *Transaction) ToDTO() *TransactionDTO {
	dto := &TransactionDTO{
		Type:    PayloadKindTransaction,
		Essence: tx.Essence.ToDTO(),
	}
	for _, u := range tx.Unlocks {
		ud := UnlockDTO{Type: byte(u.Kind())}
		if sig, ok := u.(SignatureUnlock); ok {
			s := sig.Signature.ToDTO()
			ud.Signature = &s
		} else {
			ud.Reference, _ = referenceIndex(u)
		}
		dto.Unlocks = append(dto.Unlocks, ud)
	}
	return dto
}

// EssenceFromDTO converts a JSON essence, validating outputs against
// tokenSupply.
func EssenceFromDTO(dto *EssenceDTO, tokenSupply uint64) (*Essence, error) {
	if dto.Type != EssenceKindRegular {
		return nil, types.InvalidField("essence", fmt.Errorf("unknown essence kind %d", dto.Type))
	}
	networkID, err := strconv.ParseUint(dto.NetworkID, 10, 64)
	if err != nil {
		return nil, types.InvalidField("networkId", err)
	}
	e := &Essence{NetworkID: networkID}
	for _, in := range dto.Inputs {
		if in.Type != InputKindUTXO {
			return nil, types.InvalidField("inputs", fmt.Errorf("unknown input kind %d", in.Type))
		}
		var txID types.TransactionID
		if err := types.DecodeHexInto("transactionId", in.TransactionID, txID[:]); err != nil {
			return nil, err
		}
		id, err := types.NewOutputID(txID, in.TransactionOutputIndex)
		if err != nil {
			return nil, types.InvalidField("transactionOutputIndex", err)
		}
		e.Inputs = append(e.Inputs, Input{OutputID: id})
	}
	if err := types.DecodeHexInto("inputsCommitment", dto.InputsCommitment, e.InputsCommitment[:]); err != nil {
		return nil, err
	}
	for i := range dto.Outputs {
		out, err := output.FromDTO(&dto.Outputs[i], tokenSupply)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		e.Outputs = append(e.Outputs, out)
	}
	if dto.Payload != nil {
		if dto.Payload.Type != PayloadKindTaggedData {
			return nil, types.InvalidField("payload", fmt.Errorf("unsupported payload kind %d", dto.Payload.Type))
		}
		p := &TaggedDataPayload{}
		if dto.Payload.Tag != "" {
			if p.Tag, err = types.DecodeHex(dto.Payload.Tag); err != nil {
				return nil, types.InvalidField("tag", err)
			}
		}
		if dto.Payload.Data != "" {
			if p.Data, err = types.DecodeHex(dto.Payload.Data); err != nil {
				return nil, types.InvalidField("data", err)
			}
		}
		e.Payload = p
	}
	return e, nil
}

// TransactionFromDTO converts a JSON transaction, validating outputs
// against tokenSupply.
func TransactionFromDTO(dto *TransactionDTO, tokenSupply uint64) (*Transaction, error) {
	if dto.Type != PayloadKindTransaction {
		return nil, types.InvalidField("type", fmt.Errorf("unexpected payload kind %d", dto.Type))
	}
	essence, err := EssenceFromDTO(&dto.Essence, tokenSupply)
	if err != nil {
		return nil, err
	}
	tx := &Transaction{Essence: *essence}
	for _, ud := range dto.Unlocks {
		switch UnlockKind(ud.Type) {
		case UnlockSignature:
			if ud.Signature == nil {
				return nil, types.InvalidField("signature", fmt.Errorf("missing"))
			}
			sig, err := crypto.SignatureFromDTO(*ud.Signature)
			if err != nil {
				return nil, err
			}
			tx.Unlocks = append(tx.Unlocks, SignatureUnlock{Signature: *sig})
		case UnlockReference:
			tx.Unlocks = append(tx.Unlocks, ReferenceUnlock{Index: ud.Reference})
		case UnlockAlias:
			tx.Unlocks = append(tx.Unlocks, AliasUnlock{Index: ud.Reference})
		case UnlockNft:
			tx.Unlocks = append(tx.Unlocks, NftUnlock{Index: ud.Reference})
		default:
			return nil, types.InvalidField("unlocks", fmt.Errorf("unknown unlock kind %d", ud.Type))
		}
	}
	return tx, nil
}

// MarshalJSON encodes the transaction in its node JSON form.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(tx.ToDTO())
}

// UnmarshalJSON decodes a transaction without bounding output amounts by
// a token supply.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var dto TransactionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	decoded, err := TransactionFromDTO(&dto, math.MaxUint64)
	if err != nil {
		return err
	}
	*tx = *decoded
	return nil
}
