// Package tx defines transaction types and validation.
package tx

import (
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/iotaledger/hive.go/marshalutil"
)

// Serialized kinds.
const (
	EssenceKindRegular     byte   = 1
	InputKindUTXO          byte   = 0
	PayloadKindTaggedData  uint32 = 5
	PayloadKindTransaction uint32 = 6
)

// Count limits.
const (
	MaxInputsCount  = 128
	MaxOutputsCount = types.MaxOutputsCount
)

// Input references an unspent output being consumed.
type Input struct {
	OutputID types.OutputID
}

// TaggedDataPayload is arbitrary data attached to a transaction.
type TaggedDataPayload struct {
	Tag  []byte
	Data []byte
}

// Bytes returns the serialized payload including its kind.
func (p *TaggedDataPayload) Bytes() []byte {
	m := marshalutil.New()
	m.WriteUint32(PayloadKindTaggedData)
	m.WriteByte(byte(len(p.Tag)))
	m.WriteBytes(p.Tag)
	m.WriteUint32(uint32(len(p.Data)))
	m.WriteBytes(p.Data)
	return m.Bytes()
}

// Essence is the signed part of a transaction.
type Essence struct {
	NetworkID        uint64
	Inputs           []Input
	InputsCommitment types.Hash
	Outputs          []output.Output
	Payload          *TaggedDataPayload
}

// Bytes returns the canonical serialization of the essence.
func (e *Essence) Bytes() []byte {
	m := marshalutil.New()
	e.write(m)
	return m.Bytes()
}

func (e *Essence) write(m *marshalutil.MarshalUtil) {
	m.WriteByte(EssenceKindRegular)
	m.WriteUint64(e.NetworkID)
	m.WriteUint16(uint16(len(e.Inputs)))
	for _, in := range e.Inputs {
		m.WriteByte(InputKindUTXO)
		m.WriteBytes(in.OutputID[:])
	}
	m.WriteBytes(e.InputsCommitment[:])
	m.WriteUint16(uint16(len(e.Outputs)))
	for _, out := range e.Outputs {
		m.WriteBytes(out.Bytes())
	}
	if e.Payload == nil {
		m.WriteUint32(0)
		return
	}
	payload := e.Payload.Bytes()
	m.WriteUint32(uint32(len(payload)))
	m.WriteBytes(payload)
}

// Hash returns the essence hash, the message every signature unlock signs.
func (e *Essence) Hash() types.Hash {
	return crypto.Hash(e.Bytes())
}

// InputOutputIDs returns the IDs of all consumed outputs.
func (e *Essence) InputOutputIDs() []types.OutputID {
	ids := make([]types.OutputID, len(e.Inputs))
	for i, in := range e.Inputs {
		ids[i] = in.OutputID
	}
	return ids
}

// TotalOutputAmount returns the sum of all output amounts.
// Returns an error if the sum overflows uint64.
func (e *Essence) TotalOutputAmount() (uint64, error) {
	return sumAmounts(e.Outputs)
}

func sumAmounts(outputs []output.Output) (uint64, error) {
	var total uint64
	for _, out := range outputs {
		if total > math.MaxUint64-out.Amount() {
			return 0, ErrAmountOverflow
		}
		total += out.Amount()
	}
	return total, nil
}

// InputsCommitment commits to the outputs consumed by a transaction:
// the hash of the concatenated hashes of each consumed output.
func InputsCommitment(inputs []output.Output) types.Hash {
	parts := make([][]byte, len(inputs))
	for i, out := range inputs {
		h := crypto.Hash(out.Bytes())
		parts[i] = h[:]
	}
	return crypto.HashConcat(parts...)
}

// Transaction is a signed transaction payload.
type Transaction struct {
	Essence Essence
	Unlocks []Unlock
}

// Bytes returns the canonical serialization of the transaction payload.
func (tx *Transaction) Bytes() []byte {
	m := marshalutil.New()
	m.WriteUint32(PayloadKindTransaction)
	tx.Essence.write(m)
	m.WriteUint16(uint16(len(tx.Unlocks)))
	for _, u := range tx.Unlocks {
		writeUnlock(m, u)
	}
	return m.Bytes()
}

// ID returns the transaction ID, the hash of the serialized payload.
func (tx *Transaction) ID() types.TransactionID {
	return types.TransactionID(crypto.Hash(tx.Bytes()))
}

// OutputID returns the ID the output at index will have once the
// transaction is included.
func (tx *Transaction) OutputID(index int) (types.OutputID, error) {
	if index < 0 || index >= len(tx.Essence.Outputs) {
		return types.OutputID{}, fmt.Errorf("%w: %d", types.ErrOutputIndexOutOfRange, index)
	}
	return types.NewOutputID(tx.ID(), uint16(index))
}

// FromBytes decodes a serialized transaction payload. Outputs are
// validated against tokenSupply.
func FromBytes(data []byte, tokenSupply uint64) (*Transaction, error) {
	m := marshalutil.New(data)
	kind, err := m.ReadUint32()
	if err != nil {
		return nil, types.InvalidField("type", err)
	}
	if kind != PayloadKindTransaction {
		return nil, types.InvalidField("type", fmt.Errorf("unexpected payload kind %d", kind))
	}
	essence, err := readEssence(m, tokenSupply)
	if err != nil {
		return nil, err
	}
	count, err := m.ReadUint16()
	if err != nil {
		return nil, types.InvalidField("unlocks", err)
	}
	tx := &Transaction{Essence: *essence}
	for i := 0; i < int(count); i++ {
		u, err := readUnlock(m)
		if err != nil {
			return nil, err
		}
		tx.Unlocks = append(tx.Unlocks, u)
	}
	if m.ReadOffset() != len(data) {
		return nil, fmt.Errorf("%w: %d bytes", output.ErrTrailingBytes, len(data)-m.ReadOffset())
	}
	return tx, nil
}

func readEssence(m *marshalutil.MarshalUtil, tokenSupply uint64) (*Essence, error) {
	kind, err := m.ReadByte()
	if err != nil {
		return nil, types.InvalidField("essence", err)
	}
	if kind != EssenceKindRegular {
		return nil, types.InvalidField("essence", fmt.Errorf("unknown essence kind %d", kind))
	}
	e := &Essence{}
	if e.NetworkID, err = m.ReadUint64(); err != nil {
		return nil, types.InvalidField("networkId", err)
	}

	inputCount, err := m.ReadUint16()
	if err != nil {
		return nil, types.InvalidField("inputs", err)
	}
	for i := 0; i < int(inputCount); i++ {
		inKind, err := m.ReadByte()
		if err != nil {
			return nil, types.InvalidField("inputs", err)
		}
		if inKind != InputKindUTXO {
			return nil, types.InvalidField("inputs", fmt.Errorf("unknown input kind %d", inKind))
		}
		b, err := m.ReadBytes(types.OutputIDSize)
		if err != nil {
			return nil, types.InvalidField("outputId", err)
		}
		id, err := types.OutputIDFromBytes(b)
		if err != nil {
			return nil, types.InvalidField("outputId", err)
		}
		e.Inputs = append(e.Inputs, Input{OutputID: id})
	}

	commitment, err := m.ReadBytes(types.HashSize)
	if err != nil {
		return nil, types.InvalidField("inputsCommitment", err)
	}
	copy(e.InputsCommitment[:], commitment)

	outputCount, err := m.ReadUint16()
	if err != nil {
		return nil, types.InvalidField("outputs", err)
	}
	for i := 0; i < int(outputCount); i++ {
		out, err := output.ReadOutput(m, tokenSupply)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		e.Outputs = append(e.Outputs, out)
	}

	payloadLen, err := m.ReadUint32()
	if err != nil {
		return nil, types.InvalidField("payload", err)
	}
	if payloadLen == 0 {
		return e, nil
	}
	start := m.ReadOffset()
	payloadKind, err := m.ReadUint32()
	if err != nil {
		return nil, types.InvalidField("payload", err)
	}
	if payloadKind != PayloadKindTaggedData {
		return nil, types.InvalidField("payload", fmt.Errorf("unsupported payload kind %d", payloadKind))
	}
	tagLen, err := m.ReadByte()
	if err != nil {
		return nil, types.InvalidField("tag", err)
	}
	tag, err := m.ReadBytes(int(tagLen))
	if err != nil {
		return nil, types.InvalidField("tag", err)
	}
	dataLen, err := m.ReadUint32()
	if err != nil {
		return nil, types.InvalidField("data", err)
	}
	data, err := m.ReadBytes(int(dataLen))
	if err != nil {
		return nil, types.InvalidField("data", err)
	}
	if m.ReadOffset()-start != int(payloadLen) {
		return nil, types.InvalidField("payload", fmt.Errorf("length %d does not match content", payloadLen))
	}
	e.Payload = &TaggedDataPayload{
		Tag:  append([]byte(nil), tag...),
		Data: append([]byte(nil), data...),
	}
	return e, nil
}
