package tx

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

const testSupply uint64 = 1_813_620_509_061_365

func testKey(t *testing.T, b byte) *crypto.PrivateKey {
	t.Helper()
	seed := make([]byte, 32)
	seed[0] = b
	key, err := crypto.PrivateKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("PrivateKeyFromSeed: %v", err)
	}
	return key
}

func testOutputID(t *testing.T, b byte, index uint16) types.OutputID {
	t.Helper()
	var txID types.TransactionID
	txID[0] = b
	id, err := types.NewOutputID(txID, index)
	if err != nil {
		t.Fatalf("NewOutputID: %v", err)
	}
	return id
}

func basicTo(t *testing.T, addr types.Address, amount uint64) output.Output {
	t.Helper()
	out, err := output.NewBasicOutputBuilder(amount).
		AddUnlockCondition(output.AddressUnlockCondition{Address: addr}).
		Finish(testSupply)
	if err != nil {
		t.Fatalf("build basic output: %v", err)
	}
	return out
}

// testPrepared spends two outputs owned by key into one output.
func testPrepared(t *testing.T, key *crypto.PrivateKey) *PreparedTransactionData {
	t.Helper()
	in1 := basicTo(t, key.Address(), 600)
	in2 := basicTo(t, key.Address(), 400)
	id1 := testOutputID(t, 0x01, 0)
	id2 := testOutputID(t, 0x02, 3)

	essence := NewBuilder(42).
		AddInput(id1, in1).
		AddInput(id2, in2).
		AddOutput(basicTo(t, testKey(t, 9).Address(), 1000)).
		Build()
	return &PreparedTransactionData{
		Essence: essence,
		InputsData: []InputSigningData{
			{Output: in1, OutputID: id1},
			{Output: in2, OutputID: id2},
		},
	}
}

func signedTx(t *testing.T) (*Transaction, []output.Output) {
	t.Helper()
	key := testKey(t, 1)
	prepared := testPrepared(t, key)
	tx, err := Sign(prepared, map[types.Address]*crypto.PrivateKey{key.Address(): key}, 100)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tx, prepared.ConsumedOutputs()
}

func TestTransaction_ID_Deterministic(t *testing.T) {
	tx, _ := signedTx(t)

	id1 := tx.ID()
	id2 := tx.ID()
	if id1 != id2 {
		t.Error("ID() should be deterministic")
	}
	if id1.IsZero() {
		t.Error("ID() should not be zero")
	}
}

func TestTransaction_ID_ChangesWithContent(t *testing.T) {
	tx1, _ := signedTx(t)
	tx2, _ := signedTx(t)
	tx2.Essence.NetworkID++

	if tx1.ID() == tx2.ID() {
		t.Error("different transactions should have different IDs")
	}
}

func TestEssence_Hash_IgnoresUnlocks(t *testing.T) {
	tx, _ := signedTx(t)
	h1 := tx.Essence.Hash()
	id1 := tx.ID()

	tx.Unlocks = tx.Unlocks[:1]

	if h1 != tx.Essence.Hash() {
		t.Error("essence hash should not depend on unlocks")
	}
	if id1 == tx.ID() {
		t.Error("transaction ID should depend on unlocks")
	}
}

func TestTransaction_OutputID(t *testing.T) {
	tx, _ := signedTx(t)
	id, err := tx.OutputID(0)
	if err != nil {
		t.Fatalf("OutputID: %v", err)
	}
	if id.TransactionID() != tx.ID() || id.Index() != 0 {
		t.Errorf("OutputID(0) = %s", id)
	}
	if _, err := tx.OutputID(1); !errors.Is(err, types.ErrOutputIndexOutOfRange) {
		t.Errorf("expected ErrOutputIndexOutOfRange, got: %v", err)
	}
}

func TestTransaction_BytesRoundTrip(t *testing.T) {
	tx, _ := signedTx(t)
	tx.Essence.Payload = &TaggedDataPayload{Tag: []byte("tag"), Data: []byte("data")}

	data := tx.Bytes()
	decoded, err := FromBytes(data, testSupply)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), data) {
		t.Error("round trip changed the serialization")
	}
	if decoded.ID() != tx.ID() {
		t.Error("round trip changed the ID")
	}
	if string(decoded.Essence.Payload.Data) != "data" {
		t.Errorf("payload data = %q", decoded.Essence.Payload.Data)
	}
}

func TestFromBytes_Errors(t *testing.T) {
	tx, _ := signedTx(t)
	data := tx.Bytes()

	if _, err := FromBytes(append(append([]byte(nil), data...), 0), testSupply); !errors.Is(err, output.ErrTrailingBytes) {
		t.Errorf("expected ErrTrailingBytes, got: %v", err)
	}
	if _, err := FromBytes(data[:len(data)-10], testSupply); !errors.Is(err, types.ErrInvalidField) {
		t.Errorf("expected ErrInvalidField for truncated data, got: %v", err)
	}
	if _, err := FromBytes([]byte{5, 0, 0, 0}, testSupply); !errors.Is(err, types.ErrInvalidField) {
		t.Errorf("expected ErrInvalidField for wrong payload kind, got: %v", err)
	}
}

func TestInputsCommitment_OrderMatters(t *testing.T) {
	a := basicTo(t, testKey(t, 1).Address(), 10)
	b := basicTo(t, testKey(t, 2).Address(), 20)

	if InputsCommitment([]output.Output{a, b}) == InputsCommitment([]output.Output{b, a}) {
		t.Error("commitment should depend on input order")
	}
}

func TestTransaction_JSONRoundTrip(t *testing.T) {
	tx, _ := signedTx(t)
	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Transaction
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID() != tx.ID() {
		t.Error("JSON round trip changed the ID")
	}
}
