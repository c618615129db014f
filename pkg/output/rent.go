package output

import "fmt"

// Byte sizes the storage deposit offset is computed from: the output ID
// (key) plus the block ID, milestone index and milestone timestamp stored
// with every output (data).
const (
	rentKeySize  = 34
	rentDataSize = 32 + 4 + 4
)

// RentStructure is the protocol's storage deposit schedule.
type RentStructure struct {
	VByteCost       uint32 `json:"vByteCost"`
	VByteFactorKey  uint8  `json:"vByteFactorKey"`
	VByteFactorData uint8  `json:"vByteFactorData"`
}

// DefaultRentStructure returns the default protocol rent schedule.
func DefaultRentStructure() RentStructure {
	return RentStructure{
		VByteCost:       100,
		VByteFactorKey:  10,
		VByteFactorData: 1,
	}
}

// MinimumStorageDeposit returns the smallest amount out must carry.
// The result depends only on the serialized size of out.
func (r RentStructure) MinimumStorageDeposit(out Output) uint64 {
	if out.Kind() == KindTreasury {
		return 0
	}
	offset := uint64(r.VByteFactorKey)*rentKeySize + uint64(r.VByteFactorData)*rentDataSize
	weighted := uint64(r.VByteFactorData) * uint64(len(out.Bytes()))
	return uint64(r.VByteCost) * (offset + weighted)
}

// VerifyStorageDeposit checks that out carries at least its minimum storage
// deposit and that a storage deposit return, if present, covers the deposit
// of the basic output it requires.
func VerifyStorageDeposit(out Output, rent RentStructure, tokenSupply uint64) error {
	required := rent.MinimumStorageDeposit(out)
	if out.Amount() < required {
		return fmt.Errorf("%w: amount %d, required %d", ErrInsufficientStorageDeposit, out.Amount(), required)
	}
	sdr, ok := out.UnlockConditions().StorageDepositReturn()
	if !ok {
		return nil
	}
	ret, err := NewBasicOutputBuilderWithMinimumStorageDeposit(rent).
		AddUnlockCondition(AddressUnlockCondition{Address: sdr.ReturnAddress}).
		Finish(tokenSupply)
	if err != nil {
		return err
	}
	if sdr.Amount < ret.Amount() {
		return fmt.Errorf("%w: storage deposit return %d, required %d", ErrInsufficientStorageDeposit, sdr.Amount, ret.Amount())
	}
	return nil
}
