package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/internal/secret"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_ExpirationScenario(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	id := client.add(addr, basicOutput(t, 1_000_000, addr,
		output.ExpirationUnlockCondition{ReturnAddress: addrB, Timestamp: testNow + 20}))

	balance := syncAccount(t, acc)
	assert.Equal(t, uint64(1_000_000), balance.BaseCoin.Total)
	assert.Equal(t, uint64(1_000_000), balance.BaseCoin.Available)
	assert.Equal(t, map[types.OutputID]bool{id: true}, balance.PotentiallyLockedOutputs)

	rent := output.DefaultRentStructure()
	later, err := acc.BalanceAt(testNow+20, rent)
	require.NoError(t, err)
	assert.Zero(t, later.BaseCoin.Total)
	assert.False(t, later.PotentiallyLockedOutputs[id])
}

func TestBalance_StorageDepositReturnOwedElsewhere(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	client.add(addr, basicOutput(t, 1_000_000, addr,
		output.StorageDepositReturnUnlockCondition{ReturnAddress: addrB, Amount: 100_000}))
	client.add(addr, basicOutput(t, 500_000, addr))

	balance := syncAccount(t, acc)
	assert.Equal(t, uint64(1_400_000), balance.BaseCoin.Total)
	assert.NotZero(t, balance.RequiredStorageDeposit.Basic)
}

func TestBalance_VanishedOutputsAreSpent(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	keep := client.add(addr, basicOutput(t, 1_000_000, addr))
	gone := client.add(addr, basicOutput(t, 2_000_000, addr))
	syncAccount(t, acc)

	client.spend(gone)
	balance := syncAccount(t, acc)
	assert.Equal(t, uint64(1_000_000), balance.BaseCoin.Total)

	_, ok := acc.UnspentOutput(keep)
	assert.True(t, ok)
	_, ok = acc.UnspentOutput(gone)
	assert.False(t, ok)
	assert.Len(t, acc.Outputs(), 2)
}

func TestLedgerNanoStatus_Unsupported(t *testing.T) {
	store := storage.NewManager(storage.NewMemory(), zerolog.Nop())
	w := newTestWallet(t, newFakeClient(), store, testOptions())
	_, err := w.LedgerNanoStatus(context.Background())
	assert.True(t, errors.Is(err, secret.ErrUnsupported))
}
