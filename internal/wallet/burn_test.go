package wallet

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBurnNft_StillOwnsOutputs(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	nftID := types.NftID{0x11}

	client.add(addr, nftOutput(t, 1_000_000, nftID, addr))
	owned1 := client.add(nftID.ToAddress(), basicOutput(t, 500_000, nftID.ToAddress()))
	owned2 := client.add(nftID.ToAddress(), basicOutput(t, 700_000, nftID.ToAddress()))
	client.add(addr, basicOutput(t, 2_000_000, addr))
	syncAccount(t, acc)

	_, err := acc.BurnNft(context.Background(), nftID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBurningOrMeltingFailed)

	var owns *StillOwnsOutputsError
	require.True(t, errors.As(err, &owns))
	want := []types.OutputID{owned1, owned2}
	sort.Slice(want, func(i, j int) bool { return bytes.Compare(want[i][:], want[j][:]) < 0 })
	assert.Equal(t, nftID, owns.NftID)
	assert.Equal(t, want, owns.OutputIDs)
	assert.Zero(t, client.submissions())
	assert.Empty(t, acc.PendingTransactions())
}

func TestBurnNft_IgnoresOutputsNotUnlockableNow(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	nftID := types.NftID{0x12}
	nftAddr := nftID.ToAddress()

	nftOutID := client.add(addr, nftOutput(t, 1_000_000, nftID, addr))
	client.add(nftAddr, basicOutput(t, 500_000, nftAddr,
		output.ExpirationUnlockCondition{ReturnAddress: addrB, Timestamp: testNow - 10}))
	client.add(nftAddr, basicOutput(t, 600_000, nftAddr,
		output.TimelockUnlockCondition{Timestamp: testNow + 100}))
	syncAccount(t, acc)
	require.Len(t, acc.UnspentOutputs(), 3)

	record, err := acc.BurnNft(context.Background(), nftID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, client.submissions())
	assert.Equal(t, []types.OutputID{nftOutID}, record.Payload.Essence.InputOutputIDs())
}

func TestBurnNft_NotFound(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	client.add(addr, basicOutput(t, 2_000_000, addr))
	syncAccount(t, acc)

	_, err := acc.BurnNft(context.Background(), types.NftID{0x99}, nil)
	assert.ErrorIs(t, err, ErrNftNotFoundInUnspentOutputs)
	assert.Zero(t, client.submissions())
}

func TestBurnNft(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	nftID := types.NftID{0x22}
	nftOutID := client.add(addr, nftOutput(t, 1_000_000, nftID, addr))
	syncAccount(t, acc)

	record, err := acc.BurnNft(context.Background(), nftID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, client.submissions())

	essence := record.Payload.Essence
	assert.Equal(t, []types.OutputID{nftOutID}, essence.InputOutputIDs())
	require.Len(t, essence.Outputs, 1)
	basic, ok := essence.Outputs[0].(*output.BasicOutput)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000_000), basic.Amount())
	owner, _ := output.OwnerAddress(basic)
	assert.Equal(t, addr, owner)

	assert.Contains(t, acc.PendingTransactions(), *record)
	_, locked := acc.Details().LockedOutputs[nftOutID]
	assert.True(t, locked)
}

func TestBurnNativeToken(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	tokenID := types.TokenID{0x08, 0x33}
	out, err := output.NewBasicOutputBuilder(1_000_000).
		AddNativeToken(output.NativeToken{ID: tokenID, Amount: uint256.NewInt(100)}).
		AddUnlockCondition(output.AddressUnlockCondition{Address: addr}).
		Finish(testSupply)
	require.NoError(t, err)
	client.add(addr, out)
	syncAccount(t, acc)

	record, err := acc.BurnNativeToken(context.Background(), tokenID, uint256.NewInt(40), nil)
	require.NoError(t, err)

	outputs := record.Payload.Essence.Outputs
	require.Len(t, outputs, 1)
	left := outputs[0].NativeTokens().Get(tokenID)
	require.NotNil(t, left)
	assert.Equal(t, uint64(60), left.Uint64())
	assert.Equal(t, uint64(1_000_000), outputs[0].Amount())

	_, err = acc.BurnNativeToken(context.Background(), tokenID, uint256.NewInt(1_000), nil)
	assert.ErrorIs(t, err, ErrNativeTokenNotFound)
}
