package wallet

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAliasID = types.AliasID{0x77}

func foundryOutput(t *testing.T, serial uint32) *output.FoundryOutput {
	t.Helper()
	scheme, err := output.NewSimpleTokenScheme(uint256.NewInt(100), uint256.NewInt(0), uint256.NewInt(1_000))
	require.NoError(t, err)
	f, err := output.NewFoundryOutputBuilder(1_000_000, serial, scheme).
		AddUnlockCondition(output.ImmutableAliasAddressUnlockCondition{Address: testAliasID.ToAddress()}).
		Finish(testSupply)
	require.NoError(t, err)
	return f
}

func aliasOutput(t *testing.T, controller types.Address, foundries uint32) output.Output {
	t.Helper()
	out, err := output.NewAliasOutputBuilder(1_000_000, testAliasID).
		WithFoundryCounter(foundries).
		AddUnlockCondition(output.StateControllerAddressUnlockCondition{Address: controller}).
		AddUnlockCondition(output.GovernorAddressUnlockCondition{Address: controller}).
		Finish(testSupply)
	require.NoError(t, err)
	return out
}

func TestRequestAndStoreFoundryOutputs_Idempotent(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	f1, f2 := foundryOutput(t, 1), foundryOutput(t, 2)
	client.add(testAliasID.ToAddress(), f1)
	client.add(testAliasID.ToAddress(), f2)

	ctx := context.Background()
	ids := []types.FoundryID{f1.ID(), f2.ID(), f1.ID()}
	require.NoError(t, acc.RequestAndStoreFoundryOutputs(ctx, ids))
	assert.Equal(t, 2, client.foundryLookups())
	assert.Len(t, acc.NativeTokenFoundries(), 2)

	require.NoError(t, acc.RequestAndStoreFoundryOutputs(ctx, ids))
	assert.Equal(t, 2, client.foundryLookups(), "cached foundries must not be looked up again")
}

func TestRequestAndStoreFoundryOutputs_LenientSkipsUnknown(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	f1 := foundryOutput(t, 1)
	client.add(testAliasID.ToAddress(), f1)
	unknown := foundryOutput(t, 9).ID()

	require.NoError(t, acc.RequestAndStoreFoundryOutputs(context.Background(), []types.FoundryID{f1.ID(), unknown}))
	foundries := acc.NativeTokenFoundries()
	assert.Len(t, foundries, 1)
	assert.Contains(t, foundries, f1.ID())
}

func TestRequestAndStoreFoundryOutputs_StrictIsAllOrNothing(t *testing.T) {
	opts := testOptions()
	opts.StrictFoundryLookups = true
	acc, client := newTestAccount(t, opts)
	f1 := foundryOutput(t, 1)
	client.add(testAliasID.ToAddress(), f1)
	unknown := foundryOutput(t, 9).ID()

	err := acc.RequestAndStoreFoundryOutputs(context.Background(), []types.FoundryID{f1.ID(), unknown})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.Empty(t, acc.NativeTokenFoundries())
}

func TestRequestAndStoreFoundryOutputs_TransportError(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	client.add(testAliasID.ToAddress(), foundryOutput(t, 1))
	boom := errors.New("connection reset")
	client.foundryErr = boom

	err := acc.RequestAndStoreFoundryOutputs(context.Background(), []types.FoundryID{foundryOutput(t, 1).ID()})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, acc.NativeTokenFoundries())
}

func TestSync_DiscoversFoundriesOnce(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	client.add(addr, aliasOutput(t, addr, 2))
	client.add(testAliasID.ToAddress(), foundryOutput(t, 1))
	client.add(testAliasID.ToAddress(), foundryOutput(t, 2))

	balance := syncAccount(t, acc)
	assert.Equal(t, 2, client.foundryLookups())
	assert.Len(t, acc.NativeTokenFoundries(), 2)
	assert.Equal(t, []types.AliasID{testAliasID}, balance.Aliases)
	assert.Len(t, balance.Foundries, 2)

	syncAccount(t, acc)
	assert.Equal(t, 2, client.foundryLookups())
}

func TestSync_CapsAliasFoundryLookups(t *testing.T) {
	acc, client := newTestAccount(t, testOptions())
	addr := firstAddress(t, acc)
	client.add(addr, aliasOutput(t, addr, math.MaxUint32))
	client.add(testAliasID.ToAddress(), foundryOutput(t, 1))

	syncAccount(t, acc)
	assert.Equal(t, maxAliasFoundryLookups, client.foundryLookups())
	assert.Len(t, acc.NativeTokenFoundries(), 1)
}
