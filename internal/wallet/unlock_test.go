package wallet

import (
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = types.Address{Kind: types.AddressEd25519, Hash: [32]byte{0x0a}}
	addrB = types.Address{Kind: types.AddressEd25519, Hash: [32]byte{0x0b}}
)

func TestCanUnlockNow_ExpirationHandsOver(t *testing.T) {
	const now = uint32(1_000)
	out := basicOutput(t, 1_000_000, addrA, output.ExpirationUnlockCondition{ReturnAddress: addrB, Timestamp: now + 20})

	ownsA := types.NewAddressSet(addrA)
	ownsB := types.NewAddressSet(addrB)

	assert.True(t, CanUnlockNow(ownsA, nil, out, now, nil))
	assert.False(t, CanUnlockNow(ownsB, nil, out, now, nil))

	assert.False(t, CanUnlockNow(ownsA, nil, out, now+20, nil))
	assert.True(t, CanUnlockNow(ownsB, nil, out, now+20, nil))

	for ts := now; ts < now+40; ts++ {
		a := CanUnlockNow(ownsA, nil, out, ts, nil)
		b := CanUnlockNow(ownsB, nil, out, ts, nil)
		assert.True(t, a != b, "at %d exactly one of A and B must unlock (A=%v B=%v)", ts, a, b)
	}
}

func TestCanUnlockNow_Timelock(t *testing.T) {
	out := basicOutput(t, 1_000_000, addrA, output.TimelockUnlockCondition{Timestamp: 500})
	owned := types.NewAddressSet(addrA)

	assert.False(t, CanUnlockNow(owned, nil, out, 499, nil))
	assert.True(t, CanUnlockNow(owned, nil, out, 500, nil))

	_, ok := EffectiveAddress(out, 499, nil)
	assert.False(t, ok)
}

func TestCanUnlockNow_DerivedAddress(t *testing.T) {
	nftID := types.NftID{0x42}
	out := basicOutput(t, 1_000_000, nftID.ToAddress())

	assert.False(t, CanUnlockNow(types.NewAddressSet(addrA), nil, out, 0, nil))
	assert.True(t, CanUnlockNow(types.NewAddressSet(addrA), types.NewAddressSet(nftID.ToAddress()), out, 0, nil))
}

func TestEffectiveAddress_AliasTransitions(t *testing.T) {
	out, err := output.NewAliasOutputBuilder(1_000_000, types.AliasID{0x01}).
		AddUnlockCondition(output.StateControllerAddressUnlockCondition{Address: addrA}).
		AddUnlockCondition(output.GovernorAddressUnlockCondition{Address: addrB}).
		Finish(testSupply)
	require.NoError(t, err)

	addr, ok := EffectiveAddress(out, 0, nil)
	require.True(t, ok)
	assert.Equal(t, addrA, addr)

	governance := AliasGovernanceTransition
	addr, ok = EffectiveAddress(out, 0, &governance)
	require.True(t, ok)
	assert.Equal(t, addrB, addr)
}
