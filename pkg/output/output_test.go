package output

import (
	"errors"
	"math"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSupply uint64 = 1_813_620_509_061_365

func testAddr(b byte) types.Address {
	var h [types.AddressHashSize]byte
	h[0] = b
	return types.NewEd25519Address(h)
}

func testAliasID(b byte) types.AliasID {
	var id types.AliasID
	id[31] = b
	return id
}

func testTokenID(serial uint32) types.TokenID {
	return types.NewFoundryID(testAliasID(9).ToAddress(), serial, TokenSchemeSimple).TokenID()
}

func TestBasicOutputBuilder_Validation(t *testing.T) {
	addr := AddressUnlockCondition{Address: testAddr(1)}

	tests := []struct {
		name string
		b    *BasicOutputBuilder
		want error
	}{
		{"missing address", NewBasicOutputBuilder(100), ErrMissingUnlockCondition},
		{"zero amount", NewBasicOutputBuilder(0).AddUnlockCondition(addr), ErrAmountBelowMinimum},
		{"above supply", NewBasicOutputBuilder(testSupply + 1).AddUnlockCondition(addr), ErrAmountExceedsTokenSupply},
		{
			"disallowed condition",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).
				AddUnlockCondition(StateControllerAddressUnlockCondition{Address: testAddr(2)}),
			ErrDisallowedUnlockCondition,
		},
		{
			"duplicate condition",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).AddUnlockCondition(addr),
			ErrDuplicateUnlockCondition,
		},
		{
			"disallowed feature",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).AddFeature(IssuerFeature{Address: testAddr(2)}),
			ErrDisallowedFeature,
		},
		{
			"tag too long",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).AddFeature(TagFeature{Tag: make([]byte, TagFeatureMaxLength+1)}),
			ErrInvalidFeature,
		},
		{
			"empty metadata",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).AddFeature(MetadataFeature{}),
			ErrInvalidFeature,
		},
		{
			"zero timelock",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).AddUnlockCondition(TimelockUnlockCondition{}),
			ErrInvalidUnlockCondition,
		},
		{
			"return exceeds amount",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).
				AddUnlockCondition(StorageDepositReturnUnlockCondition{ReturnAddress: testAddr(3), Amount: 101}),
			ErrInvalidUnlockCondition,
		},
		{
			"zero native token",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).
				AddNativeToken(NativeToken{ID: testTokenID(1), Amount: uint256.NewInt(0)}),
			ErrZeroNativeTokenAmount,
		},
		{
			"duplicate native token",
			NewBasicOutputBuilder(100).AddUnlockCondition(addr).
				AddNativeToken(NativeToken{ID: testTokenID(1), Amount: uint256.NewInt(1)}).
				AddNativeToken(NativeToken{ID: testTokenID(1), Amount: uint256.NewInt(2)}),
			ErrDuplicateNativeToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Finish(testSupply)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBasicOutputBuilder_SortsAndCopies(t *testing.T) {
	tag := []byte("tag")
	out, err := NewBasicOutputBuilder(1000).
		AddFeature(TagFeature{Tag: tag}).
		AddUnlockCondition(TimelockUnlockCondition{Timestamp: 50}).
		AddUnlockCondition(AddressUnlockCondition{Address: testAddr(1)}).
		AddNativeToken(NativeToken{ID: testTokenID(2), Amount: uint256.NewInt(5)}).
		AddNativeToken(NativeToken{ID: testTokenID(1), Amount: uint256.NewInt(7)}).
		Finish(testSupply)
	require.NoError(t, err)

	conds := out.UnlockConditions()
	require.Len(t, conds, 2)
	assert.Equal(t, UnlockAddress, conds[0].Kind())
	assert.Equal(t, UnlockTimelock, conds[1].Kind())

	nts := out.NativeTokens()
	require.Len(t, nts, 2)
	assert.Equal(t, testTokenID(1), nts[0].ID)

	tag[0] = 'X'
	got, ok := out.Features().Tag()
	require.True(t, ok)
	assert.Equal(t, []byte("tag"), got.Tag)
	assert.False(t, out.IsSimpleTransfer())
}

func TestNftOutputBuilder_SelfDeposit(t *testing.T) {
	var id types.NftID
	id[0] = 1
	_, err := NewNftOutputBuilder(100, id).
		AddUnlockCondition(AddressUnlockCondition{Address: id.ToAddress()}).
		Finish(testSupply)
	require.ErrorIs(t, err, ErrSelfDeposit)
}

func TestNftOutputBuilder_ImmutableFeatures(t *testing.T) {
	out, err := NewNftOutputBuilder(100, types.NftID{}).
		AddUnlockCondition(AddressUnlockCondition{Address: testAddr(1)}).
		AddImmutableFeature(IssuerFeature{Address: testAddr(2)}).
		AddImmutableFeature(MetadataFeature{Data: []byte("{}")}).
		Finish(testSupply)
	require.NoError(t, err)
	issuer, ok := out.ImmutableFeatures().Issuer()
	require.True(t, ok)
	assert.Equal(t, testAddr(2), issuer.Address)

	_, err = NewNftOutputBuilder(100, types.NftID{}).
		AddUnlockCondition(AddressUnlockCondition{Address: testAddr(1)}).
		AddImmutableFeature(TagFeature{Tag: []byte("t")}).
		Finish(testSupply)
	require.ErrorIs(t, err, ErrDisallowedFeature)
}

func TestAliasOutputBuilder(t *testing.T) {
	state := StateControllerAddressUnlockCondition{Address: testAddr(1)}
	gov := GovernorAddressUnlockCondition{Address: testAddr(2)}

	_, err := NewAliasOutputBuilder(100, types.AliasID{}).AddUnlockCondition(state).Finish(testSupply)
	require.ErrorIs(t, err, ErrMissingUnlockCondition)

	_, err = NewAliasOutputBuilder(100, types.AliasID{}).
		AddUnlockCondition(state).AddUnlockCondition(gov).
		WithStateIndex(1).
		Finish(testSupply)
	require.ErrorIs(t, err, ErrNonZeroStateOnCreation)

	id := testAliasID(4)
	_, err = NewAliasOutputBuilder(100, id).
		AddUnlockCondition(StateControllerAddressUnlockCondition{Address: id.ToAddress()}).
		AddUnlockCondition(gov).
		Finish(testSupply)
	require.ErrorIs(t, err, ErrSelfDeposit)

	out, err := NewAliasOutputBuilder(100, id).
		AddUnlockCondition(state).AddUnlockCondition(gov).
		WithStateIndex(3).WithFoundryCounter(2).
		Finish(testSupply)
	require.NoError(t, err)
	assert.Equal(t, testAddr(1), out.StateControllerAddress())
	assert.Equal(t, testAddr(2), out.GovernorAddress())

	ids := out.FoundryIDs(types.OutputID{}, 0)
	require.Len(t, ids, 2)
	assert.Equal(t, uint32(1), ids[0].SerialNumber())
	assert.Equal(t, uint32(2), ids[1].SerialNumber())
	assert.Equal(t, id.ToAddress(), ids[1].AliasAddress())
}

func TestAliasFoundryIDs_MaxCounter(t *testing.T) {
	id := testAliasID(5)
	out, err := NewAliasOutputBuilder(100, id).
		AddUnlockCondition(StateControllerAddressUnlockCondition{Address: testAddr(1)}).
		AddUnlockCondition(GovernorAddressUnlockCondition{Address: testAddr(2)}).
		WithStateIndex(1).WithFoundryCounter(math.MaxUint32).
		Finish(testSupply)
	require.NoError(t, err)

	ids := out.FoundryIDs(types.OutputID{}, 3)
	require.Len(t, ids, 3)
	assert.Equal(t, uint32(1), ids[0].SerialNumber())
	assert.Equal(t, uint32(3), ids[2].SerialNumber())
}

func TestAliasFoundryIDs_LimitAboveCounter(t *testing.T) {
	out, err := NewAliasOutputBuilder(100, testAliasID(6)).
		AddUnlockCondition(StateControllerAddressUnlockCondition{Address: testAddr(1)}).
		AddUnlockCondition(GovernorAddressUnlockCondition{Address: testAddr(2)}).
		WithStateIndex(1).WithFoundryCounter(1).
		Finish(testSupply)
	require.NoError(t, err)
	assert.Len(t, out.FoundryIDs(types.OutputID{}, 10), 1)
}

func TestFoundryOutputBuilder(t *testing.T) {
	_, err := NewSimpleTokenScheme(uint256.NewInt(5), uint256.NewInt(6), uint256.NewInt(10))
	require.ErrorIs(t, err, ErrInvalidTokenScheme)
	_, err = NewSimpleTokenScheme(uint256.NewInt(11), uint256.NewInt(0), uint256.NewInt(10))
	require.ErrorIs(t, err, ErrInvalidTokenScheme)

	scheme, err := NewSimpleTokenScheme(uint256.NewInt(10), uint256.NewInt(3), uint256.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), scheme.CirculatingSupply().Uint64())

	_, err = NewFoundryOutputBuilder(100, 1, scheme).
		AddUnlockCondition(ImmutableAliasAddressUnlockCondition{Address: testAddr(1)}).
		Finish(testSupply)
	require.ErrorIs(t, err, ErrInvalidUnlockCondition)

	aliasAddr := testAliasID(9).ToAddress()
	out, err := NewFoundryOutputBuilder(100, 1, scheme).
		AddUnlockCondition(ImmutableAliasAddressUnlockCondition{Address: aliasAddr}).
		Finish(testSupply)
	require.NoError(t, err)
	assert.Equal(t, aliasAddr, out.AliasAddress())
	assert.Equal(t, testTokenID(1), out.TokenID())
}

func TestRentStructure(t *testing.T) {
	rent := DefaultRentStructure()
	out, err := NewBasicOutputBuilderWithMinimumStorageDeposit(rent).
		AddUnlockCondition(AddressUnlockCondition{Address: testAddr(1)}).
		Finish(testSupply)
	require.NoError(t, err)

	// kind + amount + token count + condition count + address condition + feature count
	assert.Len(t, out.Bytes(), 1+8+1+1+(1+33)+1)
	assert.Equal(t, uint64(42500), out.Amount())
	assert.Equal(t, out.Amount(), rent.MinimumStorageDeposit(out))
	require.NoError(t, VerifyStorageDeposit(out, rent, testSupply))

	short, err := NewBasicOutputBuilder(out.Amount()-1).
		AddUnlockCondition(AddressUnlockCondition{Address: testAddr(1)}).
		Finish(testSupply)
	require.NoError(t, err)
	require.ErrorIs(t, VerifyStorageDeposit(short, rent, testSupply), ErrInsufficientStorageDeposit)

	treasury, err := NewTreasuryOutput(5, testSupply)
	require.NoError(t, err)
	assert.Zero(t, rent.MinimumStorageDeposit(treasury))
}

func TestUnlockConditions_Time(t *testing.T) {
	out, err := NewBasicOutputBuilder(100).
		AddUnlockCondition(AddressUnlockCondition{Address: testAddr(1)}).
		AddUnlockCondition(TimelockUnlockCondition{Timestamp: 100}).
		AddUnlockCondition(ExpirationUnlockCondition{ReturnAddress: testAddr(2), Timestamp: 200}).
		Finish(testSupply)
	require.NoError(t, err)
	conds := out.UnlockConditions()

	assert.True(t, conds.IsTimelocked(99))
	assert.False(t, conds.IsTimelocked(100))
	assert.False(t, conds.IsExpired(199))
	assert.True(t, conds.IsExpired(200))
	assert.Equal(t, testAddr(1), conds.LockedAddress(testAddr(1), 150))
	assert.Equal(t, testAddr(2), conds.LockedAddress(testAddr(1), 200))
	assert.True(t, conds.HasTimeDependence())
}

func sampleOutputs(t *testing.T) []Output {
	t.Helper()
	basic, err := NewBasicOutputBuilder(1000).
		AddUnlockCondition(AddressUnlockCondition{Address: testAddr(1)}).
		AddUnlockCondition(StorageDepositReturnUnlockCondition{ReturnAddress: testAddr(2), Amount: 500}).
		AddUnlockCondition(ExpirationUnlockCondition{ReturnAddress: testAddr(2), Timestamp: 77}).
		AddFeature(MetadataFeature{Data: []byte("hello")}).
		AddFeature(TagFeature{Tag: []byte("t")}).
		AddFeature(SenderFeature{Address: testAddr(3)}).
		AddNativeToken(NativeToken{ID: testTokenID(1), Amount: new(uint256.Int).Lsh(uint256.NewInt(1), 200)}).
		Finish(testSupply)
	require.NoError(t, err)

	alias, err := NewAliasOutputBuilder(2000, testAliasID(4)).
		WithStateIndex(3).WithStateMetadata([]byte{1, 2, 3}).WithFoundryCounter(1).
		AddUnlockCondition(StateControllerAddressUnlockCondition{Address: testAddr(1)}).
		AddUnlockCondition(GovernorAddressUnlockCondition{Address: testAddr(2)}).
		AddImmutableFeature(IssuerFeature{Address: testAddr(5)}).
		Finish(testSupply)
	require.NoError(t, err)

	scheme, err := NewSimpleTokenScheme(uint256.NewInt(100), uint256.NewInt(1), uint256.NewInt(1000))
	require.NoError(t, err)
	foundry, err := NewFoundryOutputBuilder(3000, 1, scheme).
		AddUnlockCondition(ImmutableAliasAddressUnlockCondition{Address: testAliasID(4).ToAddress()}).
		AddImmutableFeature(MetadataFeature{Data: []byte(`{"standard":"IRC30"}`)}).
		Finish(testSupply)
	require.NoError(t, err)

	var nftID types.NftID
	nftID[5] = 5
	nft, err := NewNftOutputBuilder(4000, nftID).
		AddUnlockCondition(AddressUnlockCondition{Address: testAddr(1)}).
		AddUnlockCondition(TimelockUnlockCondition{Timestamp: 12}).
		AddImmutableFeature(MetadataFeature{Data: []byte("nft")}).
		Finish(testSupply)
	require.NoError(t, err)

	treasury, err := NewTreasuryOutput(99, testSupply)
	require.NoError(t, err)

	return []Output{basic, alias, foundry, nft, treasury}
}

func TestFromBytes_RoundTrip(t *testing.T) {
	for _, out := range sampleOutputs(t) {
		t.Run(out.Kind().String(), func(t *testing.T) {
			data := out.Bytes()
			got, err := FromBytes(data, testSupply)
			require.NoError(t, err)
			assert.Equal(t, out.Kind(), got.Kind())
			assert.Equal(t, data, got.Bytes())
		})
	}
}

func TestFromBytes_Errors(t *testing.T) {
	out := sampleOutputs(t)[0]
	data := out.Bytes()

	_, err := FromBytes(append(data, 0), testSupply)
	require.ErrorIs(t, err, ErrTrailingBytes)

	_, err = FromBytes(data[:len(data)-1], testSupply)
	require.ErrorIs(t, err, types.ErrInvalidField)

	_, err = FromBytes([]byte{9}, testSupply)
	require.ErrorIs(t, err, types.ErrInvalidField)

	_, err = FromBytes(data, 10)
	require.ErrorIs(t, err, ErrAmountExceedsTokenSupply)
}

func TestDTO_RoundTrip(t *testing.T) {
	for _, out := range sampleOutputs(t) {
		t.Run(out.Kind().String(), func(t *testing.T) {
			data, err := MarshalOutput(out)
			require.NoError(t, err)
			got, err := UnmarshalOutput(data)
			require.NoError(t, err)
			assert.Equal(t, out.Bytes(), got.Bytes())
		})
	}
}

func TestDTO_ConcreteJSON(t *testing.T) {
	foundry := sampleOutputs(t)[2].(*FoundryOutput)
	data, err := json.Marshal(map[string]*FoundryOutput{"f": foundry})
	require.NoError(t, err)

	var decoded map[string]*FoundryOutput
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, foundry.Bytes(), decoded["f"].Bytes())

	var wrong BasicOutput
	require.ErrorIs(t, json.Unmarshal(data[len(`{"f":`):len(data)-1], &wrong), types.ErrInvalidField)
}

func TestFromDTO_FieldErrors(t *testing.T) {
	dto := ToDTO(sampleOutputs(t)[1])
	dto.AliasID = "0x1234"
	_, err := FromDTO(dto, testSupply)

	var fieldErr *types.InvalidFieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "aliasId", fieldErr.Field)

	dto = ToDTO(sampleOutputs(t)[0])
	dto.UnlockConditions[0].Address.PubKeyHash = "nothex"
	_, err = FromDTO(dto, testSupply)
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "pubKeyHash", fieldErr.Field)

	dto.Amount = "-1"
	_, err = FromDTO(dto, testSupply)
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "amount", fieldErr.Field)
}

func TestParseU256Hex(t *testing.T) {
	x, err := ParseU256Hex("amount", "0x000a")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), x.Uint64())

	x, err = ParseU256Hex("amount", "0x0")
	require.NoError(t, err)
	assert.True(t, x.IsZero())

	_, err = ParseU256Hex("amount", "10")
	require.ErrorIs(t, err, types.ErrInvalidField)
}

func TestNativeTokensBuilder(t *testing.T) {
	b := NativeTokensBuilder{}
	require.NoError(t, b.Add(testTokenID(1), uint256.NewInt(3)))
	require.NoError(t, b.Add(testTokenID(1), uint256.NewInt(4)))
	require.NoError(t, b.Add(testTokenID(2), uint256.NewInt(0)))

	full := new(uint256.Int).SetAllOne()
	require.NoError(t, b.Add(testTokenID(3), full))
	require.ErrorIs(t, b.Add(testTokenID(3), uint256.NewInt(1)), ErrNativeTokenOverflow)

	nts, err := b.Finish()
	require.NoError(t, err)
	require.Len(t, nts, 2)
	assert.Equal(t, uint64(7), nts.Get(testTokenID(1)).Uint64())
	assert.Nil(t, nts.Get(testTokenID(2)))
}
