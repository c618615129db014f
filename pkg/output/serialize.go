package output

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
	"github.com/iotaledger/hive.go/marshalutil"
)

// Binary layout (little-endian):
//
//	kind(1) | amount(8) | native tokens | kind-specific fields |
//	unlock conditions | features | immutable features
//
// Lists are prefixed with a one-byte count and sorted by kind or ID.

// Bytes implements Output.
func (o *BasicOutput) Bytes() []byte {
	m := marshalutil.New()
	m.WriteByte(byte(KindBasic))
	m.WriteUint64(o.amount)
	writeNativeTokens(m, o.nativeTokens)
	writeUnlockConditions(m, o.unlockConditions)
	writeFeatures(m, o.features)
	return m.Bytes()
}

// Bytes implements Output.
func (o *AliasOutput) Bytes() []byte {
	m := marshalutil.New()
	m.WriteByte(byte(KindAlias))
	m.WriteUint64(o.amount)
	writeNativeTokens(m, o.nativeTokens)
	m.WriteBytes(o.aliasID[:])
	m.WriteUint32(o.stateIndex)
	m.WriteUint16(uint16(len(o.stateMetadata)))
	m.WriteBytes(o.stateMetadata)
	m.WriteUint32(o.foundryCounter)
	writeUnlockConditions(m, o.unlockConditions)
	writeFeatures(m, o.features)
	writeFeatures(m, o.immutableFeatures)
	return m.Bytes()
}

// Bytes implements Output.
func (o *FoundryOutput) Bytes() []byte {
	m := marshalutil.New()
	m.WriteByte(byte(KindFoundry))
	m.WriteUint64(o.amount)
	writeNativeTokens(m, o.nativeTokens)
	m.WriteUint32(o.serialNumber)
	m.WriteByte(o.tokenScheme.Kind())
	writeU256(m, o.tokenScheme.minted)
	writeU256(m, o.tokenScheme.melted)
	writeU256(m, o.tokenScheme.maximum)
	writeUnlockConditions(m, o.unlockConditions)
	writeFeatures(m, o.features)
	writeFeatures(m, o.immutableFeatures)
	return m.Bytes()
}

// Bytes implements Output.
func (o *NftOutput) Bytes() []byte {
	m := marshalutil.New()
	m.WriteByte(byte(KindNft))
	m.WriteUint64(o.amount)
	writeNativeTokens(m, o.nativeTokens)
	m.WriteBytes(o.nftID[:])
	writeUnlockConditions(m, o.unlockConditions)
	writeFeatures(m, o.features)
	writeFeatures(m, o.immutableFeatures)
	return m.Bytes()
}

// Bytes implements Output.
func (o *TreasuryOutput) Bytes() []byte {
	m := marshalutil.New()
	m.WriteByte(byte(KindTreasury))
	m.WriteUint64(o.amount)
	return m.Bytes()
}

func writeAddress(m *marshalutil.MarshalUtil, a types.Address) {
	m.WriteBytes(a.Bytes())
}

// writeU256 writes a 256-bit integer as 32 little-endian bytes.
func writeU256(m *marshalutil.MarshalUtil, x *uint256.Int) {
	be := x.Bytes32()
	for i, j := 0, len(be)-1; i < j; i, j = i+1, j-1 {
		be[i], be[j] = be[j], be[i]
	}
	m.WriteBytes(be[:])
}

func writeNativeTokens(m *marshalutil.MarshalUtil, nts NativeTokens) {
	m.WriteByte(byte(len(nts)))
	for _, nt := range nts {
		m.WriteBytes(nt.ID[:])
		writeU256(m, nt.Amount)
	}
}

func writeUnlockConditions(m *marshalutil.MarshalUtil, conds UnlockConditions) {
	m.WriteByte(byte(len(conds)))
	for _, c := range conds {
		m.WriteByte(byte(c.Kind()))
		switch uc := c.(type) {
		case AddressUnlockCondition:
			writeAddress(m, uc.Address)
		case StorageDepositReturnUnlockCondition:
			writeAddress(m, uc.ReturnAddress)
			m.WriteUint64(uc.Amount)
		case TimelockUnlockCondition:
			m.WriteUint32(uc.Timestamp)
		case ExpirationUnlockCondition:
			writeAddress(m, uc.ReturnAddress)
			m.WriteUint32(uc.Timestamp)
		case StateControllerAddressUnlockCondition:
			writeAddress(m, uc.Address)
		case GovernorAddressUnlockCondition:
			writeAddress(m, uc.Address)
		case ImmutableAliasAddressUnlockCondition:
			writeAddress(m, uc.Address)
		}
	}
}

func writeFeatures(m *marshalutil.MarshalUtil, features Features) {
	m.WriteByte(byte(len(features)))
	for _, f := range features {
		m.WriteByte(byte(f.Kind()))
		switch ft := f.(type) {
		case SenderFeature:
			writeAddress(m, ft.Address)
		case IssuerFeature:
			writeAddress(m, ft.Address)
		case MetadataFeature:
			m.WriteUint16(uint16(len(ft.Data)))
			m.WriteBytes(ft.Data)
		case TagFeature:
			m.WriteByte(byte(len(ft.Tag)))
			m.WriteBytes(ft.Tag)
		}
	}
}

// FromBytes decodes a serialized output and validates it against tokenSupply.
func FromBytes(data []byte, tokenSupply uint64) (Output, error) {
	m := marshalutil.New(data)
	out, err := ReadOutput(m, tokenSupply)
	if err != nil {
		return nil, err
	}
	if m.ReadOffset() != len(data) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(data)-m.ReadOffset())
	}
	return out, nil
}

// ReadOutput decodes one output from m. Every decoded output passes through
// its builder, so decoding enforces the same rules as construction.
func ReadOutput(m *marshalutil.MarshalUtil, tokenSupply uint64) (Output, error) {
	kind, err := m.ReadByte()
	if err != nil {
		return nil, types.InvalidField("type", err)
	}
	if Kind(kind) == KindTreasury {
		amount, err := m.ReadUint64()
		if err != nil {
			return nil, types.InvalidField("amount", err)
		}
		return NewTreasuryOutput(amount, tokenSupply)
	}

	amount, err := m.ReadUint64()
	if err != nil {
		return nil, types.InvalidField("amount", err)
	}
	nts, err := readNativeTokens(m)
	if err != nil {
		return nil, err
	}

	switch Kind(kind) {
	case KindBasic:
		conds, features, _, err := readBlocks(m, false)
		if err != nil {
			return nil, err
		}
		b := NewBasicOutputBuilder(amount)
		b.nativeTokens, b.unlockConditions, b.features = nts, conds, features
		return b.Finish(tokenSupply)

	case KindAlias:
		var aliasID types.AliasID
		if err := readInto(m, aliasID[:], "aliasId"); err != nil {
			return nil, err
		}
		stateIndex, err := m.ReadUint32()
		if err != nil {
			return nil, types.InvalidField("stateIndex", err)
		}
		metaLen, err := m.ReadUint16()
		if err != nil {
			return nil, types.InvalidField("stateMetadata", err)
		}
		meta, err := m.ReadBytes(int(metaLen))
		if err != nil {
			return nil, types.InvalidField("stateMetadata", err)
		}
		foundryCounter, err := m.ReadUint32()
		if err != nil {
			return nil, types.InvalidField("foundryCounter", err)
		}
		conds, features, immutable, err := readBlocks(m, true)
		if err != nil {
			return nil, err
		}
		b := NewAliasOutputBuilder(amount, aliasID).
			WithStateIndex(stateIndex).
			WithStateMetadata(meta).
			WithFoundryCounter(foundryCounter)
		b.nativeTokens, b.unlockConditions, b.features, b.immutableFeatures = nts, conds, features, immutable
		return b.Finish(tokenSupply)

	case KindFoundry:
		serial, err := m.ReadUint32()
		if err != nil {
			return nil, types.InvalidField("serialNumber", err)
		}
		scheme, err := readTokenScheme(m)
		if err != nil {
			return nil, err
		}
		conds, features, immutable, err := readBlocks(m, true)
		if err != nil {
			return nil, err
		}
		b := NewFoundryOutputBuilder(amount, serial, scheme)
		b.nativeTokens, b.unlockConditions, b.features, b.immutableFeatures = nts, conds, features, immutable
		return b.Finish(tokenSupply)

	case KindNft:
		var nftID types.NftID
		if err := readInto(m, nftID[:], "nftId"); err != nil {
			return nil, err
		}
		conds, features, immutable, err := readBlocks(m, true)
		if err != nil {
			return nil, err
		}
		b := NewNftOutputBuilder(amount, nftID)
		b.nativeTokens, b.unlockConditions, b.features, b.immutableFeatures = nts, conds, features, immutable
		return b.Finish(tokenSupply)

	default:
		return nil, types.InvalidField("type", fmt.Errorf("%w: %d", ErrUnknownOutputKind, kind))
	}
}

func readInto(m *marshalutil.MarshalUtil, dst []byte, field string) error {
	b, err := m.ReadBytes(len(dst))
	if err != nil {
		return types.InvalidField(field, err)
	}
	copy(dst, b)
	return nil
}

// ReadAddress decodes a serialized address from m.
func ReadAddress(m *marshalutil.MarshalUtil, field string) (types.Address, error) {
	b, err := m.ReadBytes(types.AddressSize)
	if err != nil {
		return types.Address{}, types.InvalidField(field, err)
	}
	a, err := types.AddressFromBytes(b)
	if err != nil {
		return types.Address{}, types.InvalidField(field, err)
	}
	return a, nil
}

func readU256(m *marshalutil.MarshalUtil, field string) (*uint256.Int, error) {
	b, err := m.ReadBytes(32)
	if err != nil {
		return nil, types.InvalidField(field, err)
	}
	be := make([]byte, 32)
	for i := range b {
		be[31-i] = b[i]
	}
	return new(uint256.Int).SetBytes(be), nil
}

func readNativeTokens(m *marshalutil.MarshalUtil) ([]NativeToken, error) {
	count, err := m.ReadByte()
	if err != nil {
		return nil, types.InvalidField("nativeTokens", err)
	}
	var nts []NativeToken
	for i := 0; i < int(count); i++ {
		var id types.TokenID
		if err := readInto(m, id[:], "tokenId"); err != nil {
			return nil, err
		}
		amount, err := readU256(m, "amount")
		if err != nil {
			return nil, err
		}
		nts = append(nts, NativeToken{ID: id, Amount: amount})
	}
	return nts, nil
}

func readTokenScheme(m *marshalutil.MarshalUtil) (*SimpleTokenScheme, error) {
	kind, err := m.ReadByte()
	if err != nil {
		return nil, types.InvalidField("tokenScheme", err)
	}
	if kind != TokenSchemeSimple {
		return nil, types.InvalidField("tokenScheme", fmt.Errorf("unknown token scheme kind %d", kind))
	}
	minted, err := readU256(m, "mintedTokens")
	if err != nil {
		return nil, err
	}
	melted, err := readU256(m, "meltedTokens")
	if err != nil {
		return nil, err
	}
	maximum, err := readU256(m, "maximumSupply")
	if err != nil {
		return nil, err
	}
	return NewSimpleTokenScheme(minted, melted, maximum)
}

func readBlocks(m *marshalutil.MarshalUtil, withImmutable bool) ([]UnlockCondition, []Feature, []Feature, error) {
	conds, err := readUnlockConditions(m)
	if err != nil {
		return nil, nil, nil, err
	}
	features, err := readFeatures(m, "features")
	if err != nil {
		return nil, nil, nil, err
	}
	if !withImmutable {
		return conds, features, nil, nil
	}
	immutable, err := readFeatures(m, "immutableFeatures")
	if err != nil {
		return nil, nil, nil, err
	}
	return conds, features, immutable, nil
}

func readUnlockConditions(m *marshalutil.MarshalUtil) ([]UnlockCondition, error) {
	count, err := m.ReadByte()
	if err != nil {
		return nil, types.InvalidField("unlockConditions", err)
	}
	conds := make([]UnlockCondition, 0, count)
	for i := 0; i < int(count); i++ {
		kind, err := m.ReadByte()
		if err != nil {
			return nil, types.InvalidField("unlockConditions", err)
		}
		var uc UnlockCondition
		switch UnlockConditionKind(kind) {
		case UnlockAddress:
			a, err := ReadAddress(m, "address")
			if err != nil {
				return nil, err
			}
			uc = AddressUnlockCondition{Address: a}
		case UnlockStorageDepositReturn:
			a, err := ReadAddress(m, "returnAddress")
			if err != nil {
				return nil, err
			}
			amount, err := m.ReadUint64()
			if err != nil {
				return nil, types.InvalidField("amount", err)
			}
			uc = StorageDepositReturnUnlockCondition{ReturnAddress: a, Amount: amount}
		case UnlockTimelock:
			ts, err := m.ReadUint32()
			if err != nil {
				return nil, types.InvalidField("unixTime", err)
			}
			uc = TimelockUnlockCondition{Timestamp: ts}
		case UnlockExpiration:
			a, err := ReadAddress(m, "returnAddress")
			if err != nil {
				return nil, err
			}
			ts, err := m.ReadUint32()
			if err != nil {
				return nil, types.InvalidField("unixTime", err)
			}
			uc = ExpirationUnlockCondition{ReturnAddress: a, Timestamp: ts}
		case UnlockStateControllerAddress:
			a, err := ReadAddress(m, "address")
			if err != nil {
				return nil, err
			}
			uc = StateControllerAddressUnlockCondition{Address: a}
		case UnlockGovernorAddress:
			a, err := ReadAddress(m, "address")
			if err != nil {
				return nil, err
			}
			uc = GovernorAddressUnlockCondition{Address: a}
		case UnlockImmutableAliasAddress:
			a, err := ReadAddress(m, "address")
			if err != nil {
				return nil, err
			}
			uc = ImmutableAliasAddressUnlockCondition{Address: a}
		default:
			return nil, types.InvalidField("unlockConditions", fmt.Errorf("unknown unlock condition kind %d", kind))
		}
		conds = append(conds, uc)
	}
	return conds, nil
}

func readFeatures(m *marshalutil.MarshalUtil, field string) ([]Feature, error) {
	count, err := m.ReadByte()
	if err != nil {
		return nil, types.InvalidField(field, err)
	}
	features := make([]Feature, 0, count)
	for i := 0; i < int(count); i++ {
		kind, err := m.ReadByte()
		if err != nil {
			return nil, types.InvalidField(field, err)
		}
		switch FeatureKind(kind) {
		case FeatureSender:
			a, err := ReadAddress(m, "sender")
			if err != nil {
				return nil, err
			}
			features = append(features, SenderFeature{Address: a})
		case FeatureIssuer:
			a, err := ReadAddress(m, "issuer")
			if err != nil {
				return nil, err
			}
			features = append(features, IssuerFeature{Address: a})
		case FeatureMetadata:
			n, err := m.ReadUint16()
			if err != nil {
				return nil, types.InvalidField("data", err)
			}
			data, err := m.ReadBytes(int(n))
			if err != nil {
				return nil, types.InvalidField("data", err)
			}
			features = append(features, MetadataFeature{Data: data})
		case FeatureTag:
			n, err := m.ReadByte()
			if err != nil {
				return nil, types.InvalidField("tag", err)
			}
			tag, err := m.ReadBytes(int(n))
			if err != nil {
				return nil, types.InvalidField("tag", err)
			}
			features = append(features, TagFeature{Tag: tag})
		default:
			return nil, types.InvalidField(field, fmt.Errorf("unknown feature kind %d", kind))
		}
	}
	return features, nil
}
