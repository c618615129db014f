package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AddressDTO is the node's JSON form of an address. Exactly one of the hash
// fields is set, matching Type.
type AddressDTO struct {
	Type       byte   `json:"type"`
	PubKeyHash string `json:"pubKeyHash,omitempty"`
	AliasID    string `json:"aliasId,omitempty"`
	NftID      string `json:"nftId,omitempty"`
}

// UnlockConditionDTO is the JSON form of an unlock condition.
type UnlockConditionDTO struct {
	Type          byte        `json:"type"`
	Address       *AddressDTO `json:"address,omitempty"`
	ReturnAddress *AddressDTO `json:"returnAddress,omitempty"`
	Amount        string      `json:"amount,omitempty"`
	UnixTime      uint32      `json:"unixTime,omitempty"`
}

// FeatureDTO is the JSON form of a feature. Data and Tag are 0x-hex.
type FeatureDTO struct {
	Type    byte        `json:"type"`
	Address *AddressDTO `json:"address,omitempty"`
	Data    string      `json:"data,omitempty"`
	Tag     string      `json:"tag,omitempty"`
}

// NativeTokenDTO is the JSON form of a native token; Amount is 0x-hex.
type NativeTokenDTO struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

// TokenSchemeDTO is the JSON form of a simple token scheme.
type TokenSchemeDTO struct {
	Type          byte   `json:"type"`
	MintedTokens  string `json:"mintedTokens"`
	MeltedTokens  string `json:"meltedTokens"`
	MaximumSupply string `json:"maximumSupply"`
}

// DTO is the node's JSON form of any output. Amount is a decimal string.
type DTO struct {
	Type              byte                 `json:"type"`
	Amount            string               `json:"amount"`
	NativeTokens      []NativeTokenDTO     `json:"nativeTokens,omitempty"`
	AliasID           string               `json:"aliasId,omitempty"`
	StateIndex        uint32               `json:"stateIndex,omitempty"`
	StateMetadata     string               `json:"stateMetadata,omitempty"`
	FoundryCounter    uint32               `json:"foundryCounter,omitempty"`
	SerialNumber      uint32               `json:"serialNumber,omitempty"`
	TokenScheme       *TokenSchemeDTO      `json:"tokenScheme,omitempty"`
	NftID             string               `json:"nftId,omitempty"`
	UnlockConditions  []UnlockConditionDTO `json:"unlockConditions,omitempty"`
	Features          []FeatureDTO         `json:"features,omitempty"`
	ImmutableFeatures []FeatureDTO         `json:"immutableFeatures,omitempty"`
}

// ToDTO converts out to its JSON form.
func ToDTO(out Output) *DTO {
	dto := &DTO{
		Type:              byte(out.Kind()),
		Amount:            strconv.FormatUint(out.Amount(), 10),
		NativeTokens:      nativeTokensToDTO(out.NativeTokens()),
		UnlockConditions:  unlockConditionsToDTO(out.UnlockConditions()),
		Features:          featuresToDTO(out.Features()),
		ImmutableFeatures: featuresToDTO(out.ImmutableFeatures()),
	}
	switch o := out.(type) {
	case *AliasOutput:
		dto.AliasID = o.aliasID.String()
		dto.StateIndex = o.stateIndex
		if len(o.stateMetadata) > 0 {
			dto.StateMetadata = types.EncodeHex(o.stateMetadata)
		}
		dto.FoundryCounter = o.foundryCounter
	case *FoundryOutput:
		dto.SerialNumber = o.serialNumber
		dto.TokenScheme = &TokenSchemeDTO{
			Type:          o.tokenScheme.Kind(),
			MintedTokens:  o.tokenScheme.minted.Hex(),
			MeltedTokens:  o.tokenScheme.melted.Hex(),
			MaximumSupply: o.tokenScheme.maximum.Hex(),
		}
	case *NftOutput:
		dto.NftID = o.nftID.String()
	}
	return dto
}

// FromDTO converts a JSON output and validates it against tokenSupply.
func FromDTO(dto *DTO, tokenSupply uint64) (Output, error) {
	amount, err := strconv.ParseUint(dto.Amount, 10, 64)
	if err != nil {
		return nil, types.InvalidField("amount", err)
	}
	if Kind(dto.Type) == KindTreasury {
		return NewTreasuryOutput(amount, tokenSupply)
	}

	nts, err := nativeTokensFromDTO(dto.NativeTokens)
	if err != nil {
		return nil, err
	}
	conds, err := unlockConditionsFromDTO(dto.UnlockConditions)
	if err != nil {
		return nil, err
	}
	features, err := featuresFromDTO(dto.Features, "features")
	if err != nil {
		return nil, err
	}
	immutable, err := featuresFromDTO(dto.ImmutableFeatures, "immutableFeatures")
	if err != nil {
		return nil, err
	}

	switch Kind(dto.Type) {
	case KindBasic:
		if len(immutable) > 0 {
			return nil, types.InvalidField("immutableFeatures", ErrDisallowedFeature)
		}
		b := NewBasicOutputBuilder(amount)
		b.nativeTokens, b.unlockConditions, b.features = nts, conds, features
		return b.Finish(tokenSupply)

	case KindAlias:
		var aliasID types.AliasID
		if err := types.DecodeHexInto("aliasId", dto.AliasID, aliasID[:]); err != nil {
			return nil, err
		}
		var meta []byte
		if dto.StateMetadata != "" {
			if meta, err = types.DecodeHex(dto.StateMetadata); err != nil {
				return nil, types.InvalidField("stateMetadata", err)
			}
		}
		b := NewAliasOutputBuilder(amount, aliasID).
			WithStateIndex(dto.StateIndex).
			WithStateMetadata(meta).
			WithFoundryCounter(dto.FoundryCounter)
		b.nativeTokens, b.unlockConditions, b.features, b.immutableFeatures = nts, conds, features, immutable
		return b.Finish(tokenSupply)

	case KindFoundry:
		scheme, err := tokenSchemeFromDTO(dto.TokenScheme)
		if err != nil {
			return nil, err
		}
		b := NewFoundryOutputBuilder(amount, dto.SerialNumber, scheme)
		b.nativeTokens, b.unlockConditions, b.features, b.immutableFeatures = nts, conds, features, immutable
		return b.Finish(tokenSupply)

	case KindNft:
		var nftID types.NftID
		if err := types.DecodeHexInto("nftId", dto.NftID, nftID[:]); err != nil {
			return nil, err
		}
		b := NewNftOutputBuilder(amount, nftID)
		b.nativeTokens, b.unlockConditions, b.features, b.immutableFeatures = nts, conds, features, immutable
		return b.Finish(tokenSupply)

	default:
		return nil, types.InvalidField("type", fmt.Errorf("%w: %d", ErrUnknownOutputKind, dto.Type))
	}
}

// FromDTOUnverified converts a JSON output without bounding its amount by a
// token supply. Used for outputs read back from local storage.
func FromDTOUnverified(dto *DTO) (Output, error) {
	return FromDTO(dto, math.MaxUint64)
}

// MarshalOutput encodes any output as JSON.
func MarshalOutput(out Output) ([]byte, error) {
	return json.Marshal(ToDTO(out))
}

// UnmarshalOutput decodes a JSON output of any kind.
func UnmarshalOutput(data []byte) (Output, error) {
	var dto DTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	return FromDTOUnverified(&dto)
}

func (o *BasicOutput) MarshalJSON() ([]byte, error) { return MarshalOutput(o) }
func (o *AliasOutput) MarshalJSON() ([]byte, error) { return MarshalOutput(o) }
func (o *FoundryOutput) MarshalJSON() ([]byte, error) { return MarshalOutput(o) }
func (o *NftOutput) MarshalJSON() ([]byte, error) { return MarshalOutput(o) }
func (o *TreasuryOutput) MarshalJSON() ([]byte, error) { return MarshalOutput(o) }

func (o *BasicOutput) UnmarshalJSON(data []byte) error {
	out, err := unmarshalKind[*BasicOutput](data)
	if err != nil {
		return err
	}
	*o = *out
	return nil
}

func (o *AliasOutput) UnmarshalJSON(data []byte) error {
	out, err := unmarshalKind[*AliasOutput](data)
	if err != nil {
		return err
	}
	*o = *out
	return nil
}

func (o *FoundryOutput) UnmarshalJSON(data []byte) error {
	out, err := unmarshalKind[*FoundryOutput](data)
	if err != nil {
		return err
	}
	*o = *out
	return nil
}

func (o *NftOutput) UnmarshalJSON(data []byte) error {
	out, err := unmarshalKind[*NftOutput](data)
	if err != nil {
		return err
	}
	*o = *out
	return nil
}

func (o *TreasuryOutput) UnmarshalJSON(data []byte) error {
	out, err := unmarshalKind[*TreasuryOutput](data)
	if err != nil {
		return err
	}
	*o = *out
	return nil
}

func unmarshalKind[T Output](data []byte) (T, error) {
	var zero T
	out, err := UnmarshalOutput(data)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(T)
	if !ok {
		return zero, types.InvalidField("type", fmt.Errorf("unexpected output kind %s", out.Kind()))
	}
	return typed, nil
}

// AddressToDTO converts an address to its JSON form.
func AddressToDTO(a types.Address) *AddressDTO {
	dto := &AddressDTO{Type: byte(a.Kind)}
	hash := types.EncodeHex(a.Hash[:])
	switch a.Kind {
	case types.AddressEd25519:
		dto.PubKeyHash = hash
	case types.AddressAlias:
		dto.AliasID = hash
	case types.AddressNft:
		dto.NftID = hash
	}
	return dto
}

// AddressFromDTO converts a JSON address.
func AddressFromDTO(dto *AddressDTO, field string) (types.Address, error) {
	if dto == nil {
		return types.Address{}, types.InvalidField(field, fmt.Errorf("missing"))
	}
	a := types.Address{Kind: types.AddressKind(dto.Type)}
	var hash, name string
	switch a.Kind {
	case types.AddressEd25519:
		hash, name = dto.PubKeyHash, "pubKeyHash"
	case types.AddressAlias:
		hash, name = dto.AliasID, "aliasId"
	case types.AddressNft:
		hash, name = dto.NftID, "nftId"
	default:
		return types.Address{}, types.InvalidField(field, fmt.Errorf("unknown address kind %d", dto.Type))
	}
	if err := types.DecodeHexInto(name, hash, a.Hash[:]); err != nil {
		return types.Address{}, types.InvalidField(field, err)
	}
	return a, nil
}

func nativeTokensToDTO(nts NativeTokens) []NativeTokenDTO {
	if len(nts) == 0 {
		return nil
	}
	out := make([]NativeTokenDTO, len(nts))
	for i, nt := range nts {
		out[i] = NativeTokenDTO{ID: nt.ID.String(), Amount: nt.Amount.Hex()}
	}
	return out
}

func nativeTokensFromDTO(list []NativeTokenDTO) ([]NativeToken, error) {
	var out []NativeToken
	for _, dto := range list {
		id, err := types.ParseTokenID(dto.ID)
		if err != nil {
			return nil, err
		}
		amount, err := ParseU256Hex("amount", dto.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, NativeToken{ID: id, Amount: amount})
	}
	return out, nil
}

func tokenSchemeFromDTO(dto *TokenSchemeDTO) (*SimpleTokenScheme, error) {
	if dto == nil {
		return nil, types.InvalidField("tokenScheme", fmt.Errorf("missing"))
	}
	if dto.Type != TokenSchemeSimple {
		return nil, types.InvalidField("tokenScheme", fmt.Errorf("unknown token scheme kind %d", dto.Type))
	}
	minted, err := ParseU256Hex("mintedTokens", dto.MintedTokens)
	if err != nil {
		return nil, err
	}
	melted, err := ParseU256Hex("meltedTokens", dto.MeltedTokens)
	if err != nil {
		return nil, err
	}
	maximum, err := ParseU256Hex("maximumSupply", dto.MaximumSupply)
	if err != nil {
		return nil, err
	}
	return NewSimpleTokenScheme(minted, melted, maximum)
}

func unlockConditionsToDTO(conds UnlockConditions) []UnlockConditionDTO {
	if len(conds) == 0 {
		return nil
	}
	out := make([]UnlockConditionDTO, 0, len(conds))
	for _, c := range conds {
		dto := UnlockConditionDTO{Type: byte(c.Kind())}
		switch uc := c.(type) {
		case AddressUnlockCondition:
			dto.Address = AddressToDTO(uc.Address)
		case StorageDepositReturnUnlockCondition:
			dto.ReturnAddress = AddressToDTO(uc.ReturnAddress)
			dto.Amount = strconv.FormatUint(uc.Amount, 10)
		case TimelockUnlockCondition:
			dto.UnixTime = uc.Timestamp
		case ExpirationUnlockCondition:
			dto.ReturnAddress = AddressToDTO(uc.ReturnAddress)
			dto.UnixTime = uc.Timestamp
		case StateControllerAddressUnlockCondition:
			dto.Address = AddressToDTO(uc.Address)
		case GovernorAddressUnlockCondition:
			dto.Address = AddressToDTO(uc.Address)
		case ImmutableAliasAddressUnlockCondition:
			dto.Address = AddressToDTO(uc.Address)
		}
		out = append(out, dto)
	}
	return out
}

func unlockConditionsFromDTO(list []UnlockConditionDTO) ([]UnlockCondition, error) {
	var out []UnlockCondition
	for _, dto := range list {
		var uc UnlockCondition
		switch UnlockConditionKind(dto.Type) {
		case UnlockAddress:
			a, err := AddressFromDTO(dto.Address, "address")
			if err != nil {
				return nil, err
			}
			uc = AddressUnlockCondition{Address: a}
		case UnlockStorageDepositReturn:
			a, err := AddressFromDTO(dto.ReturnAddress, "returnAddress")
			if err != nil {
				return nil, err
			}
			amount, err := strconv.ParseUint(dto.Amount, 10, 64)
			if err != nil {
				return nil, types.InvalidField("amount", err)
			}
			uc = StorageDepositReturnUnlockCondition{ReturnAddress: a, Amount: amount}
		case UnlockTimelock:
			uc = TimelockUnlockCondition{Timestamp: dto.UnixTime}
		case UnlockExpiration:
			a, err := AddressFromDTO(dto.ReturnAddress, "returnAddress")
			if err != nil {
				return nil, err
			}
			uc = ExpirationUnlockCondition{ReturnAddress: a, Timestamp: dto.UnixTime}
		case UnlockStateControllerAddress:
			a, err := AddressFromDTO(dto.Address, "address")
			if err != nil {
				return nil, err
			}
			uc = StateControllerAddressUnlockCondition{Address: a}
		case UnlockGovernorAddress:
			a, err := AddressFromDTO(dto.Address, "address")
			if err != nil {
				return nil, err
			}
			uc = GovernorAddressUnlockCondition{Address: a}
		case UnlockImmutableAliasAddress:
			a, err := AddressFromDTO(dto.Address, "address")
			if err != nil {
				return nil, err
			}
			uc = ImmutableAliasAddressUnlockCondition{Address: a}
		default:
			return nil, types.InvalidField("unlockConditions", fmt.Errorf("unknown unlock condition kind %d", dto.Type))
		}
		out = append(out, uc)
	}
	return out, nil
}

func featuresToDTO(features Features) []FeatureDTO {
	if len(features) == 0 {
		return nil
	}
	out := make([]FeatureDTO, 0, len(features))
	for _, f := range features {
		dto := FeatureDTO{Type: byte(f.Kind())}
		switch ft := f.(type) {
		case SenderFeature:
			dto.Address = AddressToDTO(ft.Address)
		case IssuerFeature:
			dto.Address = AddressToDTO(ft.Address)
		case MetadataFeature:
			dto.Data = types.EncodeHex(ft.Data)
		case TagFeature:
			dto.Tag = types.EncodeHex(ft.Tag)
		}
		out = append(out, dto)
	}
	return out
}

func featuresFromDTO(list []FeatureDTO, field string) ([]Feature, error) {
	var out []Feature
	for _, dto := range list {
		switch FeatureKind(dto.Type) {
		case FeatureSender:
			a, err := AddressFromDTO(dto.Address, "sender")
			if err != nil {
				return nil, err
			}
			out = append(out, SenderFeature{Address: a})
		case FeatureIssuer:
			a, err := AddressFromDTO(dto.Address, "issuer")
			if err != nil {
				return nil, err
			}
			out = append(out, IssuerFeature{Address: a})
		case FeatureMetadata:
			data, err := types.DecodeHex(dto.Data)
			if err != nil {
				return nil, types.InvalidField("data", err)
			}
			out = append(out, MetadataFeature{Data: data})
		case FeatureTag:
			tag, err := types.DecodeHex(dto.Tag)
			if err != nil {
				return nil, types.InvalidField("tag", err)
			}
			out = append(out, TagFeature{Tag: tag})
		default:
			return nil, types.InvalidField(field, fmt.Errorf("unknown feature kind %d", dto.Type))
		}
	}
	return out, nil
}

// ParseU256Hex parses a 0x-prefixed hex integer. Leading zeros are accepted.
func ParseU256Hex(field, s string) (*uint256.Int, error) {
	if !strings.HasPrefix(s, types.HexPrefix) {
		return nil, types.InvalidField(field, fmt.Errorf("missing %s prefix", types.HexPrefix))
	}
	digits := strings.TrimLeft(s[len(types.HexPrefix):], "0")
	if digits == "" {
		digits = "0"
	}
	x, err := uint256.FromHex(types.HexPrefix + digits)
	if err != nil {
		return nil, types.InvalidField(field, err)
	}
	return x, nil
}
