package output

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Feature size limits.
const (
	MetadataFeatureMaxLength = 8192
	TagFeatureMaxLength      = 64
)

// FeatureKind tags the variant of a Feature.
type FeatureKind byte

// Feature kinds.
const (
	FeatureSender   FeatureKind = 0
	FeatureIssuer   FeatureKind = 1
	FeatureMetadata FeatureKind = 2
	FeatureTag      FeatureKind = 3
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureSender:
		return "sender"
	case FeatureIssuer:
		return "issuer"
	case FeatureMetadata:
		return "metadata"
	case FeatureTag:
		return "tag"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

func (k FeatureKind) flag() uint16 { return 1 << k }

// Feature is optional data attached to an output.
type Feature interface {
	Kind() FeatureKind
}

// SenderFeature identifies the sender of an output. Only valid when the
// sender address is unlocked in the creating transaction.
type SenderFeature struct {
	Address types.Address
}

// IssuerFeature identifies the issuer of an alias or NFT. Immutable.
type IssuerFeature struct {
	Address types.Address
}

// MetadataFeature carries arbitrary binary data.
type MetadataFeature struct {
	Data []byte
}

// TagFeature carries an indexation tag.
type TagFeature struct {
	Tag []byte
}

// Kind implements Feature.
func (SenderFeature) Kind() FeatureKind { return FeatureSender }

func (IssuerFeature) Kind() FeatureKind { return FeatureIssuer }

func (MetadataFeature) Kind() FeatureKind { return FeatureMetadata }

func (TagFeature) Kind() FeatureKind { return FeatureTag }

// Features is a validated set of features sorted by kind.
type Features []Feature

func newFeatures(list []Feature, allowed uint16) (Features, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make(Features, len(list))
	for i, f := range list {
		if f == nil {
			return nil, fmt.Errorf("%w: nil feature", ErrInvalidFeature)
		}
		out[i] = cloneFeature(f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })

	for i, f := range out {
		if allowed&f.Kind().flag() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrDisallowedFeature, f.Kind())
		}
		if i > 0 && out[i-1].Kind() == f.Kind() {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFeature, f.Kind())
		}
		if err := verifyFeature(f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func verifyFeature(f Feature) error {
	switch ft := f.(type) {
	case SenderFeature:
		if !ft.Address.Kind.Valid() {
			return fmt.Errorf("%w: sender address kind %d", ErrInvalidFeature, byte(ft.Address.Kind))
		}
	case IssuerFeature:
		if !ft.Address.Kind.Valid() {
			return fmt.Errorf("%w: issuer address kind %d", ErrInvalidFeature, byte(ft.Address.Kind))
		}
	case MetadataFeature:
		if len(ft.Data) == 0 || len(ft.Data) > MetadataFeatureMaxLength {
			return fmt.Errorf("%w: metadata length %d not in [1, %d]", ErrInvalidFeature, len(ft.Data), MetadataFeatureMaxLength)
		}
	case TagFeature:
		if len(ft.Tag) == 0 || len(ft.Tag) > TagFeatureMaxLength {
			return fmt.Errorf("%w: tag length %d not in [1, %d]", ErrInvalidFeature, len(ft.Tag), TagFeatureMaxLength)
		}
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidFeature, f)
	}
	return nil
}

func cloneFeature(f Feature) Feature {
	switch ft := f.(type) {
	case MetadataFeature:
		return MetadataFeature{Data: bytes.Clone(ft.Data)}
	case TagFeature:
		return TagFeature{Tag: bytes.Clone(ft.Tag)}
	default:
		return f
	}
}

func (f Features) get(kind FeatureKind) Feature {
	for _, ft := range f {
		if ft.Kind() == kind {
			return ft
		}
	}
	return nil
}

// Sender returns the sender feature.
func (f Features) Sender() (SenderFeature, bool) {
	s, ok := f.get(FeatureSender).(SenderFeature)
	return s, ok
}

// Issuer returns the issuer feature.
func (f Features) Issuer() (IssuerFeature, bool) {
	s, ok := f.get(FeatureIssuer).(IssuerFeature)
	return s, ok
}

// Metadata returns the metadata feature.
func (f Features) Metadata() (MetadataFeature, bool) {
	s, ok := f.get(FeatureMetadata).(MetadataFeature)
	return s, ok
}

// Tag returns the tag feature.
func (f Features) Tag() (TagFeature, bool) {
	s, ok := f.get(FeatureTag).(TagFeature)
	return s, ok
}

func (f Features) clone() Features {
	if f == nil {
		return nil
	}
	out := make(Features, len(f))
	for i, ft := range f {
		out[i] = cloneFeature(ft)
	}
	return out
}
