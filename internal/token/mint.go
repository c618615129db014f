package token

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
)

// FoundryMetadata returns the IRC30 metadata a foundry carries in its
// immutable metadata feature. ok is false when the feature is absent or
// does not hold valid IRC30 JSON.
func FoundryMetadata(f *output.FoundryOutput) (meta *Metadata, ok bool) {
	if f == nil {
		return nil, false
	}
	feature, found := f.ImmutableFeatures().Metadata()
	if !found {
		return nil, false
	}
	meta, err := ParseMetadata(feature.Data)
	if err != nil {
		return nil, false
	}
	return meta, true
}

// NewFoundryMetadataFeature encodes meta as a metadata feature for a
// foundry's immutable features.
func NewFoundryMetadataFeature(meta *Metadata) (output.MetadataFeature, error) {
	data, err := meta.Encode()
	if err != nil {
		return output.MetadataFeature{}, err
	}
	return output.MetadataFeature{Data: data}, nil
}

// ExtractAndStoreMetadata stores the metadata of every foundry that carries
// it. Tokens already present in the store are skipped. It returns how many
// entries were written.
func ExtractAndStoreMetadata(store *Store, foundries []*output.FoundryOutput) (int, error) {
	if store == nil {
		return 0, nil
	}
	written := 0
	for _, f := range foundries {
		meta, ok := FoundryMetadata(f)
		if !ok {
			continue
		}
		tokenID := f.TokenID()
		if has, err := store.Has(tokenID); err != nil {
			return written, err
		} else if has {
			continue
		}
		if err := store.Put(tokenID, meta); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
