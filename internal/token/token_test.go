package token

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

const testSupply uint64 = 1_813_620_509_061_365

func testAliasAddress(b byte) types.Address {
	var id types.AliasID
	id[0] = b
	return id.ToAddress()
}

// testFoundry builds a foundry of alias b with the given scheme counters
// and optional immutable metadata.
func testFoundry(t *testing.T, b byte, serial uint32, minted, melted uint64, meta []byte) *output.FoundryOutput {
	t.Helper()
	scheme, err := output.NewSimpleTokenScheme(uint256.NewInt(minted), uint256.NewInt(melted), uint256.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("NewSimpleTokenScheme: %v", err)
	}
	builder := output.NewFoundryOutputBuilder(100_000, serial, scheme).
		AddUnlockCondition(output.ImmutableAliasAddressUnlockCondition{Address: testAliasAddress(b)})
	if meta != nil {
		builder.AddImmutableFeature(output.MetadataFeature{Data: meta})
	}
	f, err := builder.Finish(testSupply)
	if err != nil {
		t.Fatalf("build foundry: %v", err)
	}
	return f
}

func TestMetadata_EncodeParse(t *testing.T) {
	meta := NewMetadata("Shimmer Token", "SMRT", 6)
	meta.Description = "test token"
	meta.URL = "https://example.org"

	data, err := meta.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := ParseMetadata(data)
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	if *got != *meta {
		t.Errorf("ParseMetadata = %+v, want %+v", got, meta)
	}
}

func TestMetadata_Validate(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		want error
	}{
		{"valid", Metadata{Standard: IRC30, Name: "n", Symbol: "s"}, nil},
		{"wrong standard", Metadata{Standard: "IRC27", Name: "n", Symbol: "s"}, ErrNotIRC30},
		{"no name", Metadata{Standard: IRC30, Name: " ", Symbol: "s"}, ErrMissingName},
		{"no symbol", Metadata{Standard: IRC30, Name: "n"}, ErrMissingSymbol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.meta.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMetadata_NotJSON(t *testing.T) {
	if _, err := ParseMetadata([]byte("plain text")); !errors.Is(err, ErrNotIRC30) {
		t.Errorf("expected ErrNotIRC30, got: %v", err)
	}
}
