package types

import (
	"errors"
	"testing"
)

func TestNewOutputID(t *testing.T) {
	txID := TransactionID{0x01, 0x02}
	id, err := NewOutputID(txID, 5)
	if err != nil {
		t.Fatalf("NewOutputID: %v", err)
	}
	if id.TransactionID() != txID {
		t.Errorf("TransactionID() = %s, want %s", id.TransactionID(), txID)
	}
	if id.Index() != 5 {
		t.Errorf("Index() = %d, want 5", id.Index())
	}

	if _, err := NewOutputID(txID, MaxOutputsCount); !errors.Is(err, ErrOutputIndexOutOfRange) {
		t.Errorf("NewOutputID(%d) error = %v, want ErrOutputIndexOutOfRange", MaxOutputsCount, err)
	}
}

func TestOutputID_TextRoundTrip(t *testing.T) {
	id, _ := NewOutputID(TransactionID{0xaa}, 127)
	parsed, err := ParseOutputID(id.String())
	if err != nil {
		t.Fatalf("ParseOutputID: %v", err)
	}
	if parsed != id {
		t.Errorf("ParseOutputID() = %s, want %s", parsed, id)
	}
}

func TestOutputID_RejectsOutOfRangeIndex(t *testing.T) {
	var raw OutputID
	raw[HashSize] = 0xff
	_, err := ParseOutputID(raw.String())
	if !errors.Is(err, ErrOutputIndexOutOfRange) {
		t.Errorf("error = %v, want ErrOutputIndexOutOfRange", err)
	}
	var fe *InvalidFieldError
	if !errors.As(err, &fe) || fe.Field != "outputId" {
		t.Errorf("error = %v, want invalid field \"outputId\"", err)
	}
}

func TestChainIDsFromOutputID(t *testing.T) {
	id, _ := NewOutputID(TransactionID{0x01}, 0)
	other, _ := NewOutputID(TransactionID{0x01}, 1)

	nft := NftIDFromOutputID(id)
	if nft.IsNull() {
		t.Fatal("derived NftID should not be null")
	}
	if nft == NftIDFromOutputID(other) {
		t.Error("different output ids should derive different nft ids")
	}
	if got := (NftID{}).OrFromOutputID(id); got != nft {
		t.Errorf("OrFromOutputID() = %s, want %s", got, nft)
	}
	fixed := NftID{0x42}
	if got := fixed.OrFromOutputID(id); got != fixed {
		t.Errorf("OrFromOutputID() on non-null id = %s, want %s", got, fixed)
	}
	if AliasIDFromOutputID(id) != AliasID(nft) {
		t.Error("alias and nft ids derive with the same hash")
	}
}

func TestFoundryID(t *testing.T) {
	alias := AliasID{0x33}.ToAddress()
	id := NewFoundryID(alias, 7, 0)

	if id.AliasAddress() != alias {
		t.Errorf("AliasAddress() = %+v, want %+v", id.AliasAddress(), alias)
	}
	if id.SerialNumber() != 7 {
		t.Errorf("SerialNumber() = %d, want 7", id.SerialNumber())
	}
	if id.TokenSchemeKind() != 0 {
		t.Errorf("TokenSchemeKind() = %d, want 0", id.TokenSchemeKind())
	}
	if id.TokenID().FoundryID() != id {
		t.Error("TokenID/FoundryID conversion should round-trip")
	}

	var parsed FoundryID
	if err := parsed.UnmarshalText([]byte(id.String())); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed != id {
		t.Errorf("UnmarshalText() = %s, want %s", parsed, id)
	}
}

func TestParseTokenID_FieldError(t *testing.T) {
	_, err := ParseTokenID("0x1234")
	var fe *InvalidFieldError
	if !errors.As(err, &fe) || fe.Field != "tokenId" {
		t.Errorf("error = %v, want invalid field \"tokenId\"", err)
	}
}
