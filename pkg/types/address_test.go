package types

import (
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero-value Address should be zero")
	}

	nonZero := NewEd25519Address([AddressHashSize]byte{0x01})
	if nonZero.IsZero() {
		t.Error("non-zero Address should not be zero")
	}
}

func TestAddress_String(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(MainnetHRP)

	a := NewEd25519Address([AddressHashSize]byte{0xab})
	s := a.String()
	if !strings.HasPrefix(s, "smr1") {
		t.Errorf("String() should start with 'smr1', got %s", s)
	}

	SetAddressHRP(TestnetHRP)
	s = a.String()
	if !strings.HasPrefix(s, "rms1") {
		t.Errorf("String() should start with 'rms1', got %s", s)
	}
}

func TestAddress_Bytes(t *testing.T) {
	a := Address{Kind: AddressAlias, Hash: [AddressHashSize]byte{0x01, 0x02}}
	b := a.Bytes()
	if len(b) != AddressSize {
		t.Fatalf("Bytes() length = %d, want %d", len(b), AddressSize)
	}
	if b[0] != byte(AddressAlias) || b[1] != 0x01 || b[2] != 0x02 {
		t.Errorf("Bytes() = %x", b)
	}

	got, err := AddressFromBytes(b)
	if err != nil {
		t.Fatalf("AddressFromBytes: %v", err)
	}
	if got != a {
		t.Errorf("AddressFromBytes() = %+v, want %+v", got, a)
	}
}

func TestAddressFromBytes_Invalid(t *testing.T) {
	if _, err := AddressFromBytes(make([]byte, 10)); err == nil {
		t.Error("expected error for short address")
	}
	b := make([]byte, AddressSize)
	b[0] = 1
	if _, err := AddressFromBytes(b); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestAddress_ChainIDs(t *testing.T) {
	aliasID := AliasID{0x11}
	addr := aliasID.ToAddress()
	got, ok := addr.AliasID()
	if !ok || got != aliasID {
		t.Errorf("AliasID() = %v, %v", got, ok)
	}
	if _, ok := addr.NftID(); ok {
		t.Error("alias address should not yield an nft id")
	}

	nftID := NftID{0x22}
	n, ok := nftID.ToAddress().NftID()
	if !ok || n != nftID {
		t.Errorf("NftID() = %v, %v", n, ok)
	}
}

func TestAddressSet(t *testing.T) {
	a := NewEd25519Address([AddressHashSize]byte{1})
	b := NewEd25519Address([AddressHashSize]byte{2})
	set := NewAddressSet(a)
	if !set.Contains(a) {
		t.Error("set should contain a")
	}
	if set.Contains(b) {
		t.Error("set should not contain b")
	}
	var empty AddressSet
	if empty.Contains(a) {
		t.Error("nil set should contain nothing")
	}
}

func TestSetAddressHRP(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(TestnetHRP)
	if GetAddressHRP() != TestnetHRP {
		t.Errorf("GetAddressHRP() = %q, want %q", GetAddressHRP(), TestnetHRP)
	}
}
