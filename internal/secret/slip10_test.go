package secret

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

func TestNewMasterKey_SLIP10Vector(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	master, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	if got := hex.EncodeToString(master.ChainCode()); got != "90046a93de5380a72b5e45010748567d5ea02bbf6522f979e05c0d8d8ca9fffb" {
		t.Errorf("master chain code = %s", got)
	}
	if got := hex.EncodeToString(master.PrivateKeyBytes()); got != "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7" {
		t.Errorf("master key = %s", got)
	}

	child, err := master.DeriveChild(HardenedOffset)
	if err != nil {
		t.Fatalf("DeriveChild() error: %v", err)
	}
	if got := hex.EncodeToString(child.ChainCode()); got != "8b59aa11380b624e81507a27fedda59fea6d0b779a778918a2fd3590e16e9c69" {
		t.Errorf("m/0' chain code = %s", got)
	}
	if got := hex.EncodeToString(child.PrivateKeyBytes()); got != "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3" {
		t.Errorf("m/0' key = %s", got)
	}
	if child.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", child.Depth())
	}
}

func TestNewMasterKey_InvalidSeedLength(t *testing.T) {
	for _, n := range []int{0, 15, 65} {
		if _, err := NewMasterKey(make([]byte, n)); err == nil {
			t.Errorf("NewMasterKey(%d bytes) should fail", n)
		}
	}
}

func TestDeriveChild_RejectsNonHardened(t *testing.T) {
	master, _ := NewMasterKey(make([]byte, 32))
	if _, err := master.DeriveChild(5); !errors.Is(err, ErrNonHardenedIndex) {
		t.Errorf("expected ErrNonHardenedIndex, got: %v", err)
	}
}

func TestDeriveChain(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	master, _ := NewMasterKey(seed)

	chain := types.Bip44{CoinType: types.CoinTypeShimmer}
	k1, err := master.DeriveChain(chain)
	if err != nil {
		t.Fatalf("DeriveChain() error: %v", err)
	}
	k2, _ := master.DerivePath(44, types.CoinTypeShimmer, 0, 0, 0)
	if hex.EncodeToString(k1.PrivateKeyBytes()) != hex.EncodeToString(k2.PrivateKeyBytes()) {
		t.Error("DeriveChain and DerivePath disagree")
	}
	if k1.Depth() != 5 {
		t.Errorf("Depth() = %d, want 5", k1.Depth())
	}

	chain.AddressIndex = 1
	k3, _ := master.DeriveChain(chain)
	a1, _ := k1.Address()
	a3, _ := k3.Address()
	if a1 == a3 {
		t.Error("different address indexes should give different addresses")
	}
	if a1.Kind != types.AddressEd25519 {
		t.Errorf("address kind = %v, want Ed25519", a1.Kind)
	}
}

func TestHDKey_Zero(t *testing.T) {
	master, _ := NewMasterKey(make([]byte, 32))
	master.Zero()
	for _, b := range master.PrivateKeyBytes() {
		if b != 0 {
			t.Fatal("key material not wiped")
		}
	}
}
