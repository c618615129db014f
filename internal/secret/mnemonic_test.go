package secret

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	m1, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if words := strings.Fields(m1); len(words) != 24 {
		t.Errorf("word count = %d, want 24", len(words))
	}
	if !ValidateMnemonic(m1) {
		t.Error("generated mnemonic should validate")
	}

	m2, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if m1 == m2 {
		t.Error("two generated mnemonics should not be identical")
	}
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{"valid 12-word", testMnemonic, true},
		{"extra whitespace", "  abandon abandon abandon abandon abandon abandon\tabandon abandon abandon abandon abandon   about ", true},
		{"empty", "", false},
		{"random words", "not a valid mnemonic phrase at all", false},
		{"wrong checksum", strings.Repeat("abandon ", 11) + "abandon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateMnemonic(tt.mnemonic); got != tt.valid {
				t.Errorf("ValidateMnemonic() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestSeedFromMnemonic_KnownVector(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	want, _ := hex.DecodeString("c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04")
	if !bytes.Equal(seed, want) {
		t.Errorf("seed = %x, want %x", seed, want)
	}
	if len(seed) != SeedSize {
		t.Errorf("seed length = %d, want %d", len(seed), SeedSize)
	}
}

func TestSeedFromMnemonic_Invalid(t *testing.T) {
	if _, err := SeedFromMnemonic("not a mnemonic", ""); !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("expected ErrInvalidMnemonic, got: %v", err)
	}
}
