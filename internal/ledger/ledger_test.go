package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/internal/secret"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var testParams = secret.KDFParams{Memory: 64, Iterations: 1, Parallelism: 1}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultTestnet()
	cfg.DataDir = t.TempDir()
	cfg.Log.Level = "error"
	if err := config.EnsureDataDirs(cfg); err != nil {
		t.Fatalf("EnsureDataDirs: %v", err)
	}
	return cfg
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	tests := []struct {
		input, want string
	}{
		{"~/foo/bar", filepath.Join(home, "foo/bar")},
		{"~/.klingnet-ledger/wallet.snapshot", filepath.Join(home, ".klingnet-ledger/wallet.snapshot")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestOpen_NoSnapshot(t *testing.T) {
	cfg := testConfig(t)
	_, err := Open(cfg, []byte("pw"))
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Open error = %v, want ErrNoSnapshot", err)
	}
}

func TestOpen_WrongPassword(t *testing.T) {
	cfg := testConfig(t)
	if _, err := CreateSnapshot(cfg, testMnemonic, []byte("right"), testParams); err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if _, err := Open(cfg, []byte("wrong")); err == nil {
		t.Fatal("expected error for wrong password")
	}
}

func TestCreateSnapshot_Generates(t *testing.T) {
	cfg := testConfig(t)
	mnemonic, err := CreateSnapshot(cfg, "", []byte("pw"), testParams)
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if !secret.ValidateMnemonic(mnemonic) {
		t.Fatalf("generated mnemonic is invalid: %q", mnemonic)
	}
	if _, err := CreateSnapshot(cfg, testMnemonic, []byte("pw"), testParams); !errors.Is(err, secret.ErrSnapshotExists) {
		t.Fatalf("second CreateSnapshot error = %v, want ErrSnapshotExists", err)
	}
}

func TestOpen_PersistsAccounts(t *testing.T) {
	cfg := testConfig(t)
	password := []byte("pw")
	if _, err := CreateSnapshot(cfg, testMnemonic, password, testParams); err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	l, err := Open(cfg, password)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	acc, err := l.Wallet.CreateAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	first, err := acc.FirstAddress()
	if err != nil {
		t.Fatalf("FirstAddress: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l, err = Open(cfg, password)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()

	reloaded, err := l.Wallet.AccountByAlias("alice")
	if err != nil {
		t.Fatalf("AccountByAlias: %v", err)
	}
	got, err := reloaded.FirstAddress()
	if err != nil {
		t.Fatalf("FirstAddress: %v", err)
	}
	if got != first {
		t.Fatalf("first address changed across reopen: %s != %s", got, first)
	}
	if l.Config() != cfg {
		t.Fatal("Config() does not return the opening config")
	}
	if _, err := os.Stat(filepath.Join(cfg.LogsDir(), "ledger.log")); err != nil {
		t.Fatalf("log file: %v", err)
	}
}
