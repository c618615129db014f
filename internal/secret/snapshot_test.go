package secret

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshot_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet", "mnemonic.snapshot")
	password := []byte("test-password")

	if err := WriteSnapshot(path, testMnemonic, password, fastParams()); err != nil {
		t.Fatalf("WriteSnapshot() error: %v", err)
	}
	got, err := ReadSnapshot(path, password)
	if err != nil {
		t.Fatalf("ReadSnapshot() error: %v", err)
	}
	if got != testMnemonic {
		t.Errorf("ReadSnapshot() = %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("snapshot permissions = %o, want 600", perm)
	}
}

func TestSnapshot_NoOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.snapshot")
	if err := WriteSnapshot(path, testMnemonic, []byte("p"), fastParams()); err != nil {
		t.Fatal(err)
	}
	if err := WriteSnapshot(path, testMnemonic, []byte("p"), fastParams()); !errors.Is(err, ErrSnapshotExists) {
		t.Errorf("expected ErrSnapshotExists, got: %v", err)
	}
}

func TestSnapshot_RejectsInvalidMnemonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.snapshot")
	if err := WriteSnapshot(path, "bad words", []byte("p"), fastParams()); !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("expected ErrInvalidMnemonic, got: %v", err)
	}
}

func TestSnapshot_WrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.snapshot")
	WriteSnapshot(path, testMnemonic, []byte("right"), fastParams())
	if _, err := ReadSnapshot(path, []byte("wrong")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("expected ErrDecrypt, got: %v", err)
	}
}

func TestNewMnemonicManagerFromSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.snapshot")
	WriteSnapshot(path, testMnemonic, []byte("p"), fastParams())

	m, err := NewMnemonicManagerFromSnapshot(path, []byte("p"))
	if err != nil {
		t.Fatalf("NewMnemonicManagerFromSnapshot() error: %v", err)
	}
	defer m.Close()
}
