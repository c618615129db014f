package secret

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const snapshotVersion = 1

// ErrSnapshotExists is returned when writing over an existing snapshot.
var ErrSnapshotExists = errors.New("snapshot already exists")

// snapshotFile is the on-disk JSON format of an encrypted mnemonic.
type snapshotFile struct {
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
	EncryptedMnemonic []byte    `json:"encryptedMnemonic"`
}

// WriteSnapshot encrypts mnemonic under password and writes it to path.
// An existing file is never overwritten.
func WriteSnapshot(path, mnemonic string, password []byte, params KDFParams) error {
	if !ValidateMnemonic(mnemonic) {
		return ErrInvalidMnemonic
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrSnapshotExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	sealed, err := Seal([]byte(normalizeMnemonic(mnemonic)), password, params)
	if err != nil {
		return fmt.Errorf("encrypt mnemonic: %w", err)
	}
	data, err := json.MarshalIndent(snapshotFile{
		Version:           snapshotVersion,
		CreatedAt:         time.Now().UTC(),
		EncryptedMnemonic: sealed,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decrypts the mnemonic stored at path.
func ReadSnapshot(path string, password []byte) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	var sf snapshotFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return "", fmt.Errorf("parse snapshot: %w", err)
	}
	if sf.Version != snapshotVersion {
		return "", fmt.Errorf("unsupported snapshot version: %d", sf.Version)
	}
	plain, err := Open(sf.EncryptedMnemonic, password)
	if err != nil {
		return "", err
	}
	defer wipe(plain)
	return string(plain), nil
}
