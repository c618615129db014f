// Package secret derives Ed25519 keys from a BIP-39 mnemonic and signs
// prepared transactions. Keys never leave the manager; callers hand in a
// prepared transaction and get back the signed payload.
package secret

import (
	"errors"
	"fmt"
)

// Secret manager errors.
var (
	ErrSecretManagerMismatch = errors.New("secret manager mismatch")
	ErrUnsupported           = fmt.Errorf("operation not supported by this secret manager: %w", ErrSecretManagerMismatch)
	ErrInvalidMnemonic       = errors.New("invalid mnemonic")
	ErrMissingChain          = errors.New("input has no derivation path")
	ErrAddressMismatch       = errors.New("derived key does not match input address")
	ErrNonHardenedIndex      = errors.New("ed25519 derivation requires hardened indexes")
)

// LedgerApp describes the app opened on a hardware device.
type LedgerApp struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// LedgerNanoStatus is the state of a connected hardware signer.
type LedgerNanoStatus struct {
	Connected  bool       `json:"connected"`
	Locked     bool       `json:"locked"`
	Blind      bool       `json:"blindSigningEnabled"`
	App        *LedgerApp `json:"app,omitempty"`
	Device     string     `json:"device,omitempty"`
	BufferSize uint32     `json:"bufferSize,omitempty"`
}
