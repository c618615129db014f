package secret

import (
	"context"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-ledger/internal/metrics"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/rs/zerolog"
)

// GenerateAddressesOptions selects a range of addresses to derive.
type GenerateAddressesOptions struct {
	CoinType     uint32
	AccountIndex uint32
	Start        uint32
	Count        uint32
	// Internal selects the change chain (change = 1).
	Internal bool
}

// MnemonicManager signs with keys derived from a BIP-39 mnemonic.
type MnemonicManager struct {
	mu     sync.RWMutex
	master *HDKey
	logger zerolog.Logger
}

// Option configures a MnemonicManager.
type Option func(*MnemonicManager)

// WithLogger sets the manager's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *MnemonicManager) { m.logger = l }
}

// NewMnemonicManager creates a manager from a mnemonic and optional
// BIP-39 passphrase.
func NewMnemonicManager(mnemonic, passphrase string, opts ...Option) (*MnemonicManager, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	m := &MnemonicManager{master: master, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewMnemonicManagerFromSnapshot loads the mnemonic from an encrypted
// snapshot file.
func NewMnemonicManagerFromSnapshot(path string, password []byte, opts ...Option) (*MnemonicManager, error) {
	mnemonic, err := ReadSnapshot(path, password)
	if err != nil {
		return nil, err
	}
	return NewMnemonicManager(mnemonic, "", opts...)
}

func (m *MnemonicManager) derive(chain types.Bip44) (*HDKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.master == nil {
		return nil, fmt.Errorf("secret manager closed")
	}
	return m.master.DeriveChain(chain)
}

// GenerateEd25519Addresses derives Count addresses starting at Start.
func (m *MnemonicManager) GenerateEd25519Addresses(ctx context.Context, opts GenerateAddressesOptions) ([]types.Address, error) {
	change := uint32(0)
	if opts.Internal {
		change = 1
	}
	addrs := make([]types.Address, 0, opts.Count)
	for i := uint32(0); i < opts.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key, err := m.derive(types.Bip44{
			CoinType:     opts.CoinType,
			Account:      opts.AccountIndex,
			Change:       change,
			AddressIndex: opts.Start + i,
		})
		if err != nil {
			return nil, err
		}
		addr, err := key.Address()
		key.Zero()
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// SignTransaction builds the unlocks of prepared. Every input signed with a
// key must carry its derivation path, and the derived key must own the
// address that unlocks the input at now.
func (m *MnemonicManager) SignTransaction(ctx context.Context, prepared *tx.PreparedTransactionData, now uint32) (*tx.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	signed := 0
	unlocks, err := tx.BuildUnlocks(prepared.Essence, prepared.InputsData, now,
		func(addr types.Address, chain *types.Bip44, msg []byte) (*crypto.Ed25519Signature, error) {
			if chain == nil {
				return nil, fmt.Errorf("%w: address %s", ErrMissingChain, addr)
			}
			key, err := m.derive(*chain)
			if err != nil {
				return nil, err
			}
			defer key.Zero()
			signer, err := key.Signer()
			if err != nil {
				return nil, err
			}
			defer signer.Zero()
			if signer.Address() != addr {
				return nil, fmt.Errorf("%w: %s at %s", ErrAddressMismatch, addr, chain)
			}
			signed++
			return signer.Sign(msg), nil
		})
	if err != nil {
		return nil, err
	}
	metrics.SignaturesCreated.Add(float64(signed))
	m.logger.Debug().
		Int("inputs", len(prepared.InputsData)).
		Int("signatures", signed).
		Msg("Signed transaction essence")
	return &tx.Transaction{Essence: *prepared.Essence, Unlocks: unlocks}, nil
}

// LedgerNanoStatus is only available on hardware signers.
func (m *MnemonicManager) LedgerNanoStatus(ctx context.Context) (*LedgerNanoStatus, error) {
	return nil, ErrUnsupported
}

// Close wipes the master key. The manager cannot sign afterwards.
func (m *MnemonicManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.master != nil {
		m.master.Zero()
		m.master = nil
	}
	return nil
}
