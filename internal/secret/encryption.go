package secret

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the Argon2id salt length.
const SaltSize = 32

// Sealed layout: salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
const sealHeaderSize = SaltSize + 4 + 4 + 1

// ErrDecrypt is returned when a sealed secret cannot be opened, usually
// because the password is wrong.
var ErrDecrypt = errors.New("cannot decrypt secret")

// KDFParams holds Argon2id parameters.
type KDFParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultKDFParams returns the Argon2id cost used for snapshots.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func deriveSealKey(password, salt []byte, params KDFParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Seal encrypts data under password with Argon2id and XChaCha20-Poly1305.
func Seal(data, password []byte, params KDFParams) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	key := deriveSealKey(password, salt, params)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, sealHeaderSize+len(nonce)+len(data)+aead.Overhead())
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, nil), nil
}

// Open decrypts data produced by Seal.
func Open(sealed, password []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	minSize := sealHeaderSize + nonceSize + chacha20poly1305.Overhead
	if len(sealed) < minSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrDecrypt, len(sealed), minSize)
	}

	salt := sealed[:SaltSize]
	params := KDFParams{
		Memory:      binary.LittleEndian.Uint32(sealed[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(sealed[SaltSize+4:]),
		Parallelism: sealed[SaltSize+8],
	}
	nonce := sealed[sealHeaderSize : sealHeaderSize+nonceSize]
	ciphertext := sealed[sealHeaderSize+nonceSize:]

	key := deriveSealKey(password, salt, params)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}
