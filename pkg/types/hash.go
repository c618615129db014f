// Package types defines the canonical identifiers and addresses of the ledger.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// HexPrefix prefixes every hex string exposed by the API.
const HexPrefix = "0x"

// ErrInvalidField is matched by every InvalidFieldError.
var ErrInvalidField = errors.New("invalid field")

// InvalidFieldError names the field that failed to decode.
type InvalidFieldError struct {
	Field string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid field %q", e.Field)
	}
	return fmt.Sprintf("invalid field %q: %v", e.Field, e.Err)
}

// Is reports whether target is ErrInvalidField.
func (e *InvalidFieldError) Is(target error) bool {
	return target == ErrInvalidField
}

func (e *InvalidFieldError) Unwrap() error {
	return e.Err
}

// InvalidField wraps err with the name of the field that caused it.
// An error that already names a field is returned unchanged.
func InvalidField(field string, err error) error {
	var fe *InvalidFieldError
	if errors.As(err, &fe) {
		return err
	}
	return &InvalidFieldError{Field: field, Err: err}
}

// Hash represents a 256-bit hash value.
type Hash [HashSize]byte

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the 0x-prefixed hex-encoded hash.
func (h Hash) String() string {
	return EncodeHex(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalText encodes the hash as a 0x-prefixed hex string.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a 0x-prefixed hex string into a hash.
func (h *Hash) UnmarshalText(text []byte) error {
	return DecodeHexInto("hash", string(text), h[:])
}

// HexToHash converts a 0x-prefixed hex string to a Hash.
func HexToHash(s string) (Hash, error) {
	var h Hash
	err := DecodeHexInto("hash", s, h[:])
	return h, err
}

// EncodeHex returns b as a 0x-prefixed lowercase hex string.
func EncodeHex(b []byte) string {
	return HexPrefix + hex.EncodeToString(b)
}

// DecodeHex decodes a 0x-prefixed hex string.
func DecodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, HexPrefix) {
		return nil, fmt.Errorf("hex string %q has no %s prefix", s, HexPrefix)
	}
	b, err := hex.DecodeString(s[len(HexPrefix):])
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// DecodeHexInto decodes s into dst, which must match the decoded length
// exactly. Errors name field.
func DecodeHexInto(field, s string, dst []byte) error {
	b, err := DecodeHex(s)
	if err != nil {
		return InvalidField(field, err)
	}
	if len(b) != len(dst) {
		return InvalidField(field, fmt.Errorf("must be %d bytes, got %d", len(dst), len(b)))
	}
	copy(dst, b)
	return nil
}
