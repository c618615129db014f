package types

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Bech32Encode encodes a human-readable part and data bytes into a bech32 string.
func Bech32Encode(hrp string, data []byte) (string, error) {
	if len(hrp) == 0 {
		return "", fmt.Errorf("bech32: empty HRP")
	}
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("bech32: convert bits: %w", err)
	}
	return bech32.Encode(hrp, conv)
}

// Bech32Decode decodes a bech32 string into its HRP and data bytes.
func Bech32Decode(s string) (string, []byte, error) {
	hrp, conv, err := bech32.Decode(s)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: %w", err)
	}
	data, err := bech32.ConvertBits(conv, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: convert bits: %w", err)
	}
	return hrp, data, nil
}

// Bech32 encodes the address with the given HRP.
func (a Address) Bech32(hrp string) (string, error) {
	return Bech32Encode(hrp, a.Bytes())
}

// ParseBech32Address decodes a bech32 address and returns its HRP.
func ParseBech32Address(s string) (string, Address, error) {
	if s == "" {
		return "", Address{}, InvalidField("address", fmt.Errorf("empty address"))
	}
	hrp, data, err := Bech32Decode(s)
	if err != nil {
		return "", Address{}, InvalidField("address", err)
	}
	addr, err := AddressFromBytes(data)
	if err != nil {
		return "", Address{}, InvalidField("address", err)
	}
	return hrp, addr, nil
}
