// Package token tracks native tokens held by wallet outputs.
//
// Native tokens are minted and melted by foundries and ride on outputs as
// (TokenID, amount) pairs. Across a transaction the amount of every token
// is conserved: inputs plus newly minted supply equal outputs plus melted
// supply plus what the transaction declares as burned.
//
// Foundries may describe their token with IRC30 metadata stored in an
// immutable metadata feature. This package decodes it and keeps it in a
// local store so balances can show names and symbols.
package token

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// IRC30 is the metadata standard identifier for native tokens.
const IRC30 = "IRC30"

// Metadata errors.
var (
	ErrNotIRC30      = errors.New("metadata is not IRC30")
	ErrMissingName   = errors.New("token name is required")
	ErrMissingSymbol = errors.New("token symbol is required")
)

// Metadata holds descriptive information about a token.
type Metadata struct {
	Standard    string `json:"standard"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Symbol      string `json:"symbol"`
	Decimals    uint32 `json:"decimals"`
	URL         string `json:"url,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
	Logo        string `json:"logo,omitempty"`
}

// NewMetadata returns IRC30 metadata with the required fields set.
func NewMetadata(name, symbol string, decimals uint32) *Metadata {
	return &Metadata{Standard: IRC30, Name: name, Symbol: symbol, Decimals: decimals}
}

// Validate checks the required IRC30 fields.
func (m *Metadata) Validate() error {
	if m.Standard != IRC30 {
		return fmt.Errorf("%w: standard %q", ErrNotIRC30, m.Standard)
	}
	if strings.TrimSpace(m.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(m.Symbol) == "" {
		return ErrMissingSymbol
	}
	return nil
}

// Encode returns the JSON bytes stored in a foundry metadata feature.
func (m *Metadata) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// ParseMetadata decodes and validates IRC30 metadata.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotIRC30, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
