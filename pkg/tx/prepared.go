package tx

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// InputSigningData is a consumed output together with what a signer needs
// to unlock it.
type InputSigningData struct {
	Output   output.Output
	OutputID types.OutputID
	Metadata api.OutputMetadata
	// Chain is the derivation path of the owning key, nil when the output
	// is unlocked through an alias or NFT.
	Chain *types.Bip44
}

// RemainderData describes the output returning leftover funds.
type RemainderData struct {
	Output  output.Output
	Chain   *types.Bip44
	Address types.Address
}

// PreparedTransactionData is an unsigned essence plus its signing inputs.
type PreparedTransactionData struct {
	Essence    *Essence
	InputsData []InputSigningData
	Remainder  *RemainderData
}

// ConsumedOutputs returns the outputs consumed, in input order.
func (p *PreparedTransactionData) ConsumedOutputs() []output.Output {
	outs := make([]output.Output, len(p.InputsData))
	for i, in := range p.InputsData {
		outs[i] = in.Output
	}
	return outs
}
