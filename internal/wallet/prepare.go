package wallet

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/internal/token"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/holiman/uint256"
)

// RemainderValueStrategy selects where leftover funds go.
type RemainderValueStrategy int

const (
	// RemainderReuseAddress sends the remainder to the address of the
	// first input.
	RemainderReuseAddress RemainderValueStrategy = iota
	// RemainderChangeAddress sends it to a newly generated internal
	// address.
	RemainderChangeAddress
	// RemainderCustomAddress sends it to TransactionOptions.RemainderAddress.
	RemainderCustomAddress
)

// TransactionOptions tune how a transaction is prepared.
type TransactionOptions struct {
	RemainderValueStrategy RemainderValueStrategy
	RemainderAddress       *types.Address
	TaggedDataPayload      *tx.TaggedDataPayload

	// CustomInputs, when set, are the only inputs considered.
	CustomInputs []types.OutputID
	// MandatoryInputs are always consumed; more are added as needed.
	MandatoryInputs []types.OutputID

	Burn *tx.Burn
	Note string
}

func (o *TransactionOptions) clone() *TransactionOptions {
	if o == nil {
		return &TransactionOptions{}
	}
	c := *o
	c.CustomInputs = append([]types.OutputID(nil), o.CustomInputs...)
	c.MandatoryInputs = append([]types.OutputID(nil), o.MandatoryInputs...)
	if o.Burn != nil {
		b := tx.Burn{
			Aliases:   append([]types.AliasID(nil), o.Burn.Aliases...),
			Nfts:      append([]types.NftID(nil), o.Burn.Nfts...),
			Foundries: append([]types.FoundryID(nil), o.Burn.Foundries...),
		}
		for id, amount := range o.Burn.NativeTokens {
			b.AddNativeToken(id, amount)
		}
		c.Burn = &b
	}
	return &c
}

func burnIsEmpty(b *tx.Burn) bool {
	return b == nil || len(b.Aliases)+len(b.Nfts)+len(b.Foundries)+len(b.NativeTokens) == 0
}

// PrepareTransaction selects inputs for outputs and builds the unsigned
// transaction.
func (a *Account) PrepareTransaction(ctx context.Context, outputs []output.Output, opts *TransactionOptions) (*tx.PreparedTransactionData, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	return a.prepareTransaction(ctx, outputs, opts.clone())
}

// inputSelection accumulates the inputs of a transaction in pick order.
type inputSelection struct {
	inputs []OutputData
	picked map[types.OutputID]struct{}
}

func (s *inputSelection) add(list ...OutputData) {
	for _, o := range list {
		if _, ok := s.picked[o.OutputID]; ok {
			continue
		}
		s.picked[o.OutputID] = struct{}{}
		s.inputs = append(s.inputs, o)
	}
}

func (s *inputSelection) remaining(candidates []OutputData) []OutputData {
	var out []OutputData
	for _, o := range candidates {
		if _, ok := s.picked[o.OutputID]; !ok {
			out = append(out, o)
		}
	}
	return out
}

func (s *inputSelection) totals() (uint64, token.Balances, error) {
	var base uint64
	outs := make([]output.Output, len(s.inputs))
	for i, o := range s.inputs {
		base += o.Output.Amount()
		outs[i] = o.Output
	}
	nts, err := token.SumNativeTokens(outs)
	return base, nts, err
}

type prepareContext struct {
	supply    uint64
	rent      output.RentStructure
	networkID uint64
	now       uint32
	owned     types.AddressSet
	derived   types.AddressSet
	unspent   map[types.OutputID]OutputData
	locked    map[types.OutputID]struct{}
}

func (a *Account) newPrepareContext(ctx context.Context) (*prepareContext, error) {
	supply, err := a.client.TokenSupply(ctx)
	if err != nil {
		return nil, err
	}
	rent, err := a.client.RentStructure(ctx)
	if err != nil {
		return nil, err
	}
	networkID, err := a.client.NetworkID(ctx)
	if err != nil {
		return nil, err
	}
	now, err := a.client.TimeChecked(ctx)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return &prepareContext{
		supply:    supply,
		rent:      rent,
		networkID: networkID,
		now:       now,
		owned:     a.addressSet(),
		derived:   a.derivedAddresses(),
		unspent:   copyMap(a.details.UnspentOutputs),
		locked:    copyMap(a.details.LockedOutputs),
	}, nil
}

// pinned returns an explicitly requested input after checking it can be
// consumed now.
func (pc *prepareContext) pinned(id types.OutputID) (OutputData, error) {
	o, ok := pc.unspent[id]
	if !ok {
		return OutputData{}, fmt.Errorf("%w: %s", ErrCustomInputNotFound, id)
	}
	if _, isLocked := pc.locked[id]; isLocked {
		return OutputData{}, fmt.Errorf("%w: %s", ErrCustomInputLocked, id)
	}
	governance := AliasGovernanceTransition
	if !CanUnlockNow(pc.owned, pc.derived, o.Output, pc.now, nil) &&
		!CanUnlockNow(pc.owned, pc.derived, o.Output, pc.now, &governance) {
		return OutputData{}, fmt.Errorf("%w: %s", ErrCustomInputNotUnlockable, id)
	}
	return o, nil
}

// candidates returns the outputs automatic selection may use: unlocked
// basic outputs owned by an account address without a deposit to return.
func (pc *prepareContext) candidates() []OutputData {
	var out []OutputData
	for id, o := range pc.unspent {
		if _, isLocked := pc.locked[id]; isLocked {
			continue
		}
		if o.Output.Kind() != output.KindBasic {
			continue
		}
		if _, sdr := o.Output.UnlockConditions().StorageDepositReturn(); sdr {
			continue
		}
		if !CanUnlockNow(pc.owned, nil, o.Output, pc.now, nil) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].OutputID[:], out[j].OutputID[:]) < 0
	})
	return out
}

// burnedChainInputs returns the outputs of the aliases, NFTs and
// foundries burn destroys.
func (pc *prepareContext) burnedChainInputs(burn *tx.Burn) ([]OutputData, error) {
	if burnIsEmpty(burn) {
		return nil, nil
	}
	var out []OutputData
	for id, o := range pc.unspent {
		switch v := o.Output.(type) {
		case *output.NftOutput:
			if burn.ContainsNft(v.NftIDNonNull(id)) {
				out = append(out, o)
			}
		case *output.AliasOutput:
			if burn.ContainsAlias(v.AliasIDNonNull(id)) {
				out = append(out, o)
			}
		case *output.FoundryOutput:
			if burn.ContainsFoundry(v.ID()) {
				out = append(out, o)
			}
		}
	}
	if len(out) != len(burn.Nfts)+len(burn.Aliases)+len(burn.Foundries) {
		return nil, fmt.Errorf("%w: not every burned alias, nft or foundry is held", ErrBurningOrMeltingFailed)
	}
	for _, o := range out {
		if _, err := pc.pinned(o.OutputID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (a *Account) prepareTransaction(ctx context.Context, outputs []output.Output, opts *TransactionOptions) (*tx.PreparedTransactionData, error) {
	if len(outputs) == 0 && burnIsEmpty(opts.Burn) {
		return nil, ErrEmptyOutputs
	}
	pc, err := a.newPrepareContext(ctx)
	if err != nil {
		return nil, err
	}
	for i, out := range outputs {
		if err := output.VerifyStorageDeposit(out, pc.rent, pc.supply); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}

	sel := &inputSelection{picked: make(map[types.OutputID]struct{})}
	for _, id := range append(append([]types.OutputID(nil), opts.CustomInputs...), opts.MandatoryInputs...) {
		o, err := pc.pinned(id)
		if err != nil {
			return nil, err
		}
		sel.add(o)
	}
	burned, err := pc.burnedChainInputs(opts.Burn)
	if err != nil {
		return nil, err
	}
	sel.add(burned...)

	candidates := pc.candidates()
	if len(opts.CustomInputs) > 0 {
		candidates = nil
	}

	var requiredBase uint64
	for _, out := range outputs {
		requiredBase += out.Amount()
	}
	requiredTokens, err := token.SumNativeTokens(outputs)
	if err != nil {
		return nil, err
	}
	if opts.Burn != nil {
		for id, amount := range opts.Burn.NativeTokens {
			if err := requiredTokens.Add(id, amount); err != nil {
				return nil, err
			}
		}
	}

	remainderAddr, err := a.remainderAddress(ctx, opts)
	if err != nil {
		return nil, err
	}

	var remainder output.Output
	for {
		inBase, inTokens, err := sel.totals()
		if err != nil {
			return nil, err
		}

		if picked, err := a.coverTokens(sel, candidates, inTokens, requiredTokens); err != nil {
			return nil, err
		} else if picked {
			continue
		}

		if inBase < requiredBase {
			if err := a.coverBase(sel, candidates, requiredBase-inBase); err != nil {
				return nil, err
			}
			continue
		}

		leftover := inBase - requiredBase
		leftoverTokens, err := subtractTokens(inTokens, requiredTokens)
		if err != nil {
			return nil, err
		}
		if leftover == 0 && len(leftoverTokens) == 0 {
			break
		}

		addr := remainderAddr
		if addr == nil {
			addr = reuseAddress(sel.inputs, pc.owned)
		}
		if addr == nil {
			first, err := a.FirstAddress()
			if err != nil {
				return nil, err
			}
			addr = &first
		}
		minimum, err := output.NewBasicOutputBuilderWithMinimumStorageDeposit(pc.rent).
			WithNativeTokens(leftoverTokens).
			AddUnlockCondition(output.AddressUnlockCondition{Address: *addr}).
			Finish(pc.supply)
		if err != nil {
			return nil, fmt.Errorf("remainder: %w", err)
		}
		if leftover < minimum.Amount() {
			if err := a.coverBase(sel, candidates, minimum.Amount()-leftover); err != nil {
				return nil, err
			}
			continue
		}
		remainder, err = output.NewBasicOutputBuilder(leftover).
			WithNativeTokens(leftoverTokens).
			AddUnlockCondition(output.AddressUnlockCondition{Address: *addr}).
			Finish(pc.supply)
		if err != nil {
			return nil, fmt.Errorf("remainder: %w", err)
		}
		remainderAddr = addr
		break
	}

	if len(sel.inputs) > tx.MaxInputsCount {
		return nil, fmt.Errorf("%w: %d inputs, max %d", tx.ErrTooManyInputs, len(sel.inputs), tx.MaxInputsCount)
	}
	if err := checkChainTransitions(sel.inputs, outputs, opts.Burn); err != nil {
		return nil, err
	}

	inputs := orderInputs(sel.inputs)
	builder := tx.NewBuilder(pc.networkID)
	for _, in := range inputs {
		builder.AddInput(in.OutputID, in.Output)
	}
	for _, out := range outputs {
		builder.AddOutput(out)
	}
	if remainder != nil {
		builder.AddOutput(remainder)
	}
	if p := opts.TaggedDataPayload; p != nil {
		builder.SetTaggedData(p.Tag, p.Data)
	}
	essence := builder.Build()
	if err := essence.Validate(); err != nil {
		return nil, err
	}
	if err := essence.ValidateWithInputs(builder.Consumed()); err != nil {
		return nil, err
	}
	if err := token.ValidateTransition(builder.Consumed(), essence.Outputs, opts.Burn); err != nil {
		return nil, err
	}

	prepared := &tx.PreparedTransactionData{Essence: essence}
	for _, in := range inputs {
		prepared.InputsData = append(prepared.InputsData, in.InputSigningData())
	}
	if remainder != nil {
		a.mu.RLock()
		chain := a.chainFor(*remainderAddr)
		a.mu.RUnlock()
		prepared.Remainder = &tx.RemainderData{Output: remainder, Chain: chain, Address: *remainderAddr}
	}
	a.logger.Debug().
		Int("inputs", len(inputs)).
		Int("outputs", len(essence.Outputs)).
		Bool("remainder", remainder != nil).
		Msg("Prepared transaction")
	return prepared, nil
}

// coverTokens adds inputs for every token the selection lacks. picked
// reports whether anything was added.
func (a *Account) coverTokens(sel *inputSelection, candidates []OutputData, have, need token.Balances) (picked bool, err error) {
	ids := make([]types.TokenID, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	for _, id := range ids {
		got := have.Get(id)
		if got.Cmp(need[id]) >= 0 {
			continue
		}
		missing := new(uint256.Int).Sub(need[id], got)
		more, err := SelectNativeTokens(sel.remaining(candidates), id, missing)
		if err != nil {
			return false, err
		}
		sel.add(more...)
		picked = true
	}
	return picked, nil
}

func (a *Account) coverBase(sel *inputSelection, candidates []OutputData, amount uint64) error {
	remaining := sel.remaining(candidates)
	if len(remaining) == 0 {
		return fmt.Errorf("%w: %d more needed", ErrInsufficientFunds, amount)
	}
	selection, err := SelectCoins(remaining, amount)
	if err != nil {
		return err
	}
	sel.add(selection.Inputs...)
	return nil
}

// subtractTokens returns have minus need, keeping positive entries only.
func subtractTokens(have, need token.Balances) (output.NativeTokens, error) {
	builder := make(output.NativeTokensBuilder)
	for id, amount := range have {
		left := new(uint256.Int).Sub(amount, need.Get(id))
		if left.IsZero() {
			continue
		}
		if err := builder.Add(id, left); err != nil {
			return nil, err
		}
	}
	return builder.Finish()
}

// remainderAddress resolves the remainder address chosen up front. nil
// means reuse an input address.
func (a *Account) remainderAddress(ctx context.Context, opts *TransactionOptions) (*types.Address, error) {
	switch opts.RemainderValueStrategy {
	case RemainderChangeAddress:
		generated, err := a.generateAddresses(ctx, 1, true)
		if err != nil {
			return nil, err
		}
		return &generated[0].Address, nil
	case RemainderCustomAddress:
		if opts.RemainderAddress == nil {
			return nil, fmt.Errorf("custom remainder strategy without an address")
		}
		addr := *opts.RemainderAddress
		return &addr, nil
	default:
		return nil, nil
	}
}

func reuseAddress(inputs []OutputData, owned types.AddressSet) *types.Address {
	for _, in := range inputs {
		if in.Address.Kind == types.AddressEd25519 && owned.Contains(in.Address) {
			addr := in.Address
			return &addr
		}
	}
	return nil
}

// checkChainTransitions rejects consumed aliases and NFTs that are
// neither burned nor continued by an output with the same id.
func checkChainTransitions(inputs []OutputData, outputs []output.Output, burn *tx.Burn) error {
	for _, in := range inputs {
		switch v := in.Output.(type) {
		case *output.NftOutput:
			id := v.NftIDNonNull(in.OutputID)
			if burn.ContainsNft(id) || containsNft(outputs, id) {
				continue
			}
			return fmt.Errorf("%w: nft %s", ErrChainInputNotTransitioned, id)
		case *output.AliasOutput:
			id := v.AliasIDNonNull(in.OutputID)
			if burn.ContainsAlias(id) || containsAlias(outputs, id) {
				continue
			}
			return fmt.Errorf("%w: alias %s", ErrChainInputNotTransitioned, id)
		}
	}
	return nil
}

func containsNft(outputs []output.Output, id types.NftID) bool {
	for _, out := range outputs {
		if n, ok := out.(*output.NftOutput); ok && n.NftID() == id {
			return true
		}
	}
	return false
}

func containsAlias(outputs []output.Output, id types.AliasID) bool {
	for _, out := range outputs {
		if al, ok := out.(*output.AliasOutput); ok && al.AliasID() == id {
			return true
		}
	}
	return false
}

// orderInputs puts aliases first and NFTs second so that inputs owned by
// them can reference an earlier unlock.
func orderInputs(inputs []OutputData) []OutputData {
	rank := func(o OutputData) int {
		switch o.Output.Kind() {
		case output.KindAlias:
			return 0
		case output.KindNft:
			return 1
		default:
			return 2
		}
	}
	ordered := append([]OutputData(nil), inputs...)
	sort.SliceStable(ordered, func(i, j int) bool { return rank(ordered[i]) < rank(ordered[j]) })
	return ordered
}
