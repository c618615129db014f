package wallet

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// AliasTransition selects which controller unlocks an alias output.
type AliasTransition int

const (
	// AliasStateTransition is unlocked by the state controller.
	AliasStateTransition AliasTransition = iota
	// AliasGovernanceTransition is unlocked by the governor.
	AliasGovernanceTransition
)

// EffectiveAddress returns the address that can unlock out at now. ok is
// false when nothing can unlock it now: treasury outputs and timelocked
// outputs.
func EffectiveAddress(out output.Output, now uint32, override *AliasTransition) (addr types.Address, ok bool) {
	conds := out.UnlockConditions()
	if conds.IsTimelocked(now) {
		return types.Address{}, false
	}
	switch o := out.(type) {
	case *output.AliasOutput:
		if override != nil && *override == AliasGovernanceTransition {
			return o.GovernorAddress(), true
		}
		return o.StateControllerAddress(), true
	case *output.FoundryOutput:
		return o.AliasAddress(), true
	case *output.BasicOutput, *output.NftOutput:
		uc, found := conds.Address()
		if !found {
			return types.Address{}, false
		}
		return conds.LockedAddress(uc.Address, now), true
	default:
		return types.Address{}, false
	}
}

// CanUnlockNow reports whether out can be consumed at now by one of the
// owned addresses or by an alias or NFT address derived from the account's
// outputs. An expired output belongs to its return address only.
func CanUnlockNow(owned, derived types.AddressSet, out output.Output, now uint32, override *AliasTransition) bool {
	addr, ok := EffectiveAddress(out, now, override)
	if !ok {
		return false
	}
	return owned.Contains(addr) || derived.Contains(addr)
}

// derivedAddresses returns the alias and NFT addresses of unspent outputs.
// Caller holds mu.
func (a *Account) derivedAddresses() types.AddressSet {
	set := make(types.AddressSet)
	for id, o := range a.details.UnspentOutputs {
		switch out := o.Output.(type) {
		case *output.AliasOutput:
			set[out.AliasIDNonNull(id).ToAddress()] = struct{}{}
		case *output.NftOutput:
			set[out.NftIDNonNull(id).ToAddress()] = struct{}{}
		}
	}
	return set
}
