package output

import (
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// UnlockConditionKind tags the variant of an UnlockCondition.
type UnlockConditionKind byte

// Unlock condition kinds.
const (
	UnlockAddress                UnlockConditionKind = 0
	UnlockStorageDepositReturn   UnlockConditionKind = 1
	UnlockTimelock               UnlockConditionKind = 2
	UnlockExpiration             UnlockConditionKind = 3
	UnlockStateControllerAddress UnlockConditionKind = 4
	UnlockGovernorAddress        UnlockConditionKind = 5
	UnlockImmutableAliasAddress  UnlockConditionKind = 6
)

func (k UnlockConditionKind) String() string {
	switch k {
	case UnlockAddress:
		return "address"
	case UnlockStorageDepositReturn:
		return "storage deposit return"
	case UnlockTimelock:
		return "timelock"
	case UnlockExpiration:
		return "expiration"
	case UnlockStateControllerAddress:
		return "state controller address"
	case UnlockGovernorAddress:
		return "governor address"
	case UnlockImmutableAliasAddress:
		return "immutable alias address"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

func (k UnlockConditionKind) flag() uint16 { return 1 << k }

// UnlockCondition is one ownership or timing rule attached to an output.
type UnlockCondition interface {
	Kind() UnlockConditionKind
}

// AddressUnlockCondition locks an output to an address.
type AddressUnlockCondition struct {
	Address types.Address
}

// StorageDepositReturnUnlockCondition requires the consumer to send Amount
// back to ReturnAddress.
type StorageDepositReturnUnlockCondition struct {
	ReturnAddress types.Address
	Amount        uint64
}

// TimelockUnlockCondition forbids consumption before Timestamp.
type TimelockUnlockCondition struct {
	Timestamp uint32
}

// ExpirationUnlockCondition hands ownership to ReturnAddress once Timestamp
// is reached.
type ExpirationUnlockCondition struct {
	ReturnAddress types.Address
	Timestamp     uint32
}

// StateControllerAddressUnlockCondition names who may transition alias state.
type StateControllerAddressUnlockCondition struct {
	Address types.Address
}

// GovernorAddressUnlockCondition names who may govern an alias.
type GovernorAddressUnlockCondition struct {
	Address types.Address
}

// ImmutableAliasAddressUnlockCondition binds a foundry to its alias forever.
type ImmutableAliasAddressUnlockCondition struct {
	Address types.Address
}

// Kind implements UnlockCondition.
func (AddressUnlockCondition) Kind() UnlockConditionKind { return UnlockAddress }

func (StorageDepositReturnUnlockCondition) Kind() UnlockConditionKind { return UnlockStorageDepositReturn }

func (TimelockUnlockCondition) Kind() UnlockConditionKind { return UnlockTimelock }

func (ExpirationUnlockCondition) Kind() UnlockConditionKind { return UnlockExpiration }

func (StateControllerAddressUnlockCondition) Kind() UnlockConditionKind { return UnlockStateControllerAddress }

func (GovernorAddressUnlockCondition) Kind() UnlockConditionKind { return UnlockGovernorAddress }

func (ImmutableAliasAddressUnlockCondition) Kind() UnlockConditionKind { return UnlockImmutableAliasAddress }

// ReturnAddressExpired returns the return address once now has reached
// the expiration timestamp.
func (e ExpirationUnlockCondition) ReturnAddressExpired(now uint32) (types.Address, bool) {
	if e.Timestamp > now {
		return types.Address{}, false
	}
	return e.ReturnAddress, true
}

// IsTimelocked reports whether the output cannot be consumed at now.
func (t TimelockUnlockCondition) IsTimelocked(now uint32) bool {
	return t.Timestamp > now
}

// UnlockConditions is a validated set of unlock conditions sorted by kind.
type UnlockConditions []UnlockCondition

func newUnlockConditions(conds []UnlockCondition, allowed uint16) (UnlockConditions, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	out := make(UnlockConditions, len(conds))
	copy(out, conds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })

	for i, c := range out {
		if c == nil {
			return nil, fmt.Errorf("%w: nil unlock condition", ErrInvalidUnlockCondition)
		}
		if allowed&c.Kind().flag() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrDisallowedUnlockCondition, c.Kind())
		}
		if i > 0 && out[i-1].Kind() == c.Kind() {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUnlockCondition, c.Kind())
		}
		if err := verifyUnlockCondition(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func verifyUnlockCondition(c UnlockCondition) error {
	switch uc := c.(type) {
	case AddressUnlockCondition:
		return verifyAddress(uc.Address, "address")
	case StorageDepositReturnUnlockCondition:
		if uc.Amount < AmountMin {
			return fmt.Errorf("%w: storage deposit return amount %d", ErrInvalidUnlockCondition, uc.Amount)
		}
		return verifyAddress(uc.ReturnAddress, "return address")
	case TimelockUnlockCondition:
		if uc.Timestamp == 0 {
			return fmt.Errorf("%w: timelock timestamp is zero", ErrInvalidUnlockCondition)
		}
	case ExpirationUnlockCondition:
		if uc.Timestamp == 0 {
			return fmt.Errorf("%w: expiration timestamp is zero", ErrInvalidUnlockCondition)
		}
		return verifyAddress(uc.ReturnAddress, "return address")
	case StateControllerAddressUnlockCondition:
		return verifyAddress(uc.Address, "state controller address")
	case GovernorAddressUnlockCondition:
		return verifyAddress(uc.Address, "governor address")
	case ImmutableAliasAddressUnlockCondition:
		if uc.Address.Kind != types.AddressAlias {
			return fmt.Errorf("%w: immutable alias address has kind %s", ErrInvalidUnlockCondition, uc.Address.Kind)
		}
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidUnlockCondition, c)
	}
	return nil
}

func verifyAddress(a types.Address, what string) error {
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: %s has unknown kind %d", ErrInvalidUnlockCondition, what, byte(a.Kind))
	}
	return nil
}

func (u UnlockConditions) get(kind UnlockConditionKind) UnlockCondition {
	for _, c := range u {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// Address returns the address unlock condition.
func (u UnlockConditions) Address() (AddressUnlockCondition, bool) {
	c, ok := u.get(UnlockAddress).(AddressUnlockCondition)
	return c, ok
}

// StorageDepositReturn returns the storage deposit return unlock condition.
func (u UnlockConditions) StorageDepositReturn() (StorageDepositReturnUnlockCondition, bool) {
	c, ok := u.get(UnlockStorageDepositReturn).(StorageDepositReturnUnlockCondition)
	return c, ok
}

// Timelock returns the timelock unlock condition.
func (u UnlockConditions) Timelock() (TimelockUnlockCondition, bool) {
	c, ok := u.get(UnlockTimelock).(TimelockUnlockCondition)
	return c, ok
}

// Expiration returns the expiration unlock condition.
func (u UnlockConditions) Expiration() (ExpirationUnlockCondition, bool) {
	c, ok := u.get(UnlockExpiration).(ExpirationUnlockCondition)
	return c, ok
}

// StateControllerAddress returns the state controller unlock condition.
func (u UnlockConditions) StateControllerAddress() (StateControllerAddressUnlockCondition, bool) {
	c, ok := u.get(UnlockStateControllerAddress).(StateControllerAddressUnlockCondition)
	return c, ok
}

// GovernorAddress returns the governor unlock condition.
func (u UnlockConditions) GovernorAddress() (GovernorAddressUnlockCondition, bool) {
	c, ok := u.get(UnlockGovernorAddress).(GovernorAddressUnlockCondition)
	return c, ok
}

// ImmutableAliasAddress returns the immutable alias unlock condition.
func (u UnlockConditions) ImmutableAliasAddress() (ImmutableAliasAddressUnlockCondition, bool) {
	c, ok := u.get(UnlockImmutableAliasAddress).(ImmutableAliasAddressUnlockCondition)
	return c, ok
}

// IsTimelocked reports whether a timelock prevents consumption at now.
func (u UnlockConditions) IsTimelocked(now uint32) bool {
	tl, ok := u.Timelock()
	return ok && tl.IsTimelocked(now)
}

// IsExpired reports whether an expiration condition has passed at now.
func (u UnlockConditions) IsExpired(now uint32) bool {
	exp, ok := u.Expiration()
	if !ok {
		return false
	}
	_, expired := exp.ReturnAddressExpired(now)
	return expired
}

// LockedAddress returns the address that can unlock the output at now:
// the expiration return address once expired, otherwise address.
func (u UnlockConditions) LockedAddress(address types.Address, now uint32) types.Address {
	if exp, ok := u.Expiration(); ok {
		if ret, expired := exp.ReturnAddressExpired(now); expired {
			return ret
		}
	}
	return address
}

// HasTimeDependence reports whether the set contains conditions whose
// effect depends on the current time or on a deposit being returned.
func (u UnlockConditions) HasTimeDependence() bool {
	for _, c := range u {
		switch c.Kind() {
		case UnlockTimelock, UnlockExpiration, UnlockStorageDepositReturn:
			return true
		}
	}
	return false
}

func (u UnlockConditions) clone() UnlockConditions {
	if u == nil {
		return nil
	}
	out := make(UnlockConditions, len(u))
	copy(out, u)
	return out
}
