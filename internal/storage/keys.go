package storage

import "strconv"

// Key prefixes. Per-account keys are the prefix followed by the decimal
// account index.
const (
	AccountKeyPrefix                    = "wallet-account-"
	AccountIndexesKey                   = "wallet-accounts"
	ParticipationEventsKeyPrefix        = "participation-events-"
	ParticipationCachedOutputsKeyPrefix = "participation-cached-outputs-"
)

func accountKey(prefix string, accountIndex uint32) string {
	return prefix + strconv.FormatUint(uint64(accountIndex), 10)
}

// AccountKey returns the key of an account snapshot.
func AccountKey(accountIndex uint32) string {
	return accountKey(AccountKeyPrefix, accountIndex)
}

// ParticipationEventsKey returns the key of an account's tracked events.
func ParticipationEventsKey(accountIndex uint32) string {
	return accountKey(ParticipationEventsKeyPrefix, accountIndex)
}

// ParticipationCachedOutputsKey returns the key of an account's cached
// participation output statuses.
func ParticipationCachedOutputsKey(accountIndex uint32) string {
	return accountKey(ParticipationCachedOutputsKeyPrefix, accountIndex)
}
