package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Klingon-tech/klingnet-ledger/pkg/participation"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/rs/zerolog"
)

// ParticipationEvents maps event ids to tracked events.
type ParticipationEvents = map[participation.EventID]participation.EventWithNodes

// ParticipationOutputStatuses maps output ids to cached node responses.
type ParticipationOutputStatuses = map[types.OutputID]participation.OutputStatusResponse

// Manager serialises read-modify-write sequences against a DB.
type Manager struct {
	mu     sync.Mutex
	db     DB
	logger zerolog.Logger
}

// NewManager creates a manager over db.
func NewManager(db DB, logger zerolog.Logger) *Manager {
	return &Manager{db: db, logger: logger}
}

// DB returns the underlying store.
func (m *Manager) DB() DB {
	return m.db
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.db.Close()
}

// AccountIndexes returns the indexes of all persisted accounts in
// ascending order.
func (m *Manager) AccountIndexes() ([]uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	indexes, _, err := Get[[]uint32](m.db, AccountIndexesKey)
	return indexes, err
}

// AddAccountIndex records accountIndex in the account list.
func (m *Manager) AddAccountIndex(accountIndex uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	indexes, _, err := Get[[]uint32](m.db, AccountIndexesKey)
	if err != nil {
		return err
	}
	for _, i := range indexes {
		if i == accountIndex {
			return nil
		}
	}
	indexes = append(indexes, accountIndex)
	sort.Slice(indexes, func(a, b int) bool { return indexes[a] < indexes[b] })
	return Set(m.db, AccountIndexesKey, indexes)
}

// InsertParticipationEvent adds or replaces a tracked event for an account.
func (m *Manager) InsertParticipationEvent(accountIndex uint32, event participation.EventWithNodes) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ParticipationEventsKey(accountIndex)
	events, _, err := Get[ParticipationEvents](m.db, key)
	if err != nil {
		return err
	}
	if events == nil {
		events = make(ParticipationEvents)
	}
	events[event.ID] = event
	if err := Set(m.db, key, events); err != nil {
		return fmt.Errorf("insert participation event %s: %w", event.ID, err)
	}
	m.logger.Debug().
		Uint32("account", accountIndex).
		Str("event", event.ID.String()).
		Msg("Stored participation event")
	return nil
}

// RemoveParticipationEvent stops tracking an event. Removing an unknown
// event is a no-op.
func (m *Manager) RemoveParticipationEvent(accountIndex uint32, id participation.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ParticipationEventsKey(accountIndex)
	events, found, err := Get[ParticipationEvents](m.db, key)
	if err != nil || !found {
		return err
	}
	if _, ok := events[id]; !ok {
		return nil
	}
	delete(events, id)
	if err := Set(m.db, key, events); err != nil {
		return fmt.Errorf("remove participation event %s: %w", id, err)
	}
	return nil
}

// ParticipationEvents returns the events tracked by an account. The map is
// empty, not nil, when nothing is stored.
func (m *Manager) ParticipationEvents(accountIndex uint32) (ParticipationEvents, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events, _, err := Get[ParticipationEvents](m.db, ParticipationEventsKey(accountIndex))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = make(ParticipationEvents)
	}
	return events, nil
}

// SetCachedParticipationOutputStatus replaces an account's cached output
// statuses.
func (m *Manager) SetCachedParticipationOutputStatus(accountIndex uint32, statuses ParticipationOutputStatuses) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Set(m.db, ParticipationCachedOutputsKey(accountIndex), statuses)
}

// CachedParticipationOutputStatus returns an account's cached output
// statuses. The map is empty, not nil, when nothing is stored.
func (m *Manager) CachedParticipationOutputStatus(accountIndex uint32) (ParticipationOutputStatuses, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses, _, err := Get[ParticipationOutputStatuses](m.db, ParticipationCachedOutputsKey(accountIndex))
	if err != nil {
		return nil, err
	}
	if statuses == nil {
		statuses = make(ParticipationOutputStatuses)
	}
	return statuses, nil
}
