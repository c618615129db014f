package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/participation"
)

// ErrParticipationUnsupported is returned when the node client cannot
// reach the participation plugin.
var ErrParticipationUnsupported = errors.New("client does not support participation")

func (a *Account) participationClient() (ParticipationClient, error) {
	pc, ok := a.client.(ParticipationClient)
	if !ok {
		return nil, ErrParticipationUnsupported
	}
	return pc, nil
}

// RegisterParticipationEvent fetches an event from the node and tracks it
// for the account.
func (a *Account) RegisterParticipationEvent(ctx context.Context, id participation.EventID, nodes []participation.Node) (*participation.EventWithNodes, error) {
	pc, err := a.participationClient()
	if err != nil {
		return nil, err
	}
	data, err := pc.ParticipationEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("participation event %s: %w", id, err)
	}
	event := participation.EventWithNodes{ID: id, Data: *data, Nodes: nodes}
	if err := a.store.InsertParticipationEvent(a.Index(), event); err != nil {
		return nil, err
	}
	return &event, nil
}

// DeregisterParticipationEvent stops tracking an event.
func (a *Account) DeregisterParticipationEvent(id participation.EventID) error {
	return a.store.RemoveParticipationEvent(a.Index(), id)
}

// ParticipationEvents returns the events the account tracks.
func (a *Account) ParticipationEvents() (storage.ParticipationEvents, error) {
	return a.store.ParticipationEvents(a.Index())
}

// SyncParticipationOutputStatus refreshes the participation status of the
// account's unspent outputs and caches it. Outputs the node does not track
// are left out.
func (a *Account) SyncParticipationOutputStatus(ctx context.Context) (storage.ParticipationOutputStatuses, error) {
	pc, err := a.participationClient()
	if err != nil {
		return nil, err
	}
	cached, err := a.store.CachedParticipationOutputStatus(a.Index())
	if err != nil {
		return nil, err
	}
	statuses := make(storage.ParticipationOutputStatuses)
	for _, o := range a.UnspentOutputs() {
		if status, ok := cached[o.OutputID]; ok {
			statuses[o.OutputID] = status
			continue
		}
		status, err := pc.ParticipationOutputStatus(ctx, o.OutputID)
		if errors.Is(err, api.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("participation status of %s: %w", o.OutputID, err)
		}
		statuses[o.OutputID] = *status
	}
	if err := a.store.SetCachedParticipationOutputStatus(a.Index(), statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}
