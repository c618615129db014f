package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/internal/secret"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/participation"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// participationClient adds the participation plugin to fakeClient.
type participationClient struct {
	*fakeClient

	pmu         sync.Mutex
	events      map[participation.EventID]participation.EventData
	statuses    map[types.OutputID]participation.OutputStatusResponse
	statusCalls int
}

func (c *participationClient) ParticipationEvent(_ context.Context, id participation.EventID) (*participation.EventData, error) {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	data, ok := c.events[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return &data, nil
}

func (c *participationClient) ParticipationOutputStatus(_ context.Context, id types.OutputID) (*participation.OutputStatusResponse, error) {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	c.statusCalls++
	status, ok := c.statuses[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return &status, nil
}

func newParticipationAccount(t *testing.T) (*Account, *participationClient) {
	t.Helper()
	client := &participationClient{
		fakeClient: newFakeClient(),
		events:     make(map[participation.EventID]participation.EventData),
		statuses:   make(map[types.OutputID]participation.OutputStatusResponse),
	}
	sm, err := secret.NewMnemonicManager(testMnemonic, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })

	w, err := New(client, sm, storage.NewManager(storage.NewMemory(), zerolog.Nop()), testOptions(), zerolog.Nop())
	require.NoError(t, err)
	acc, err := w.CreateAccount(context.Background(), "voter")
	require.NoError(t, err)
	return acc, client
}

func TestParticipation_Unsupported(t *testing.T) {
	acc, _ := newTestAccount(t, testOptions())

	_, err := acc.RegisterParticipationEvent(context.Background(), participation.EventID{1}, nil)
	require.ErrorIs(t, err, ErrParticipationUnsupported)
	_, err = acc.SyncParticipationOutputStatus(context.Background())
	require.ErrorIs(t, err, ErrParticipationUnsupported)
}

func TestParticipation_RegisterAndDeregister(t *testing.T) {
	acc, client := newParticipationAccount(t)
	ctx := context.Background()

	id := participation.EventID{0xe1}
	client.events[id] = participation.EventData{Name: "treasury vote", MilestoneIndexEnd: 100}
	nodes := []participation.Node{{URL: "http://node.example"}}

	event, err := acc.RegisterParticipationEvent(ctx, id, nodes)
	require.NoError(t, err)
	assert.Equal(t, "treasury vote", event.Data.Name)

	_, err = acc.RegisterParticipationEvent(ctx, participation.EventID{0xe2}, nil)
	require.ErrorIs(t, err, api.ErrNotFound)

	events, err := acc.ParticipationEvents()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, nodes, events[id].Nodes)

	require.NoError(t, acc.DeregisterParticipationEvent(id))
	events, err = acc.ParticipationEvents()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSyncParticipationOutputStatus_CachesTracked(t *testing.T) {
	acc, client := newParticipationAccount(t)
	addr := firstAddress(t, acc)

	tracked := client.add(addr, basicOutput(t, 1_000_000, addr))
	client.add(addr, basicOutput(t, 2_000_000, addr))
	syncAccount(t, acc)

	event := participation.EventID{0xe1}
	client.statuses[tracked] = participation.OutputStatusResponse{
		Participations: map[participation.EventID]participation.TrackedParticipation{
			event: {Amount: 1_000_000, StartMilestoneIndex: 10},
		},
	}

	statuses, err := acc.SyncParticipationOutputStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, uint64(1_000_000), statuses[tracked].Participations[event].Amount)
	assert.Equal(t, 2, client.statusCalls)

	// The tracked output is served from the cache; only the untracked one
	// is asked again.
	statuses, err = acc.SyncParticipationOutputStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 3, client.statusCalls)
}
