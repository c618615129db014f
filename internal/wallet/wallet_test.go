package wallet

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/internal/secret"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/api"
	"github.com/Klingon-tech/klingnet-ledger/pkg/output"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testHRP      = "rms"
	testNow      = uint32(1_700_000_000)
)

// fakeClient is an in-memory ledger.
type fakeClient struct {
	mu sync.Mutex

	now       uint32
	networkID uint64
	outputs   map[types.OutputID]output.Output
	spent     map[types.OutputID]bool
	byAddress map[types.Address][]types.OutputID
	foundries map[types.FoundryID]types.OutputID
	inclusion map[types.TransactionID][]api.InclusionState

	foundryErr  error
	outputErr   error
	submitErr   error
	submitted   []*tx.Transaction
	nextOutput  int
	nextBlock   byte
	foundryCall int
	outputCall  int
	stateCall   int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		now:       testNow,
		networkID: 14364762045254553490,
		outputs:   make(map[types.OutputID]output.Output),
		spent:     make(map[types.OutputID]bool),
		byAddress: make(map[types.Address][]types.OutputID),
		foundries: make(map[types.FoundryID]types.OutputID),
		inclusion: make(map[types.TransactionID][]api.InclusionState),
	}
}

// add places out on the ledger, listed under addr.
func (c *fakeClient) add(addr types.Address, out output.Output) types.OutputID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextOutput++
	id := types.OutputID{0xf0, byte(c.nextOutput >> 8), byte(c.nextOutput)}
	c.outputs[id] = out
	c.byAddress[addr] = append(c.byAddress[addr], id)
	if f, ok := out.(*output.FoundryOutput); ok {
		c.foundries[f.ID()] = id
	}
	return id
}

func (c *fakeClient) spend(id types.OutputID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spent[id] = true
}

func (c *fakeClient) GetOutput(_ context.Context, id types.OutputID) (output.Output, *api.OutputMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputCall++
	if c.outputErr != nil {
		return nil, nil, c.outputErr
	}
	out, ok := c.outputs[id]
	if !ok {
		return nil, nil, fmt.Errorf("output %s: %w", id, api.ErrNotFound)
	}
	return out, &api.OutputMetadata{
		TransactionID: id.TransactionID(),
		OutputIndex:   id.Index(),
		IsSpent:       c.spent[id],
	}, nil
}

func (c *fakeClient) FoundryOutputID(_ context.Context, id types.FoundryID) (types.OutputID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.foundryCall++
	if c.foundryErr != nil {
		return types.OutputID{}, c.foundryErr
	}
	outID, ok := c.foundries[id]
	if !ok {
		return types.OutputID{}, fmt.Errorf("foundry %s: %w", id, api.ErrNotFound)
	}
	return outID, nil
}

func (c *fakeClient) OutputIDsForAddress(_ context.Context, addr types.Address) ([]types.OutputID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []types.OutputID
	for _, id := range c.byAddress[addr] {
		if !c.spent[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *fakeClient) TokenSupply(context.Context) (uint64, error) { return testSupply, nil }

func (c *fakeClient) RentStructure(context.Context) (output.RentStructure, error) {
	return output.DefaultRentStructure(), nil
}

func (c *fakeClient) NetworkID(context.Context) (uint64, error) { return c.networkID, nil }

func (c *fakeClient) Bech32HRP(context.Context) (string, error) { return testHRP, nil }

func (c *fakeClient) TimeChecked(context.Context) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now, nil
}

func (c *fakeClient) SubmitTransaction(_ context.Context, transaction *tx.Transaction) (types.BlockID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitErr != nil {
		return types.BlockID{}, c.submitErr
	}
	c.submitted = append(c.submitted, transaction)
	c.nextBlock++
	return types.BlockID{0xb0, c.nextBlock}, nil
}

// TransactionInclusionState pops the next scripted state. The last one
// repeats; unscripted transactions are pending.
func (c *fakeClient) TransactionInclusionState(_ context.Context, id types.TransactionID) (api.InclusionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateCall++
	states := c.inclusion[id]
	if len(states) == 0 {
		return api.InclusionPending, nil
	}
	state := states[0]
	if len(states) > 1 {
		c.inclusion[id] = states[1:]
	}
	return state, nil
}

func (c *fakeClient) submissions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.submitted)
}

func (c *fakeClient) foundryLookups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.foundryCall
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.RetryInterval = 1
	opts.RetryMaxAttempts = 3
	return opts
}

func newTestWallet(t *testing.T, client *fakeClient, store *storage.Manager, opts Options) *Wallet {
	t.Helper()
	sm, err := secret.NewMnemonicManager(testMnemonic, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })
	w, err := New(client, sm, store, opts, zerolog.Nop())
	require.NoError(t, err)
	return w
}

func newTestAccount(t *testing.T, opts Options) (*Account, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	store := storage.NewManager(storage.NewMemory(), zerolog.Nop())
	w := newTestWallet(t, client, store, opts)
	acc, err := w.CreateAccount(context.Background(), "alice")
	require.NoError(t, err)
	return acc, client
}

func firstAddress(t *testing.T, acc *Account) types.Address {
	t.Helper()
	addr, err := acc.FirstAddress()
	require.NoError(t, err)
	return addr
}

func basicOutput(t *testing.T, amount uint64, addr types.Address, conds ...output.UnlockCondition) output.Output {
	t.Helper()
	b := output.NewBasicOutputBuilder(amount).AddUnlockCondition(output.AddressUnlockCondition{Address: addr})
	for _, c := range conds {
		b.AddUnlockCondition(c)
	}
	out, err := b.Finish(testSupply)
	require.NoError(t, err)
	return out
}

func nftOutput(t *testing.T, amount uint64, id types.NftID, addr types.Address) output.Output {
	t.Helper()
	out, err := output.NewNftOutputBuilder(amount, id).
		AddUnlockCondition(output.AddressUnlockCondition{Address: addr}).
		Finish(testSupply)
	require.NoError(t, err)
	return out
}

func syncAccount(t *testing.T, acc *Account) *Balance {
	t.Helper()
	balance, err := acc.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	return balance
}
