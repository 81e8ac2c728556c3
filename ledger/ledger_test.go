package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mountainlog/go-mountainlog/hasher"
	"github.com/mountainlog/go-mountainlog/machine"
	"github.com/mountainlog/go-mountainlog/signer"
	"github.com/mountainlog/go-mountainlog/storage"
)

type fixture struct {
	registry *machine.Registry
	ledger   *Ledger
	owner    *signer.Signer
}

func newFixture(t *testing.T) *fixture {
	owner, err := signer.Generate()
	require.NoError(t, err)

	registry := machine.NewRegistry(zerolog.Nop(), hasher.Default(), storage.NewMemStore())
	l := New(zerolog.Nop(), registry)
	l.Start()
	t.Cleanup(l.Stop)

	return &fixture{registry: registry, ledger: l, owner: owner}
}

func (f *fixture) createMachine(t *testing.T, access machine.WriteAccess) machine.Address {
	receipt, err := f.ledger.Submit(context.Background(), NewCreateTx(f.owner, access), ModeCommit)
	require.NoError(t, err)
	require.Equal(t, StatusCommitted, receipt.Status)
	addr, err := machine.ParseAddress(receipt.Address)
	require.NoError(t, err)
	return addr
}

func TestCreateCommit(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.ledger.Submit(context.Background(), NewCreateTx(f.owner, machine.OnlyOwner), ModeCommit)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Height)
	assert.NotEmpty(t, receipt.Address)
	assert.Equal(t, uint64(1), f.ledger.Tip())

	addr, err := machine.ParseAddress(receipt.Address)
	require.NoError(t, err)
	acc, err := f.registry.Attach(addr)
	require.NoError(t, err)
	assert.Equal(t, f.owner.Identity(), acc.Owner())
	assert.Equal(t, uint64(1), acc.CreatedAt())
}

func TestPushCommit(t *testing.T) {
	f := newFixture(t)
	addr := f.createMachine(t, machine.OnlyOwner)

	receipt, err := f.ledger.Submit(context.Background(), NewPushTx(f.owner, addr, []byte("hello")), ModeCommit)
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, receipt.Status)
	assert.Equal(t, uint64(2), receipt.Height)
	assert.Equal(t, uint64(0), receipt.LeafIndex)
	assert.NotEmpty(t, receipt.Root)

	acc, err := f.registry.Attach(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.Count())
}

func TestPushSyncReturnsProvisionalHeight(t *testing.T) {
	f := newFixture(t)
	addr := f.createMachine(t, machine.OnlyOwner)

	receipt, err := f.ledger.Submit(context.Background(), NewPushTx(f.owner, addr, []byte("x")), ModeSync)
	require.NoError(t, err)
	assert.Equal(t, StatusIncluded, receipt.Status)
	assert.Equal(t, uint64(2), receipt.Height)
	assert.Empty(t, receipt.Root)

	// the effect still lands
	acc, err := f.registry.Attach(addr)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return acc.Count() == 1 }, time.Second, time.Millisecond)
}

func TestPushAsyncCommitsEventually(t *testing.T) {
	f := newFixture(t)
	addr := f.createMachine(t, machine.OnlyOwner)

	receipt, err := f.ledger.Submit(context.Background(), NewPushTx(f.owner, addr, []byte("x")), ModeAsync)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, receipt.Status)
	assert.Zero(t, receipt.Height)

	acc, err := f.registry.Attach(addr)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return acc.Count() == 1 }, time.Second, time.Millisecond)
}

func TestSubmitRejectsForgedSignature(t *testing.T) {
	f := newFixture(t)
	addr := f.createMachine(t, machine.Public)

	tx := NewPushTx(f.owner, addr, []byte("paid"))
	tx.Payload = []byte("tampered")

	_, err := f.ledger.Submit(context.Background(), tx, ModeCommit)
	assert.True(t, errors.Is(err, ErrSigning))
}

func TestSubmitRejectsUnknownMode(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Submit(context.Background(), NewCreateTx(f.owner, machine.Public), BroadcastMode("flood"))
	assert.Error(t, err)
}

// A payload the machine can never accept must surface its rejection on the
// sync wait path too, and the height it would have taken goes to the next
// transaction.
func TestPushSyncRejectsOversizedPayload(t *testing.T) {
	f := newFixture(t)
	addr := f.createMachine(t, machine.Public)

	payload := make([]byte, machine.MaxPayloadBytes+1)
	_, err := f.ledger.Submit(context.Background(), NewPushTx(f.owner, addr, payload), ModeSync)
	assert.True(t, errors.Is(err, machine.ErrSerialization))

	acc, err := f.registry.Attach(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acc.Count())
	assert.Equal(t, uint64(1), f.ledger.Tip())

	receipt, err := f.ledger.Submit(context.Background(), NewPushTx(f.owner, addr, []byte("ok")), ModeCommit)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), receipt.Height)
}

func TestPushUnknownAddress(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Submit(context.Background(), NewPushTx(f.owner, machine.Address{1, 2, 3}, []byte("x")), ModeCommit)
	assert.True(t, errors.Is(err, machine.ErrNotFound))
	// rejected transactions consume no height
	assert.Equal(t, uint64(0), f.ledger.Tip())
}

func TestPushDeniedByPolicy(t *testing.T) {
	f := newFixture(t)
	addr := f.createMachine(t, machine.OnlyOwner)

	other, err := signer.Generate()
	require.NoError(t, err)

	_, err = f.ledger.Submit(context.Background(), NewPushTx(other, addr, []byte("x")), ModeCommit)
	assert.True(t, errors.Is(err, machine.ErrPermissionDenied))

	acc, err := f.registry.Attach(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acc.Count())
	assert.Equal(t, uint64(1), f.ledger.Tip())
}

// Concurrent submitters each get a distinct leaf index, and inclusion order
// decides which, not call order.
func TestConcurrentPushesGetDistinctIndices(t *testing.T) {
	f := newFixture(t)
	addr := f.createMachine(t, machine.Public)

	const n = 16
	var wg sync.WaitGroup
	indices := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := signer.Generate()
			if err != nil {
				t.Error(err)
				return
			}
			receipt, err := f.ledger.Submit(context.Background(), NewPushTx(s, addr, []byte{byte(i)}), ModeCommit)
			if err != nil {
				t.Error(err)
				return
			}
			indices <- receipt.LeafIndex
		}(i)
	}
	wg.Wait()
	close(indices)

	seen := map[uint64]bool{}
	for idx := range indices {
		assert.False(t, seen[idx], "duplicate leaf index %d", idx)
		assert.Less(t, idx, uint64(n))
		seen[idx] = true
	}
	assert.Len(t, seen, n)

	acc, err := f.registry.Attach(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(n), acc.Count())
}

func TestResumeContinuesHeights(t *testing.T) {
	owner, err := signer.Generate()
	require.NoError(t, err)
	registry := machine.NewRegistry(zerolog.Nop(), hasher.Default(), storage.NewMemStore())
	l := New(zerolog.Nop(), registry)
	l.Resume(7)
	l.Start()
	t.Cleanup(l.Stop)

	receipt, err := l.Submit(context.Background(), NewCreateTx(owner, machine.Public), ModeCommit)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), receipt.Height)
}

func TestSubmitAfterStop(t *testing.T) {
	owner, err := signer.Generate()
	require.NoError(t, err)
	registry := machine.NewRegistry(zerolog.Nop(), hasher.Default(), storage.NewMemStore())
	l := New(zerolog.Nop(), registry)
	l.Start()
	l.Stop()

	_, err = l.Submit(context.Background(), NewCreateTx(owner, machine.Public), ModeCommit)
	assert.True(t, errors.Is(err, ErrStopped))
}

func TestSubmitContextCancelled(t *testing.T) {
	f := newFixture(t)
	addr := f.createMachine(t, machine.Public)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.ledger.Submit(ctx, NewPushTx(f.owner, addr, []byte("x")), ModeCommit)
	// either the wait was abandoned or the send lost the race to the queue;
	// both surface the context error
	if err != nil {
		assert.True(t, errors.Is(err, context.Canceled))
	}
}
