package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both implementations must satisfy the same contract.
func stores(t *testing.T) map[string]Store {
	badgerStore, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerStore.Close() })
	return map[string]Store{
		"mem":    NewMemStore(),
		"badger": badgerStore,
	}
}

func TestNodeRoundTrip(t *testing.T) {
	addr := []byte("aaaaaaaaaaaaaaaaaaaa")
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.PutNode(addr, 0, []byte("node0")))
			require.NoError(t, s.PutNode(addr, 7, []byte("node7")))

			v, err := s.GetNode(addr, 7)
			require.NoError(t, err)
			assert.Equal(t, []byte("node7"), v)

			_, err = s.GetNode(addr, 8)
			assert.True(t, errors.Is(err, ErrNotFound))

			// a different machine has independent records
			_, err = s.GetNode([]byte("bbbbbbbbbbbbbbbbbbbb"), 0)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestLeafRoundTrip(t *testing.T) {
	addr := []byte("aaaaaaaaaaaaaaaaaaaa")
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.PutLeaf(addr, 2, []byte("payload")))
			v, err := s.GetLeaf(addr, 2)
			require.NoError(t, err)
			assert.Equal(t, []byte("payload"), v)

			_, err = s.GetLeaf(addr, 3)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestSnapshotsAscending(t *testing.T) {
	addr := []byte("aaaaaaaaaaaaaaaaaaaa")
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.PutSnapshot(addr, 9, []byte("h9")))
			require.NoError(t, s.PutSnapshot(addr, 3, []byte("h3")))
			require.NoError(t, s.PutSnapshot(addr, 300, []byte("h300")))

			recs, err := s.Snapshots(addr)
			require.NoError(t, err)
			require.Len(t, recs, 3)
			assert.Equal(t, uint64(3), recs[0].Height)
			assert.Equal(t, uint64(9), recs[1].Height)
			assert.Equal(t, uint64(300), recs[2].Height)
			assert.Equal(t, []byte("h300"), recs[2].Data)

			empty, err := s.Snapshots([]byte("bbbbbbbbbbbbbbbbbbbb"))
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestMachines(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.PutMachine([]byte("aaaaaaaaaaaaaaaaaaaa"), []byte("ma")))
			require.NoError(t, s.PutMachine([]byte("bbbbbbbbbbbbbbbbbbbb"), []byte("mb")))

			recs, err := s.Machines()
			require.NoError(t, err)
			require.Len(t, recs, 2)

			found := map[string]string{}
			for _, r := range recs {
				found[string(r.Address)] = string(r.Data)
			}
			assert.Equal(t, "ma", found["aaaaaaaaaaaaaaaaaaaa"])
			assert.Equal(t, "mb", found["bbbbbbbbbbbbbbbbbbbb"])
		})
	}
}
