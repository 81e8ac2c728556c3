package mmr

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mountainlog/go-mountainlog/hasher"
)

// testDB is the minimal in memory NodeAdder used by the package tests.
type testDB struct {
	nodes [][]byte
}

func (d *testDB) Get(i uint64) ([]byte, error) {
	if i >= uint64(len(d.nodes)) {
		return nil, fmt.Errorf("index %d out of range", i)
	}
	return d.nodes[i], nil
}

func (d *testDB) Append(value []byte) (uint64, error) {
	d.nodes = append(d.nodes, value)
	return uint64(len(d.nodes)), nil
}

func (d *testDB) Size() uint64 { return uint64(len(d.nodes)) }

// numberedLeaf returns the canonical test payload for leaf i: the leaf index
// as a big endian u64. Using fixed payloads keeps the generated tree
// identical from run to run.
func numberedLeaf(i uint64) []byte {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, i)
	return payload
}

// newTestDB builds the canonical test mmr by adding leafCount numbered
// leaves.
func newTestDB(t *testing.T, h hasher.Hasher, leafCount uint64) *testDB {
	db := &testDB{}
	for i := uint64(0); i < leafCount; i++ {
		_, err := AddHashedLeaf(db, h, h.HashLeaf(numberedLeaf(i)))
		require.NoError(t, err)
	}
	return db
}
