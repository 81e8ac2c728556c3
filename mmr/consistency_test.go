package mmr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mountainlog/go-mountainlog/hasher"
)

// Every committed state must be consistent with every later state.
func TestCheckConsistencyAllPrefixes(t *testing.T) {
	h := hasher.Default()
	db := newTestDB(t, h, 16)
	mmrSizeB := db.Size()

	for n := uint64(1); n < 16; n++ {
		mmrSizeA := MMRSizeForLeafCount(n)
		t.Run(fmt.Sprintf("%d->%d", mmrSizeA, mmrSizeB), func(t *testing.T) {
			peaksA, err := PeakHashes(db, mmrSizeA)
			require.NoError(t, err)

			ok, proven, err := CheckConsistency(db, h, mmrSizeA, mmrSizeB, peaksA)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.NotEmpty(t, proven)
		})
	}
}

func TestCheckConsistencyTamperedAccumulator(t *testing.T) {
	h := hasher.Default()
	db := newTestDB(t, h, 16)
	mmrSizeB := db.Size()
	mmrSizeA := MMRSizeForLeafCount(5)

	peaksA, err := PeakHashes(db, mmrSizeA)
	require.NoError(t, err)
	peaksA[0][0] ^= 0xff

	ok, _, err := CheckConsistency(db, h, mmrSizeA, mmrSizeB, peaksA)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrConsistencyCheck))
}

func TestConsistentRootsProofLenMismatch(t *testing.T) {
	h := hasher.Default()
	db := newTestDB(t, h, 5)
	peaks, err := PeakHashes(db, db.Size())
	require.NoError(t, err)

	_, err = ConsistentRoots(h, db.Size(), peaks, nil)
	assert.True(t, errors.Is(err, ErrAccumulatorProofLen))
}
