package mmr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mountainlog/go-mountainlog/hasher"
)

// Every node in the canonical mmr(39) must verify against its local peak.
func TestVerifyInclusionAllNodes(t *testing.T) {
	h := hasher.Default()
	db := newTestDB(t, h, 21) // mmrSize 39
	mmrSize := db.Size()
	require.Equal(t, uint64(39), mmrSize)

	for i := uint64(0); i < mmrSize; i++ {
		t.Run(fmt.Sprintf("node %d", i), func(t *testing.T) {
			proof, iLocalPeak, _, err := InclusionProofPath(db, mmrSize, i)
			require.NoError(t, err)

			peakValue, err := db.Get(iLocalPeak)
			require.NoError(t, err)

			nodeValue, err := db.Get(i)
			require.NoError(t, err)

			assert.True(t, VerifyInclusion(h, nodeValue, i, proof, peakValue))
			assert.Equal(t, peakValue, IncludedRoot(h, i, nodeValue, proof))
		})
	}
}

func TestVerifyInclusionTamperedLeaf(t *testing.T) {
	h := hasher.Default()
	db := newTestDB(t, h, 8)
	mmrSize := db.Size()

	i := MMRIndex(3)
	proof, iLocalPeak, _, err := InclusionProofPath(db, mmrSize, i)
	require.NoError(t, err)
	peakValue, err := db.Get(iLocalPeak)
	require.NoError(t, err)

	forged := h.HashLeaf([]byte("forged"))
	assert.False(t, VerifyInclusion(h, forged, i, proof, peakValue))
}

// A solo peak proves itself with an empty path.
func TestVerifyInclusionSoloPeak(t *testing.T) {
	h := hasher.Default()
	db := newTestDB(t, h, 1)

	value, err := db.Get(0)
	require.NoError(t, err)
	ok, used := VerifyInclusionPath(h, value, 0, nil, value)
	assert.True(t, ok)
	assert.Equal(t, 0, used)
}
