package mmr

import (
	"github.com/mountainlog/go-mountainlog/hasher"
)

// BagPeaks combines the peak commitments, highest mountain first, into the
// single root commitment for the accumulator state they describe.
//
// The fold runs right to left, seeded by the lowest peak:
//
//	root = HashNode(peakHashes[i], root)
//
// The result is a pure function of the ordered peak list. Two mmrs with
// identical peak lists produce identical roots regardless of how either
// arrived at its state. An empty peak list bags to nil.
func BagPeaks(h hasher.Hasher, peakHashes [][]byte) []byte {
	if len(peakHashes) == 0 {
		return nil
	}
	root := peakHashes[len(peakHashes)-1]
	for i := len(peakHashes) - 2; i >= 0; i-- {
		root = h.HashNode(peakHashes[i], root)
	}
	return root
}

// Root reads the current peaks from the store and bags them. See BagPeaks.
func Root(store NodeGetter, h hasher.Hasher, mmrSize uint64) ([]byte, error) {
	peakHashes, err := PeakHashes(store, mmrSize)
	if err != nil {
		return nil, err
	}
	return BagPeaks(h, peakHashes), nil
}
