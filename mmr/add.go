package mmr

import (
	"errors"

	"github.com/mountainlog/go-mountainlog/hasher"
)

var (
	ErrNotLeaf = errors.New("the mmr index does not identify a leaf")
)

// NodeGetter provides read access to stored node commitments by mmrIndex.
type NodeGetter interface {
	Get(i uint64) ([]byte, error)
}

// NodeAdder is the storage contract for appending to the mmr. Append places
// the value at the next mmrIndex and returns the resulting mmr size.
type NodeAdder interface {
	NodeGetter
	Append(value []byte) (uint64, error)
}

// AddHashedLeaf adds the commitment value of a single leaf to the mmr and
// appends the interior nodes that complete any mountains the new leaf closes.
//
// The carry propagation works exactly like binary addition: while the height
// of the next position exceeds the height of the node just written, the two
// equal height mountains to the left are merged by appending their parent.
// The left child of every merge is always the node committed earlier. The
// merges are amortized O(1) per add and O(log n) in the worst case, and they
// only ever read nodes from the two mountains being merged; nodes of
// previously completed mountains are never revisited.
//
// Returns the mmr size after the leaf and all backfill nodes are appended.
func AddHashedLeaf(store NodeAdder, h hasher.Hasher, hashedLeaf []byte) (uint64, error) {

	i, err := store.Append(hashedLeaf)
	if err != nil {
		return 0, err
	}

	height := uint64(0)
	for IndexHeight(i) > height {

		iLeft := i - (2 << height)
		iRight := i - 1

		left, err := store.Get(iLeft)
		if err != nil {
			return 0, err
		}
		right, err := store.Get(iRight)
		if err != nil {
			return 0, err
		}

		i, err = store.Append(h.HashNode(left, right))
		if err != nil {
			return 0, err
		}
		height += 1
	}
	return i, nil
}
