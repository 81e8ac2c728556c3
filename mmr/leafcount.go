package mmr

import "math/bits"

// LeafCount returns the number of leaves in the largest mmr whose size is <=
// the supplied size. See also [PeaksBitmap]
//
// This can safely be used to obtain the leaf index *only* when size is known
// to be a valid mmr size. Typically just before or just after calling
// AddHashedLeaf. If in any doubt, instead do:
//
//	leafIndex = LeafCount(FirstMMRSize(mmrIndex)) - 1
func LeafCount(mmrSize uint64) uint64 {
	return PeaksBitmap(mmrSize)
}

// LeafIndex returns the leaf index of the leaf node with mmrIndex i. The
// result is meaningful only if i identifies a leaf.
func LeafIndex(mmrIndex uint64) uint64 {
	return LeafCount(FirstMMRSize(mmrIndex)) - 1
}

// MMRIndex returns the node index of the leaf with the given leafIndex.
//
// Leaves are interleaved with the interior nodes that complete their
// mountains, so the node index grows faster than the leaf index. Every set
// bit of the leaf index accounts for one mountain merged to the left of the
// leaf, and each merged mountain saves exactly one node.
func MMRIndex(leafIndex uint64) uint64 {
	return 2*leafIndex - uint64(bits.OnesCount64(leafIndex))
}

// MMRSizeForLeafCount returns the size of the complete mmr containing exactly
// leafCount leaves.
func MMRSizeForLeafCount(leafCount uint64) uint64 {
	return 2*leafCount - uint64(bits.OnesCount64(leafCount))
}

// FirstMMRSize returns the first complete MMRSize that contains the provided
// mmrIndex. mmrIndices are used to identify nodes. mmrSizes are the result of
// *adding* nodes to mmr's, and, because of adding the back fill nodes for the
// leaves, the range of valid sizes is not continuous. Typically, it is
// possible to "do the right thing" with just LeafCount, but its use is error
// prone because of this fact.
//
// The outputs of this function for the following mmrIndices are
//
//	[1, 3, 3, 4, 7, 7, 7, 8, 10, 10, 11]
//
//	2        6
//	       /   \
//	1     2     5      9
//	     / \   / \    / \
//	0   0   1 3   4  7   8 10
func FirstMMRSize(mmrIndex uint64) uint64 {

	i := mmrIndex
	h0 := IndexHeight(i)
	h1 := IndexHeight(i + 1)
	for h0 < h1 {
		i++
		h0 = h1
		h1 = IndexHeight(i + 1)
	}

	return i + 1
}
