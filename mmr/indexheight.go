// Package mmr implements the append only Merkle Mountain Range over a flat
// node store. Nodes are stored in insertion order and identified by their
// *mmrIndex*. Positions are the one based equivalent of indices and are used
// where the arithmetic is more natural that way.
//
// For the following mmr, the (zero based) index tree is
//
//	2        6
//	       /   \
//	1     2     5      9
//	     / \   / \    / \
//	0   0   1 3   4  7   8 10
package mmr

import "math/bits"

// BitLength64 returns the number of bits necessary to represent x.
func BitLength64(x uint64) uint64 {
	return uint64(bits.Len64(x))
}

// AllOnes returns true if all bits below the highest set bit of pos are also
// set. One based positions with this property are always the right most node
// at their height, eg 1, 3, 7, 15.
func AllOnes(pos uint64) bool {
	return pos&(pos+1) == 0
}

// MostSigBit returns the value of the most significant set bit of pos.
func MostSigBit(pos uint64) uint64 {
	return uint64(1) << (BitLength64(pos) - 1)
}

// PosHeight returns the zero based height of the node at the one based
// position pos.
//
// The height of any position is found by repeatedly 'jumping left' until the
// position is all ones. Positions that are all ones lie on the right most
// edge of the tree and their height is one less than their bit length.
func PosHeight(pos uint64) uint64 {
	for !AllOnes(pos) {
		pos = pos - (MostSigBit(pos) - 1)
	}
	return BitLength64(pos) - 1
}

// IndexHeight returns the zero based height of the node with mmrIndex i.
func IndexHeight(i uint64) uint64 {
	return PosHeight(i + 1)
}

// SiblingOffset returns the distance, in indices, between a node at
// heightIndex and its sibling.
func SiblingOffset(heightIndex uint64) uint64 {
	return (2 << heightIndex) - 1
}
