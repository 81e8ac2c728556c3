package mmr

import (
	"bytes"

	"github.com/mountainlog/go-mountainlog/hasher"
)

// IncludedRoot calculates the local peak committing the node at mmrIndex i,
// given the node's commitment value and its inclusion proof path.
func IncludedRoot(h hasher.Hasher, i uint64, nodeHash []byte, proof [][]byte) []byte {

	pos := i + 1
	heightIndex := PosHeight(pos) // allows for proofs of interior nodes
	root := nodeHash

	for _, p := range proof {

		// If the next position is higher, we are at the right child, and at
		// the left otherwise. The sibling committed earlier is always the
		// left child of the merge.
		if PosHeight(pos+1) > heightIndex {
			// we are at the right child

			pos += 1
			root = h.HashNode(p, root)
		} else {
			// we are at the left child

			pos += 2 << heightIndex
			root = h.HashNode(root, p)
		}

		heightIndex += 1
	}
	return root
}

// VerifyInclusionPath returns true if the nodeHash combined with path
// reproduces the provided root.
//
// To facilitate the concatenated proof paths used for consistency proofs, it
// returns the count of path elements used to reach the root.
//
// root: The local "peak" root in which nodeHash is recorded. This root is a
// member of the current mmr accumulator, or is itself a node which can be
// verified for inclusion in a future accumulator.
func VerifyInclusionPath(
	h hasher.Hasher, nodeHash []byte, i uint64, proof [][]byte, root []byte,
) (bool, int) {

	// Deal with the degenerate case where i is a perfect peak. The proof
	// will be nil.
	if len(proof) == 0 && bytes.Equal(nodeHash, root) {
		return true, 0
	}

	pos := i + 1
	heightIndex := PosHeight(pos)
	elementHash := nodeHash

	for iProof, p := range proof {

		if PosHeight(pos+1) > heightIndex {
			// we are at the right child

			pos += 1
			elementHash = h.HashNode(p, elementHash)
		} else {
			// we are at the left child

			pos += 2 << heightIndex
			elementHash = h.HashNode(elementHash, p)
		}

		if bytes.Equal(elementHash, root) {
			// If we have the root then we have successfully completed the
			// current proof. Return the index for the start of the next.
			return true, iProof + 1
		}

		heightIndex += 1
	}
	return false, len(proof)
}

// VerifyInclusion returns true if the nodeHash at mmrIndex i is committed by
// the peak root.
func VerifyInclusion(h hasher.Hasher, nodeHash []byte, i uint64, proof [][]byte, root []byte) bool {
	ok, _ := VerifyInclusionPath(h, nodeHash, i, proof, root)
	return ok
}
