package mmr

import (
	"bytes"
	"errors"

	"github.com/mountainlog/go-mountainlog/hasher"
)

var (
	ErrConsistencyCheck    = errors.New("consistency check failed")
	ErrAccumulatorProofLen = errors.New("a proof for each accumulator peak is required")
)

// ConsistencyProof describes the proof that the mmr of size MMRSizeA is an
// unmodified prefix of the mmr of size MMRSizeB. Path holds one inclusion
// proof for each peak of MMR(A) in MMR(B).
type ConsistencyProof struct {
	MMRSizeA uint64
	MMRSizeB uint64
	Path     [][][]byte
}

// IndexConsistencyProof creates a proof that mmrSizeA is consistent with
// mmrSizeB. The store must contain the current state, ie at least mmrSizeB
// nodes.
func IndexConsistencyProof(store NodeGetter, mmrSizeA, mmrSizeB uint64) (ConsistencyProof, error) {
	proof := ConsistencyProof{
		MMRSizeA: mmrSizeA,
		MMRSizeB: mmrSizeB,
	}

	// Find the peaks corresponding to the previous mmr state and prove
	// each of them into the new state.
	for _, peakPos := range Peaks(mmrSizeA) {
		peakProof, err := InclusionProof(store, mmrSizeB, peakPos-1)
		if err != nil {
			return ConsistencyProof{}, err
		}
		proof.Path = append(proof.Path, peakProof)
	}
	return proof, nil
}

// ConsistentRoots returns the peaks of MMR(B) proven by applying each of the
// proofs to the corresponding peak of MMR(A).
//
// The nature of MMR's is that many nodes are committed by the same
// accumulator peak, and that peak changes with low frequency, so the returned
// list is de-duplicated.
func ConsistentRoots(h hasher.Hasher, fromSize uint64, peakHashesFrom [][]byte, proofs [][][]byte) ([][]byte, error) {
	frompeaks := Peaks(fromSize)

	if len(frompeaks) != len(proofs) {
		return nil, ErrAccumulatorProofLen
	}

	roots := [][]byte{}

	for iacc := 0; iacc < len(peakHashesFrom); iacc++ {
		// remembering that peaks are 1 based
		root := IncludedRoot(h, frompeaks[iacc]-1, peakHashesFrom[iacc], proofs[iacc])
		if len(roots) > 0 && bytes.Equal(roots[len(roots)-1], root) {
			continue
		}
		roots = append(roots, root)
	}

	return roots, nil
}

// CheckConsistency verifies that the current state mmrSizeB is consistent
// with the provided accumulator for the earlier size A. The provided
// accumulator (peakHashesA) should be taken from a trusted source, typically
// a previously witnessed snapshot.
func CheckConsistency(
	store NodeGetter, h hasher.Hasher,
	mmrSizeA, mmrSizeB uint64, peakHashesA [][]byte) (bool, [][]byte, error) {

	// Obtain the proofs from the current store
	cp, err := IndexConsistencyProof(store, mmrSizeA, mmrSizeB)
	if err != nil {
		return false, nil, err
	}

	// Obtain the expected resulting peaks from the current store
	peakHashesB, err := PeakHashes(store, cp.MMRSizeB)
	if err != nil {
		return false, nil, err
	}

	return VerifyConsistency(h, cp, peakHashesA, peakHashesB)
}

// VerifyConsistency verifies the consistency between two MMR states.
//
// The MMR(A) and MMR(B) states are identified by the fields MMRSizeA and
// MMRSizeB in the proof. peaksFrom and peaksTo are the node values
// corresponding to the MMR peaks of each respective state. The Path in the
// proof contains the nodes necessary to prove each A-peak reaches a B-peak.
//
//	    MMR(A):[7, 8]      MMR(B):[7, 10, 11]
//	 2       7                7
//	       /   \            /   \
//	 1    3     6          3     6    10
//	     / \  /  \        / \  /  \   / \
//	 0  1   2 4   5 8    1   2 4   5 8   9 11
//
//		Path MMR(A) -> MMR(B)
//		7 in MMR(B) -> []
//		8 in MMR(B) -> [9]
//		Path = [[], [9]]
func VerifyConsistency(
	h hasher.Hasher,
	cp ConsistencyProof, peaksFrom [][]byte, peaksTo [][]byte) (bool, [][]byte, error) {

	// Get the peaks proven by the consistency proof using the provided peaks
	// for mmr size A
	proven, err := ConsistentRoots(h, cp.MMRSizeA, peaksFrom, cp.Path)
	if err != nil {
		return false, nil, err
	}

	// If all proven nodes match an accumulator peak for MMR(sizeB) then
	// MMR(sizeA) is consistent with MMR(sizeB). Because both the proven
	// peaks and the accumulator peaks are listed in descending order of
	// height this can be accomplished with a linear scan.

	ito := 0
	for _, root := range proven {

		if bytes.Equal(peaksTo[ito], root) {
			continue
		}

		// If the root does not match the current peak then it must match the
		// next one down.

		ito += 1

		if ito >= len(peaksTo) {
			return false, nil, ErrConsistencyCheck
		}

		if !bytes.Equal(peaksTo[ito], root) {
			return false, nil, ErrConsistencyCheck
		}
	}

	// All proven peaks have been matched against the future accumulator. The
	// log committed by the future accumulator is consistent with the
	// previously committed log state.
	return true, proven, nil
}
