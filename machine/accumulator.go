package machine

import (
	"fmt"
	"sync"

	"github.com/mountainlog/go-mountainlog/hasher"
	"github.com/mountainlog/go-mountainlog/mmr"
	"github.com/mountainlog/go-mountainlog/signer"
	"github.com/mountainlog/go-mountainlog/storage"
)

// MaxPayloadBytes is the largest leaf payload a machine accepts. Larger
// payloads are rejected with ErrSerialization before any state change.
const MaxPayloadBytes = 1 << 20

// ValidatePayload rejects payloads no machine could ever accept. Append
// checks it again; callers that order transactions consult it first so a
// doomed append is rejected before it is assigned a height.
func ValidatePayload(payload []byte) error {
	if len(payload) > MaxPayloadBytes {
		return fmt.Errorf("%w: payload of %d bytes exceeds limit of %d", ErrSerialization, len(payload), MaxPayloadBytes)
	}
	return nil
}

// Accumulator is one append only accumulator machine: an immutable write
// policy and owner fixed at creation, a leaf payload log, the mmr over the
// leaf commitments, and the snapshot history that makes height scoped reads
// stable.
//
// Appends are applied atomically under the machine lock: leaf storage, node
// backfill and snapshot recording all land, or none of them are observable.
// Reads resolve a snapshot under the read lock and then work entirely on
// immutable records, so any number of them can run concurrently.
type Accumulator struct {
	mu sync.RWMutex

	address   Address
	owner     signer.Identity
	access    WriteAccess
	createdAt uint64

	h     hasher.Hasher
	store storage.Store

	mmrSize uint64
	log     snapshotLog
}

func (a *Accumulator) Address() Address       { return a.address }
func (a *Accumulator) Owner() signer.Identity { return a.owner }
func (a *Accumulator) Access() WriteAccess    { return a.access }
func (a *Accumulator) CreatedAt() uint64      { return a.createdAt }

// nodes adapts the machine's slice of the shared store to the mmr node
// getter contract.
type nodeGetter struct {
	store storage.Store
	addr  Address
}

func (g nodeGetter) Get(i uint64) ([]byte, error) {
	return g.store.GetNode(g.addr.Bytes(), i)
}

// appendBuffer stages the nodes of one append so the whole effect can be
// persisted, and the in memory state advanced, only after the carry
// propagation has fully succeeded.
type appendBuffer struct {
	base     nodeGetter
	baseSize uint64
	added    [][]byte
}

func (b *appendBuffer) Get(i uint64) ([]byte, error) {
	if i < b.baseSize {
		return b.base.Get(i)
	}
	if i-b.baseSize >= uint64(len(b.added)) {
		return nil, fmt.Errorf("%w: staged node %d", storage.ErrNotFound, i)
	}
	return b.added[i-b.baseSize], nil
}

func (b *appendBuffer) Append(value []byte) (uint64, error) {
	b.added = append(b.added, value)
	return b.baseSize + uint64(len(b.added)), nil
}

// Append commits one leaf payload at the given ledger height and returns the
// new leaf's index and the resulting root.
//
// The write policy is consulted first; a denied caller gets
// ErrPermissionDenied and the machine state is untouched. The payload size
// limit is enforced next, for the same guarantee. Empty payloads are
// permitted; their leaf commits H(0x00) like any other.
func (a *Accumulator) Append(caller signer.Identity, payload []byte, height uint64) (uint64, []byte, error) {
	if !CanWrite(caller, a.owner, a.access) {
		return 0, nil, fmt.Errorf("%w: %s is not the owner of %s", ErrPermissionDenied, caller, a.address)
	}
	if err := ValidatePayload(payload); err != nil {
		return 0, nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	leafIndex := mmr.LeafCount(a.mmrSize)

	buf := &appendBuffer{base: a.nodes(), baseSize: a.mmrSize}
	mmrSize, err := mmr.AddHashedLeaf(buf, a.h, a.h.HashLeaf(payload))
	if err != nil {
		return 0, nil, err
	}

	snap := Snapshot{Height: height, LeafCount: leafIndex + 1, MMRSize: mmrSize}

	// Persist the full effect before advancing the in memory state. A
	// failure part way leaves orphan records beyond a.mmrSize which are
	// rewritten identically on retry; no reader resolves past the last
	// recorded snapshot, so they are never observable.
	if err = a.store.PutLeaf(a.address.Bytes(), leafIndex, payload); err != nil {
		return 0, nil, err
	}
	for k, value := range buf.added {
		if err = a.store.PutNode(a.address.Bytes(), a.mmrSize+uint64(k), value); err != nil {
			return 0, nil, err
		}
	}
	if err = a.store.PutSnapshot(a.address.Bytes(), height, snap.encode()); err != nil {
		return 0, nil, err
	}

	a.mmrSize = mmrSize
	a.log.record(snap)

	root, err := mmr.Root(a.nodes(), a.h, mmrSize)
	if err != nil {
		return 0, nil, err
	}
	return leafIndex, root, nil
}

func (a *Accumulator) nodes() nodeGetter {
	return nodeGetter{store: a.store, addr: a.address}
}

// resolveSize returns the mmr size visible at height. Heights before the
// first append resolve to the empty state.
func (a *Accumulator) resolveSize(height uint64) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap, ok := a.log.resolve(height)
	if !ok {
		return 0
	}
	return snap.MMRSize
}

// CountAt returns the leaf count visible at height.
func (a *Accumulator) CountAt(height uint64) uint64 {
	return mmr.LeafCount(a.resolveSize(height))
}

// PeaksAt returns the peak commitments visible at height, highest mountain
// first. The result is empty for heights before the first append.
func (a *Accumulator) PeaksAt(height uint64) ([][]byte, error) {
	size := a.resolveSize(height)
	if size == 0 {
		return nil, nil
	}
	return mmr.PeakHashes(a.nodes(), size)
}

// RootAt returns the bagged root visible at height, or nil for heights
// before the first append.
func (a *Accumulator) RootAt(height uint64) ([]byte, error) {
	size := a.resolveSize(height)
	if size == 0 {
		return nil, nil
	}
	return mmr.Root(a.nodes(), a.h, size)
}

// LeafAt returns the payload of the leaf at index as visible at height. A
// leaf committed after height is ErrNotFound even though its record exists.
func (a *Accumulator) LeafAt(index uint64, height uint64) ([]byte, error) {
	count := a.CountAt(height)
	if index >= count {
		return nil, fmt.Errorf("%w: leaf %d, count at height is %d", ErrNotFound, index, count)
	}
	payload, err := a.store.GetLeaf(a.address.Bytes(), index)
	if err != nil {
		return nil, fmt.Errorf("%w: leaf %d", ErrNotFound, index)
	}
	return payload, nil
}

// LastHeight returns the greatest ledger height recorded for this machine:
// the height of its newest snapshot, or its creation height while empty.
func (a *Accumulator) LastHeight() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if snap, ok := a.log.latest(); ok {
		return snap.Height
	}
	return a.createdAt
}

// Count returns the live leaf count, including appends not yet visible at
// any committed height.
func (a *Accumulator) Count() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return mmr.LeafCount(a.mmrSize)
}

// Peaks returns the live peak commitments.
func (a *Accumulator) Peaks() ([][]byte, error) {
	a.mu.RLock()
	size := a.mmrSize
	a.mu.RUnlock()
	if size == 0 {
		return nil, nil
	}
	return mmr.PeakHashes(a.nodes(), size)
}

// Root returns the live bagged root.
func (a *Accumulator) Root() ([]byte, error) {
	a.mu.RLock()
	size := a.mmrSize
	a.mu.RUnlock()
	if size == 0 {
		return nil, nil
	}
	return mmr.Root(a.nodes(), a.h, size)
}

// Leaf returns the payload at index from the live state.
func (a *Accumulator) Leaf(index uint64) ([]byte, error) {
	if index >= a.Count() {
		return nil, fmt.Errorf("%w: leaf %d", ErrNotFound, index)
	}
	payload, err := a.store.GetLeaf(a.address.Bytes(), index)
	if err != nil {
		return nil, fmt.Errorf("%w: leaf %d", ErrNotFound, index)
	}
	return payload, nil
}
