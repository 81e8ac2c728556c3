package machine

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const snapshotBytes = 16

// Snapshot is the machine state recorded at one ledger height. Snapshots are
// immutable once recorded and strictly increasing in height, leaf count and
// mmr size.
//
// Peaks are not stored: because nodes of completed mountains are never
// rewritten, the peak values for any snapshot can always be recovered from
// the node store and the snapshot's MMRSize.
type Snapshot struct {
	Height    uint64
	LeafCount uint64
	MMRSize   uint64
}

func (s Snapshot) encode() []byte {
	data := make([]byte, snapshotBytes)
	binary.BigEndian.PutUint64(data[:8], s.LeafCount)
	binary.BigEndian.PutUint64(data[8:], s.MMRSize)
	return data
}

func decodeSnapshot(height uint64, data []byte) (Snapshot, error) {
	if len(data) != snapshotBytes {
		return Snapshot{}, fmt.Errorf("snapshot record at height %d has length %d, want %d", height, len(data), snapshotBytes)
	}
	return Snapshot{
		Height:    height,
		LeafCount: binary.BigEndian.Uint64(data[:8]),
		MMRSize:   binary.BigEndian.Uint64(data[8:]),
	}, nil
}

// snapshotLog is the in memory snapshot history, ascending by height. The
// zero value is ready to use. Mutation is guarded by the owning machine's
// lock; resolved snapshots are value copies so readers never share state.
type snapshotLog struct {
	snaps []Snapshot
}

func (l *snapshotLog) record(s Snapshot) {
	l.snaps = append(l.snaps, s)
}

// resolve returns the latest snapshot at or before height. ok is false when
// no snapshot precedes height, in which case the machine's state at that
// height is the empty state.
func (l *snapshotLog) resolve(height uint64) (Snapshot, bool) {
	// first snapshot strictly after height
	i := sort.Search(len(l.snaps), func(i int) bool {
		return l.snaps[i].Height > height
	})
	if i == 0 {
		return Snapshot{}, false
	}
	return l.snaps[i-1], true
}

func (l *snapshotLog) latest() (Snapshot, bool) {
	if len(l.snaps) == 0 {
		return Snapshot{}, false
	}
	return l.snaps[len(l.snaps)-1], true
}
