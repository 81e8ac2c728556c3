package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotLogResolve(t *testing.T) {
	var l snapshotLog
	l.record(Snapshot{Height: 5, LeafCount: 1, MMRSize: 1})
	l.record(Snapshot{Height: 9, LeafCount: 2, MMRSize: 3})
	l.record(Snapshot{Height: 12, LeafCount: 3, MMRSize: 4})

	tests := []struct {
		name     string
		height   uint64
		wantOK   bool
		wantSize uint64
	}{
		{"before first", 4, false, 0},
		{"exactly first", 5, true, 1},
		{"between", 7, true, 1},
		{"exactly second", 9, true, 3},
		{"after last", 100, true, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, ok := l.resolve(tt.height)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantSize, snap.MMRSize)
			}
		})
	}
}

func TestSnapshotLogEmpty(t *testing.T) {
	var l snapshotLog
	_, ok := l.resolve(100)
	assert.False(t, ok)
	_, ok = l.latest()
	assert.False(t, ok)
}

func TestSnapshotEncodeRoundTrip(t *testing.T) {
	want := Snapshot{Height: 77, LeafCount: 12, MMRSize: 22}
	got, err := decodeSnapshot(77, want.encode())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = decodeSnapshot(1, []byte{1, 2, 3})
	assert.Error(t, err)
}
