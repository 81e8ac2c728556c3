// Package storage persists the per machine accumulator records: node
// commitments by mmr index, leaf payloads by leaf index, snapshot records by
// height, and machine metadata. Records are only ever written once; nothing
// is updated or deleted.
//
// Two implementations are provided: MemStore for tests and ephemeral dev
// ledgers, and BadgerStore for durable deployments. Both are keyed by the
// opaque machine address so that one store serves every machine in a
// registry.
package storage

import "errors"

var (
	ErrNotFound = errors.New("record not found")
)

// SnapshotRecord is one persisted snapshot. Data is opaque to the store; the
// machine layer owns the encoding.
type SnapshotRecord struct {
	Height uint64
	Data   []byte
}

// MachineRecord is the persisted metadata for one machine.
type MachineRecord struct {
	Address []byte
	Data    []byte
}

type Store interface {
	PutNode(addr []byte, i uint64, value []byte) error
	// GetNode returns the commitment at mmr index i, or ErrNotFound.
	GetNode(addr []byte, i uint64) ([]byte, error)

	PutLeaf(addr []byte, leafIndex uint64, payload []byte) error
	// GetLeaf returns the payload at leafIndex, or ErrNotFound.
	GetLeaf(addr []byte, leafIndex uint64) ([]byte, error)

	PutSnapshot(addr []byte, height uint64, data []byte) error
	// Snapshots returns all snapshot records for addr in ascending height
	// order.
	Snapshots(addr []byte) ([]SnapshotRecord, error)

	PutMachine(addr []byte, data []byte) error
	// Machines returns the metadata records for every machine in the store.
	Machines() ([]MachineRecord, error)

	Close() error
}
