package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MemStore is the in memory Store used by tests and ephemeral dev ledgers.
// It is safe for concurrent use.
type MemStore struct {
	mu       sync.RWMutex
	nodes    map[string][]byte
	leaves   map[string][]byte
	snaps    map[string][]SnapshotRecord
	machines map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{
		nodes:    make(map[string][]byte),
		leaves:   make(map[string][]byte),
		snaps:    make(map[string][]SnapshotRecord),
		machines: make(map[string][]byte),
	}
}

func indexedKey(addr []byte, i uint64) string {
	return fmt.Sprintf("%x/%016x", addr, i)
}

func (s *MemStore) PutNode(addr []byte, i uint64, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[indexedKey(addr, i)] = append([]byte{}, value...)
	return nil
}

func (s *MemStore) GetNode(addr []byte, i uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.nodes[indexedKey(addr, i)]
	if !ok {
		return nil, fmt.Errorf("%w: node %d", ErrNotFound, i)
	}
	return append([]byte{}, v...), nil
}

func (s *MemStore) PutLeaf(addr []byte, leafIndex uint64, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves[indexedKey(addr, leafIndex)] = append([]byte{}, payload...)
	return nil
}

func (s *MemStore) GetLeaf(addr []byte, leafIndex uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.leaves[indexedKey(addr, leafIndex)]
	if !ok {
		return nil, fmt.Errorf("%w: leaf %d", ErrNotFound, leafIndex)
	}
	return append([]byte{}, v...), nil
}

func (s *MemStore) PutSnapshot(addr []byte, height uint64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(addr)
	rec := SnapshotRecord{Height: height, Data: append([]byte{}, data...)}
	s.snaps[key] = append(s.snaps[key], rec)
	sort.Slice(s.snaps[key], func(i, j int) bool {
		return s.snaps[key][i].Height < s.snaps[key][j].Height
	})
	return nil
}

func (s *MemStore) Snapshots(addr []byte) ([]SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.snaps[string(addr)]
	out := make([]SnapshotRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *MemStore) PutMachine(addr []byte, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machines[string(addr)] = append([]byte{}, data...)
	return nil
}

func (s *MemStore) Machines() ([]MachineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MachineRecord
	for addr, data := range s.machines {
		out = append(out, MachineRecord{
			Address: []byte(addr),
			Data:    append([]byte{}, data...),
		})
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }
