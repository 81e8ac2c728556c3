package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	prefixNode     = byte('n')
	prefixLeaf     = byte('l')
	prefixSnapshot = byte('s')
	prefixMachine  = byte('m')
)

// BadgerStore is the durable Store. One badger database holds the records of
// every machine in a registry, keyed by record kind, machine address and the
// record's index or height.
//
// All addresses written to one store must have the same length, which is the
// case for the registry's fixed size addresses.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (creating as needed) the badger database in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func indexed(prefix byte, addr []byte, i uint64) []byte {
	key := make([]byte, 0, 1+len(addr)+8)
	key = append(key, prefix)
	key = append(key, addr...)
	key = binary.BigEndian.AppendUint64(key, i)
	return key
}

func (s *BadgerStore) put(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (s *BadgerStore) get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %x", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *BadgerStore) PutNode(addr []byte, i uint64, value []byte) error {
	return s.put(indexed(prefixNode, addr, i), value)
}

func (s *BadgerStore) GetNode(addr []byte, i uint64) ([]byte, error) {
	return s.get(indexed(prefixNode, addr, i))
}

func (s *BadgerStore) PutLeaf(addr []byte, leafIndex uint64, payload []byte) error {
	return s.put(indexed(prefixLeaf, addr, leafIndex), payload)
}

func (s *BadgerStore) GetLeaf(addr []byte, leafIndex uint64) ([]byte, error) {
	return s.get(indexed(prefixLeaf, addr, leafIndex))
}

func (s *BadgerStore) PutSnapshot(addr []byte, height uint64, data []byte) error {
	return s.put(indexed(prefixSnapshot, addr, height), data)
}

// Snapshots returns addr's snapshot records in ascending height order. The
// big endian height suffix of the keys makes badger's key order the height
// order.
func (s *BadgerStore) Snapshots(addr []byte) ([]SnapshotRecord, error) {
	prefix := append([]byte{prefixSnapshot}, addr...)
	var recs []SnapshotRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) != len(prefix)+8 {
				return fmt.Errorf("malformed snapshot key %x", key)
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			recs = append(recs, SnapshotRecord{
				Height: binary.BigEndian.Uint64(key[len(prefix):]),
				Data:   data,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *BadgerStore) PutMachine(addr []byte, data []byte) error {
	key := append([]byte{prefixMachine}, addr...)
	return s.put(key, data)
}

func (s *BadgerStore) Machines() ([]MachineRecord, error) {
	var recs []MachineRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{prefixMachine}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			recs = append(recs, MachineRecord{Address: key[1:], Data: data})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
