package machine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mountainlog/go-mountainlog/hasher"
	"github.com/mountainlog/go-mountainlog/signer"
	"github.com/mountainlog/go-mountainlog/storage"
)

// Registry owns the address to machine arena. Machines are fully self
// contained; the registry shares nothing between them except the backing
// store, which is partitioned by address.
type Registry struct {
	mu       sync.RWMutex
	log      zerolog.Logger
	h        hasher.Hasher
	store    storage.Store
	machines map[Address]*Accumulator
}

// metaRecord is the persisted machine metadata.
type metaRecord struct {
	Owner       string `json:"owner"`
	WriteAccess string `json:"write_access"`
	CreatedAt   uint64 `json:"created_at"`
	Scheme      string `json:"scheme"`
}

func NewRegistry(log zerolog.Logger, h hasher.Hasher, store storage.Store) *Registry {
	return &Registry{
		log:      log.With().Str("unit", "registry").Logger(),
		h:        h,
		store:    store,
		machines: make(map[Address]*Accumulator),
	}
}

// Create allocates a new empty machine with a fresh unique address, owned by
// owner, with the given write policy, created at the given ledger height.
func (r *Registry) Create(owner signer.Identity, access WriteAccess, height uint64) (*Accumulator, error) {
	if _, err := ParseWriteAccess(string(access)); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	addr := newAddress(r.h, owner)
	// uuid salted addresses over a 160 bit space do not collide in practice;
	// the check guards against a store seeded with conflicting data
	if _, exists := r.machines[addr]; exists {
		return nil, fmt.Errorf("address collision at %s", addr)
	}

	meta, err := json.Marshal(metaRecord{
		Owner:       owner.String(),
		WriteAccess: string(access),
		CreatedAt:   height,
		Scheme:      r.h.Scheme(),
	})
	if err != nil {
		return nil, err
	}
	if err := r.store.PutMachine(addr.Bytes(), meta); err != nil {
		return nil, err
	}

	acc := &Accumulator{
		address:   addr,
		owner:     owner,
		access:    access,
		createdAt: height,
		h:         r.h,
		store:     r.store,
	}
	r.machines[addr] = acc

	r.log.Info().
		Str("address", addr.String()).
		Str("owner", owner.String()).
		Str("write_access", string(access)).
		Uint64("height", height).
		Msg("machine created")

	return acc, nil
}

// Attach resolves an address to its machine, failing with ErrNotFound for
// unknown addresses.
func (r *Registry) Attach(addr Address) (*Accumulator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.machines[addr]
	if !ok {
		return nil, fmt.Errorf("%w: no machine at %s", ErrNotFound, addr)
	}
	return acc, nil
}

// Addresses returns the addresses of all known machines.
func (r *Registry) Addresses() []Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Address
	for addr := range r.machines {
		out = append(out, addr)
	}
	return out
}

// LatestHeight returns the greatest ledger height any known machine has
// recorded. A ledger resuming over a loaded registry must not issue heights
// at or below this.
func (r *Registry) LatestHeight() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var max uint64
	for _, acc := range r.machines {
		if h := acc.LastHeight(); h > max {
			max = h
		}
	}
	return max
}

// Load rebuilds the arena from the backing store. It is called once at
// startup, before any appends are accepted.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.store.Machines()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if len(rec.Address) != AddressBytes {
			return fmt.Errorf("malformed machine address %x in store", rec.Address)
		}
		var addr Address
		copy(addr[:], rec.Address)

		var meta metaRecord
		if err := json.Unmarshal(rec.Data, &meta); err != nil {
			return fmt.Errorf("decoding metadata for %s: %w", addr, err)
		}
		owner, err := signer.ParseIdentity(meta.Owner)
		if err != nil {
			return fmt.Errorf("decoding owner for %s: %w", addr, err)
		}
		access, err := ParseWriteAccess(meta.WriteAccess)
		if err != nil {
			return fmt.Errorf("decoding policy for %s: %w", addr, err)
		}
		if meta.Scheme != r.h.Scheme() {
			return fmt.Errorf("machine %s was built with scheme %s, registry is pinned to %s", addr, meta.Scheme, r.h.Scheme())
		}

		acc := &Accumulator{
			address:   addr,
			owner:     owner,
			access:    access,
			createdAt: meta.CreatedAt,
			h:         r.h,
			store:     r.store,
		}

		snaps, err := r.store.Snapshots(addr.Bytes())
		if err != nil {
			return err
		}
		for _, sr := range snaps {
			snap, err := decodeSnapshot(sr.Height, sr.Data)
			if err != nil {
				return err
			}
			acc.log.record(snap)
		}
		if latest, ok := acc.log.latest(); ok {
			acc.mmrSize = latest.MMRSize
		}

		r.machines[addr] = acc
		r.log.Debug().
			Str("address", addr.String()).
			Uint64("mmr_size", acc.mmrSize).
			Msg("machine loaded")
	}
	return nil
}
