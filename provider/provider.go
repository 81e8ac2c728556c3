// Package provider is the query and transaction façade over the ledger and
// the machine registry: it resolves query heights against the chain tip,
// relays height scoped reads, and signs and submits transactions. The
// accumulator core below it is entirely synchronous; anything that waits
// lives here or in the ledger.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mountainlog/go-mountainlog/ledger"
	"github.com/mountainlog/go-mountainlog/machine"
	"github.com/mountainlog/go-mountainlog/signer"
)

var (
	// ErrNetwork marks failures of the boundary itself rather than of the
	// request. Safe to retry with backoff.
	ErrNetwork = errors.New("network failure")
)

type Provider struct {
	log      zerolog.Logger
	ledger   *ledger.Ledger
	registry *machine.Registry
}

func New(log zerolog.Logger, l *ledger.Ledger, registry *machine.Registry) *Provider {
	return &Provider{
		log:      log.With().Str("unit", "provider").Logger(),
		ledger:   l,
		registry: registry,
	}
}

// resolve maps a QueryHeight to either the pending view (pending true) or a
// concrete height validated against the chain tip.
func (p *Provider) resolve(q QueryHeight) (uint64, bool, error) {
	switch q.kind {
	case kindPending:
		return 0, true, nil
	case kindExplicit:
		tip := p.ledger.Tip()
		if q.height > tip {
			return 0, false, fmt.Errorf("%w: height %d is beyond the tip %d", machine.ErrInvalidHeight, q.height, tip)
		}
		return q.height, false, nil
	default:
		return p.ledger.Tip(), false, nil
	}
}

// CreateMachine signs and submits a machine creation transaction.
func (p *Provider) CreateMachine(ctx context.Context, s *signer.Signer, access machine.WriteAccess, mode ledger.BroadcastMode) (ledger.Receipt, error) {
	receipt, err := p.ledger.Submit(ctx, ledger.NewCreateTx(s, access), mode)
	if errors.Is(err, ledger.ErrStopped) {
		return ledger.Receipt{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return receipt, err
}

// Push signs and submits an append of payload to the machine at addr.
func (p *Provider) Push(ctx context.Context, s *signer.Signer, addr machine.Address, payload []byte, mode ledger.BroadcastMode) (ledger.Receipt, error) {
	receipt, err := p.ledger.Submit(ctx, ledger.NewPushTx(s, addr, payload), mode)
	if errors.Is(err, ledger.ErrStopped) {
		return ledger.Receipt{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return receipt, err
}

// Addresses returns the addresses of all known machines.
func (p *Provider) Addresses() []machine.Address {
	return p.registry.Addresses()
}

// Count returns the machine's leaf count at the query height.
func (p *Provider) Count(addr machine.Address, q QueryHeight) (uint64, error) {
	acc, err := p.registry.Attach(addr)
	if err != nil {
		return 0, err
	}
	height, pending, err := p.resolve(q)
	if err != nil {
		return 0, err
	}
	if pending {
		return acc.Count(), nil
	}
	return acc.CountAt(height), nil
}

// Leaf returns the payload of the machine's leaf at index, as visible at the
// query height.
func (p *Provider) Leaf(addr machine.Address, index uint64, q QueryHeight) ([]byte, error) {
	acc, err := p.registry.Attach(addr)
	if err != nil {
		return nil, err
	}
	height, pending, err := p.resolve(q)
	if err != nil {
		return nil, err
	}
	if pending {
		return acc.Leaf(index)
	}
	return acc.LeafAt(index, height)
}

// Peaks returns the machine's peak commitments at the query height, highest
// mountain first.
func (p *Provider) Peaks(addr machine.Address, q QueryHeight) ([][]byte, error) {
	acc, err := p.registry.Attach(addr)
	if err != nil {
		return nil, err
	}
	height, pending, err := p.resolve(q)
	if err != nil {
		return nil, err
	}
	if pending {
		return acc.Peaks()
	}
	return acc.PeaksAt(height)
}

// Root returns the machine's bagged root at the query height.
func (p *Provider) Root(addr machine.Address, q QueryHeight) ([]byte, error) {
	acc, err := p.registry.Attach(addr)
	if err != nil {
		return nil, err
	}
	height, pending, err := p.resolve(q)
	if err != nil {
		return nil, err
	}
	if pending {
		return acc.Root()
	}
	return acc.RootAt(height)
}
