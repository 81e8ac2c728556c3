// Package ledger provides the dev ledger: the single commit sequence that
// totally orders all transactions, across all callers and all machines, and
// applies each one atomically at its own height.
//
// The accumulator core performs no blocking operations of its own; all
// waiting happens here, in Submit, under the caller's context. Cancelling a
// Submit abandons the wait only. A transaction that has been accepted into
// the queue still commits.
package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mountainlog/go-mountainlog/machine"
	"github.com/mountainlog/go-mountainlog/signer"
)

var (
	// ErrSigning is returned for transactions whose envelope signature does
	// not verify. Checked at admission, before the transaction is ordered.
	ErrSigning = errors.New("transaction signature rejected")

	// ErrStopped is returned when the ledger is no longer accepting
	// transactions.
	ErrStopped = errors.New("ledger stopped")
)

type commitResult struct {
	receipt Receipt
	err     error
}

type pendingTx struct {
	tx Tx
	// both channels are buffered so the commit loop never blocks on a
	// caller that has abandoned its wait
	included  chan commitResult
	committed chan commitResult
}

// Ledger owns the commit loop. All state transitions of every machine flow
// through the single run goroutine, which is what makes each append atomic
// relative to every other append without any cross machine locking.
type Ledger struct {
	log      zerolog.Logger
	registry *machine.Registry

	submitC chan *pendingTx
	quit    chan struct{}
	done    chan struct{}

	mu  sync.RWMutex
	tip uint64
}

func New(log zerolog.Logger, registry *machine.Registry) *Ledger {
	return &Ledger{
		log:      log.With().Str("unit", "ledger").Logger(),
		registry: registry,
		submitC:  make(chan *pendingTx, 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the commit loop.
func (l *Ledger) Start() {
	go l.run()
}

// Resume sets the starting tip, for a ledger picking up a persisted chain.
// Must be called before Start.
func (l *Ledger) Resume(tip uint64) {
	l.setTip(tip)
}

// Stop drains nothing: queued transactions that have not been dequeued when
// Stop is called are dropped, exactly as a real network drops transactions
// that never reach a proposer.
func (l *Ledger) Stop() {
	close(l.quit)
	<-l.done
}

// Tip returns the height of the most recently committed transaction.
func (l *Ledger) Tip() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tip
}

func (l *Ledger) setTip(height uint64) {
	l.mu.Lock()
	l.tip = height
	l.mu.Unlock()
}

// Submit admits the transaction and waits according to mode. The relative
// order of concurrently submitted transactions is decided by queue arrival,
// not by submission call order, so callers must take the resulting leaf
// index from the receipt rather than predicting it.
func (l *Ledger) Submit(ctx context.Context, tx Tx, mode BroadcastMode) (Receipt, error) {
	if _, err := ParseBroadcastMode(string(mode)); err != nil {
		return Receipt{}, err
	}

	// Admission: the envelope signature is checked synchronously for every
	// mode, so an unsigned or forged transaction never enters the queue.
	if err := signer.Verify(tx.From, tx.PubKey, tx.SigningBytes(), tx.Signature); err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	p := &pendingTx{
		tx:        tx,
		included:  make(chan commitResult, 1),
		committed: make(chan commitResult, 1),
	}

	select {
	case l.submitC <- p:
	case <-l.quit:
		return Receipt{}, ErrStopped
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}

	var waitC chan commitResult
	switch mode {
	case ModeAsync:
		return Receipt{Status: StatusQueued}, nil
	case ModeSync:
		waitC = p.included
	case ModeCommit:
		waitC = p.committed
	}

	select {
	case res := <-waitC:
		return res.receipt, res.err
	case <-l.done:
		return Receipt{}, ErrStopped
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}
}

func (l *Ledger) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case p := <-l.submitC:
			l.commitTx(p)
		}
	}
}

// commitTx validates, orders and applies one transaction. Validation
// failures surface on both wait channels and consume no height.
func (l *Ledger) commitTx(p *pendingTx) {
	tx := p.tx

	var acc *machine.Accumulator
	var err error

	switch tx.Kind {
	case TxCreate:
		_, err = machine.ParseWriteAccess(string(tx.WriteAccess))
	case TxPush:
		acc, err = l.registry.Attach(tx.Address)
		if err == nil && !machine.CanWrite(tx.From, acc.Owner(), acc.Access()) {
			err = fmt.Errorf("%w: %s may not write to %s", machine.ErrPermissionDenied, tx.From, tx.Address)
		}
		// every gate Append applies deterministically must be checked here,
		// before the included receipt is sent and a height is spoken for
		if err == nil {
			err = machine.ValidatePayload(tx.Payload)
		}
	default:
		err = fmt.Errorf("unknown transaction kind %d", tx.Kind)
	}
	if err != nil {
		l.log.Debug().Err(err).Msg("transaction rejected")
		p.included <- commitResult{err: err}
		p.committed <- commitResult{err: err}
		return
	}

	height := l.Tip() + 1
	p.included <- commitResult{receipt: Receipt{Status: StatusIncluded, Height: height}}

	receipt := Receipt{Status: StatusCommitted, Height: height}
	switch tx.Kind {
	case TxCreate:
		created, cerr := l.registry.Create(tx.From, tx.WriteAccess, height)
		if cerr != nil {
			p.committed <- commitResult{err: cerr}
			return
		}
		receipt.Address = created.Address().String()
	case TxPush:
		leafIndex, root, aerr := acc.Append(tx.From, tx.Payload, height)
		if aerr != nil {
			p.committed <- commitResult{err: aerr}
			return
		}
		receipt.LeafIndex = leafIndex
		receipt.Root = hex.EncodeToString(root)
	}

	l.setTip(height)
	l.log.Info().
		Uint64("height", height).
		Uint8("kind", uint8(tx.Kind)).
		Str("from", tx.From.String()).
		Msg("transaction committed")

	p.committed <- commitResult{receipt: receipt}
}
