package ledger

import (
	"fmt"

	"github.com/mountainlog/go-mountainlog/machine"
	"github.com/mountainlog/go-mountainlog/signer"
)

// BroadcastMode selects how long Submit blocks before returning. It never
// changes the eventual on ledger effect of the transaction.
type BroadcastMode string

const (
	// ModeAsync returns as soon as the transaction is queued.
	ModeAsync BroadcastMode = "async"
	// ModeSync returns once the transaction has been validated and ordered
	// into the commit sequence, with its provisional height.
	ModeSync BroadcastMode = "sync"
	// ModeCommit returns once the transaction's full effect is applied.
	ModeCommit BroadcastMode = "commit"
)

func ParseBroadcastMode(s string) (BroadcastMode, error) {
	switch BroadcastMode(s) {
	case ModeAsync, ModeSync, ModeCommit:
		return BroadcastMode(s), nil
	default:
		return "", fmt.Errorf("unknown broadcast mode: %q", s)
	}
}

type TxKind byte

const (
	// TxCreate allocates a new machine owned by the sender.
	TxCreate TxKind = iota + 1
	// TxPush appends the payload to the machine at Address.
	TxPush
)

// Tx is a signed transaction envelope. From must be the identity of PubKey,
// and Signature must cover SigningBytes.
type Tx struct {
	Kind TxKind
	From signer.Identity

	// TxCreate
	WriteAccess machine.WriteAccess

	// TxPush
	Address machine.Address
	Payload []byte

	PubKey    []byte
	Signature []byte
}

// SigningBytes returns the canonical byte encoding covered by the envelope
// signature. All fields before the single variable length tail are fixed
// size, so the encoding is unambiguous without length framing.
func (tx *Tx) SigningBytes() []byte {
	b := []byte{byte(tx.Kind)}
	b = append(b, tx.From[:]...)
	switch tx.Kind {
	case TxCreate:
		b = append(b, []byte(tx.WriteAccess)...)
	case TxPush:
		b = append(b, tx.Address[:]...)
		b = append(b, tx.Payload...)
	}
	return b
}

// NewCreateTx builds and signs a machine creation transaction.
func NewCreateTx(s *signer.Signer, access machine.WriteAccess) Tx {
	tx := Tx{
		Kind:        TxCreate,
		From:        s.Identity(),
		WriteAccess: access,
		PubKey:      s.PubKey(),
	}
	tx.Signature = s.Sign(tx.SigningBytes())
	return tx
}

// NewPushTx builds and signs an append transaction.
func NewPushTx(s *signer.Signer, addr machine.Address, payload []byte) Tx {
	tx := Tx{
		Kind:    TxPush,
		From:    s.Identity(),
		Address: addr,
		Payload: payload,
		PubKey:  s.PubKey(),
	}
	tx.Signature = s.Sign(tx.SigningBytes())
	return tx
}

// TxStatus reports how far a submitted transaction has progressed.
type TxStatus string

const (
	StatusQueued    TxStatus = "queued"
	StatusIncluded  TxStatus = "included"
	StatusCommitted TxStatus = "committed"
)

// Receipt is the result relayed back to the submitter. Which fields are
// populated depends on the broadcast mode and transaction kind.
type Receipt struct {
	Status TxStatus `json:"status"`
	Height uint64   `json:"height,omitempty"`
	// Address of the created machine, for TxCreate.
	Address string `json:"address,omitempty"`
	// LeafIndex of the appended leaf, for a committed TxPush.
	LeafIndex uint64 `json:"leaf_index"`
	// Root is the hex encoded accumulator root after the append.
	Root string `json:"root,omitempty"`
}
