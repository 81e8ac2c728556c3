// Package hasher provides the pinned commitment schemes used by the
// accumulator. A scheme maps a leaf payload, or a pair of equal height child
// commitments, to a fixed 32 byte commitment value.
//
// The leaf and interior node cases are domain separated so that a leaf whose
// payload happens to be 64 bytes of commitment data can never collide with an
// interior node. All interoperating deployments must pin the same scheme name
// before root values can be compared.
package hasher

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

const (
	// ValueBytes is the size of every commitment value, for all schemes.
	ValueBytes = 32

	// SchemeSHA256 is the default pin.
	SchemeSHA256 = "sha256"
	SchemeBlake3 = "blake3"

	leafPrefix = byte(0x00)
	nodePrefix = byte(0x01)
)

var (
	ErrUnknownScheme = errors.New("unknown commitment scheme")
)

// Hasher produces leaf and interior node commitments. Implementations are
// pure: identical inputs always produce identical outputs and no state is
// retained between calls.
type Hasher interface {
	// Scheme returns the pinned scheme name.
	Scheme() string
	// HashLeaf returns the commitment for a leaf payload.
	HashLeaf(payload []byte) []byte
	// HashNode returns the commitment for two equal height children. The
	// child committed earlier is always supplied as left.
	HashNode(left, right []byte) []byte
}

// New returns the Hasher for the named scheme, or ErrUnknownScheme.
func New(scheme string) (Hasher, error) {
	switch scheme {
	case SchemeSHA256:
		return &domainHasher{scheme: SchemeSHA256, factory: sha256.New}, nil
	case SchemeBlake3:
		return &domainHasher{scheme: SchemeBlake3, factory: func() hash.Hash { return blake3.New() }}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}
}

// Default returns the sha256 Hasher. It never fails.
func Default() Hasher {
	h, _ := New(SchemeSHA256)
	return h
}

type domainHasher struct {
	scheme  string
	factory func() hash.Hash
}

func (d *domainHasher) Scheme() string { return d.scheme }

func (d *domainHasher) HashLeaf(payload []byte) []byte {
	h := d.factory()
	h.Write([]byte{leafPrefix})
	h.Write(payload)
	return h.Sum(nil)[:ValueBytes]
}

func (d *domainHasher) HashNode(left, right []byte) []byte {
	h := d.factory()
	h.Write([]byte{nodePrefix})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)[:ValueBytes]
}
