// Package signer provides the secp256k1 identities used to authorize writes
// to accumulator machines. An identity is the truncated hash of a compressed
// public key. Key management beyond parsing and signing is out of scope.
package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const IdentityBytes = 20

var (
	ErrBadIdentity   = errors.New("malformed identity")
	ErrBadPrivateKey = errors.New("malformed private key")
	ErrBadSignature  = errors.New("signature verification failed")
)

// Identity is the caller identity derived from a public key. The zero value
// is never a valid identity.
type Identity [IdentityBytes]byte

func (id Identity) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id Identity) IsZero() bool {
	return id == Identity{}
}

// ParseIdentity parses the 0x prefixed hex form produced by String.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != IdentityBytes {
		return Identity{}, fmt.Errorf("%w: %s", ErrBadIdentity, s)
	}
	var id Identity
	copy(id[:], b)
	return id, nil
}

// IdentityForPubKey derives the identity for a compressed public key: the
// first 20 bytes of its sha256 digest.
func IdentityForPubKey(compressed []byte) Identity {
	digest := sha256.Sum256(compressed)
	var id Identity
	copy(id[:], digest[:IdentityBytes])
	return id
}

// Signer signs transaction envelopes with a secp256k1 private key.
type Signer struct {
	priv *secp256k1.PrivateKey
}

// Generate creates a Signer with a fresh random key.
func Generate() (*Signer, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &Signer{priv: priv}, nil
}

// ParsePrivateKey parses a hex encoded 32 byte secp256k1 private key,
// optionally 0x prefixed.
func ParsePrivateKey(s string) (*Signer, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("%w: expected 32 hex encoded bytes", ErrBadPrivateKey)
	}
	return &Signer{priv: secp256k1.PrivKeyFromBytes(b)}, nil
}

// PubKey returns the compressed public key.
func (s *Signer) PubKey() []byte {
	return s.priv.PubKey().SerializeCompressed()
}

// Identity returns the identity for the signer's public key.
func (s *Signer) Identity() Identity {
	return IdentityForPubKey(s.PubKey())
}

// Sign returns a DER encoded ECDSA signature over sha256(msg).
func (s *Signer) Sign(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	return ecdsa.Sign(s.priv, digest[:]).Serialize()
}

// Verify checks sig over msg against the compressed public key and confirms
// the key corresponds to the claimed identity.
func Verify(id Identity, compressedPubKey, msg, sig []byte) error {
	if IdentityForPubKey(compressedPubKey) != id {
		return fmt.Errorf("%w: public key does not match identity %s", ErrBadSignature, id)
	}
	pub, err := secp256k1.ParsePubKey(compressedPubKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	digest := sha256.Sum256(msg)
	if !parsed.Verify(digest[:], pub) {
		return ErrBadSignature
	}
	return nil
}
