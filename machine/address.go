package machine

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mountainlog/go-mountainlog/hasher"
	"github.com/mountainlog/go-mountainlog/signer"
)

// AddressBytes is the length of a machine address.
const AddressBytes = 20

// Address uniquely identifies one accumulator machine. Addresses are never
// reused or recycled.
type Address [AddressBytes]byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

// ParseAddress parses the 0x prefixed hex form produced by String.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(trimmed)
	if err != nil || len(b) != AddressBytes {
		return Address{}, fmt.Errorf("%w: malformed address %q", ErrNotFound, s)
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// newAddress derives a fresh machine address from the creator identity and a
// random uuid salt, so that one owner creating many machines always gets
// distinct addresses.
func newAddress(h hasher.Hasher, owner signer.Identity) Address {
	salt := uuid.New()
	digest := h.HashLeaf(append(owner[:], salt[:]...))
	var a Address
	copy(a[:], digest[:AddressBytes])
	return a
}
