package machine

import (
	"fmt"

	"github.com/mountainlog/go-mountainlog/signer"
)

// WriteAccess is the machine's append policy. It is fixed at creation and
// never changes.
type WriteAccess string

const (
	// OnlyOwner permits appends from exactly the creator identity.
	OnlyOwner WriteAccess = "onlyowner"
	// Public permits appends from any caller.
	Public WriteAccess = "public"
)

// ParseWriteAccess parses the string form used on the wire and in metadata.
func ParseWriteAccess(s string) (WriteAccess, error) {
	switch WriteAccess(s) {
	case OnlyOwner:
		return OnlyOwner, nil
	case Public:
		return Public, nil
	default:
		return "", fmt.Errorf("unknown write access policy: %q", s)
	}
}

// CanWrite reports whether caller may append under the given policy and
// owner. It is consulted before every append; a false result must leave the
// machine untouched.
func CanWrite(caller, owner signer.Identity, access WriteAccess) bool {
	switch access {
	case Public:
		return true
	case OnlyOwner:
		return caller == owner
	default:
		return false
	}
}
