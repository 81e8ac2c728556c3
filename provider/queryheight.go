package provider

import (
	"fmt"
	"strconv"
)

type heightKind int

const (
	kindCommitted heightKind = iota
	kindPending
	kindExplicit
)

// QueryHeight selects which snapshot of machine state a read observes:
// the latest committed state (the default), the pending state including
// effects not yet visible at any committed height, or an explicit height.
type QueryHeight struct {
	kind   heightKind
	height uint64
}

var (
	Committed = QueryHeight{kind: kindCommitted}
	Pending   = QueryHeight{kind: kindPending}
)

// AtHeight pins the read to an explicit ledger height.
func AtHeight(height uint64) QueryHeight {
	return QueryHeight{kind: kindExplicit, height: height}
}

// ParseQueryHeight accepts "committed", "pending", or a decimal height. The
// empty string means committed.
func ParseQueryHeight(s string) (QueryHeight, error) {
	switch s {
	case "", "committed":
		return Committed, nil
	case "pending":
		return Pending, nil
	}
	h, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return QueryHeight{}, fmt.Errorf("invalid query height %q: expected committed, pending or a decimal height", s)
	}
	return AtHeight(h), nil
}

func (q QueryHeight) String() string {
	switch q.kind {
	case kindPending:
		return "pending"
	case kindExplicit:
		return strconv.FormatUint(q.height, 10)
	default:
		return "committed"
	}
}
