package machine

import "errors"

var (
	// ErrPermissionDenied is returned when the caller is not permitted to
	// write to the machine. Appends rejected this way have no effect.
	ErrPermissionDenied = errors.New("write access denied")

	// ErrNotFound covers unknown machine addresses and out of range leaf
	// indices.
	ErrNotFound = errors.New("not found")

	// ErrInvalidHeight is returned for height scoped reads beyond the chain
	// tip.
	ErrInvalidHeight = errors.New("invalid height")

	// ErrSerialization is returned for payloads rejected before any state
	// change: anything above MaxPayloadBytes.
	ErrSerialization = errors.New("payload rejected")
)
