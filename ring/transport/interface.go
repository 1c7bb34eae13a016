package transport

import (
	"errors"
)

// ErrTimeout is returned when a network operation exceeds the configured
// bound. Callers treat it as "no data", not as a failure: the dispatch loop
// converts a timed-out listen into the Empty sentinel, and a timed-out
// exchange marks the remote peer as down.
var ErrTimeout = errors.New("network operation timed out")

// IsTimeout reports whether an error represents an exceeded network bound.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// Delivery is one inbound message awaiting its reply. Reply writes the
// response on the same connection and releases it; it must be called at most
// once. A Delivery may be dropped without replying (the sender times out).
type Delivery struct {
	Payload []byte
	Reply   func(resp []byte) error
}

// ITransport is the interface for the peer-to-peer transport layer.
// One outbound connection carries exactly one request-or-response exchange
// and is closed afterwards.
type ITransport interface {
	// Listen binds the transport to the given address.
	Listen(addr string) error
	// Next waits for the next inbound message, at most the configured
	// timeout. The boolean return value is false if the bound elapsed
	// without a message.
	Next() (Delivery, bool)
	// Exchange sends one message to addr and waits for the single reply.
	// A reply is not guaranteed; an exceeded bound yields ErrTimeout.
	Exchange(addr string, payload []byte) ([]byte, error)
	// Close releases the listener.
	Close() error
}
