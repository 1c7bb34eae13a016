// Package transport defines the byte-level message exchange primitive used
// between peers: send one message, receive at most one reply, with every
// operation bounded by a single configured timeout.
//
// One outbound connection carries exactly one exchange and is closed
// afterwards; there is no connection reuse or pooling. The listener side is
// symmetric: a bounded wait for the next inbound message yields either a
// Delivery (payload plus a one-shot reply function) or nothing.
//
// Timeouts are not failures at this layer. An exceeded bound surfaces as
// ErrTimeout, which dispatch loops reify as the Empty sentinel ("no message
// this tick") and orchestrations treat as evidence that a peer is down.
//
// Implementations:
//
//   - tcp: TCP sockets, the production transport. The sender half-closes the
//     write side after the request so the receiver reads until EOF.
//
//   - unix: Unix domain sockets for single-host rings; addresses are socket
//     file paths.
//
//   - memory: an in-process channel-based network for tests, with support
//     for partitioning individual addresses to simulate downed peers.
package transport
