// Package node implements the peer state machine of the distributed
// key-value store: a single dispatch loop whose behavior is selected by the
// role fixed at construction.
//
// Roles:
//
//   - Coordinator (reserved id 0): maintains the authoritative membership
//     view, admits joining nodes, and mediates every client operation by
//     fanning out to the replicas chosen by placement. Reads reconcile
//     divergent replicas last-writer-wins by timestamp; writes succeed once
//     any reachable replica acknowledges; a ring-size change observed on
//     read or delete triggers the three-step stabilization (read at the old
//     placement, delete there, rewrite at the current one).
//
//   - Node (positive id): stores records. After joining through the
//     coordinator it answers write, delete, key and value requests against
//     its local table and relays hop-bounded join introductions.
//
//   - Client (reserved id -1): no loop at all, only blocking round trips
//     against the coordinator.
//
// The loop processes one message to completion before accepting the next:
// the membership view and the lookup table are only ever touched from the
// dispatch goroutine, so handlers need no further synchronization. A timed
// out listen is not an error but a tick without work; a timed-out outbound
// exchange marks the unresponsive peer down in the view, and any later
// successful exchange clears the flag. Every non-client message carries a
// piggybacked snapshot of the sender's view, merged on receipt under the
// last-updated-wins rule, so membership information spreads with the
// workload as well as through gossip.
package node
