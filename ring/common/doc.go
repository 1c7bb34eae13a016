// Package common provides core data structures and utilities shared across
// the distributed key-value store system. It defines fundamental types,
// configuration structures, and protocol elements used by other packages.
//
// The package focuses on:
//   - Message protocol definition for peer-to-peer communication
//   - Peer records and the reserved-id conventions of the ring
//   - Configuration structures for peer and client processes
//   - Custom logging implementation shared by all packages
//
// Key Components:
//
//   - Message: Core data structure for all communication between peers, with a
//     flexible structure that adapts to different operation types. Includes
//     factory methods for creating the various request and response messages.
//     A message optionally piggybacks the sender's membership view so that
//     every exchange doubles as a gossip opportunity.
//
//   - MessageType: Enumeration defining all supported wire message types, plus
//     the internal Empty sentinel that reifies a listen timeout.
//
//   - Peer: The value record every member keeps per known peer. Peers are
//     keyed by id; id 0 is reserved for the coordinator and id -1 for clients.
//     Only peers with positive ids bear data and count towards the ring size.
//
//   - Config/ClientConfig: Configuration for peer and client processes:
//     placement parameters (replication factor, default ring size), network
//     parameters (port, transport, timeout) and storage location.
//
//   - Logger: Custom logging implementation built on Dragonboat's logger
//     facility, providing consistent formatting across the application.
package common
