// Package store provides the local storage contract of a peer: the per-node
// record table {key, value, timestamp} and the coordinator-only lookup table
// {key, ring_size}, together with a unified typed error system.
//
// The package focuses on:
//   - A pair of narrow interfaces (IRecordStore, ILookupStore) so peers can
//     switch storage backends without code changes
//   - Structured error reporting using typed return codes instead of
//     generic errors
//
// Key Components:
//
//   - IRecordStore: the table every data-bearing node keeps. Upsert stamps
//     the record with the current wall-clock instant; last-writer-wins
//     reconciliation across replicas relies on this stamp.
//
//   - ILookupStore: the coordinator's record of which ring size was in
//     effect when each key was last written. Read, delete and stabilization
//     compute placements against this recorded ring size, not the current
//     one, so keys written before a membership change remain addressable.
//
//   - Error System: a structured error type carrying a RetCode. Callers
//     branch on codes (conflict, not-found) rather than matching message
//     strings.
//
// Implementations:
//
//	The fstore subpackage provides the file-backed implementation used in
//	production: in-memory tables snapshotted to disk on every mutation, so
//	both tables survive process restarts.
package store
