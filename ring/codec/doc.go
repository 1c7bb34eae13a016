// Package codec provides message serialization for the distributed key-value
// store. It defines a common interface and the newline-delimited text
// implementation used on the wire between peers.
//
// The wire format is a textual record, one FIELD:VALUE pair per line. The
// first five lines are fixed: SOURCE, DESTINATION, TYPE, SOURCE-ID and
// NODE-COUNT. A NODE-COUNT of -1 means the message carries no network
// information; otherwise that many five-line peer blocks follow (ID, STATUS,
// ADDRESS, IS-DOWN, LAST-UPDATED) before the type-specific fields.
//
// Key Components:
//
//   - ICodec: Core interface that all codec implementations must satisfy.
//
//   - textCodecImpl: The line-based text format. Lines are split on the first
//     colon and both sides are trimmed, so values may themselves contain
//     colons (IPv4:port endpoints in particular).
//
//   - ErrMalformedMessage: Sentinel error wrapped by every parse failure.
//     A record with malformed header lines, an unknown TYPE, a truncated
//     peer block or a missing type-specific field is rejected as a whole;
//     dispatch loops log such records and continue serving.
//
// Thread Safety:
//
//	The codec is stateless and safe for concurrent use across multiple
//	goroutines without additional synchronization.
package codec
