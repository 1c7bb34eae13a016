// Package membership maintains the set of peers a member of the ring knows
// about. The coordinator's view is authoritative; every other peer converges
// towards it through gossip and through the network blocks piggybacked on
// ordinary messages.
//
// Records merge under a last-updated-wins rule: an incoming record replaces
// the stored one only if its LAST-UPDATED stamp is strictly newer. The rule
// is monotone per peer id, so duplicate or reordered deliveries are benign
// and repeated gossip rounds converge given honest clocks.
package membership
