package membership

import (
	"math/rand"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
)

// View is the set of peers a member currently knows about, keyed by id.
// The coordinator's view is authoritative; every other peer holds a snapshot
// kept current by gossip and by the network blocks piggybacked on messages.
type View struct {
	peers  *xsync.MapOf[int, common.Peer]
	selfID int
}

// NewView creates a view seeded with the local peer's own record.
func NewView(self common.Peer) *View {
	v := &View{
		peers:  xsync.NewMapOf[int, common.Peer](),
		selfID: self.ID,
	}
	v.peers.Store(self.ID, self)
	return v
}

// --------------------------------------------------------------------------
// Self
// --------------------------------------------------------------------------

// SelfID returns the local peer's id.
func (v *View) SelfID() int {
	return v.selfID
}

// Self returns the local peer's record.
func (v *View) Self() common.Peer {
	p, _ := v.peers.Load(v.selfID)
	return p
}

// SetSelfID re-keys the local record after the coordinator assigned an id.
// Nodes start with the client id placeholder until their JoinResponse arrives.
func (v *View) SetSelfID(id int) {
	self := v.Self()
	v.peers.Delete(v.selfID)
	self.ID = id
	self.LastUpdated = time.Now().Unix()
	v.selfID = id
	v.peers.Store(id, self)
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// Get returns the peer record for the given id.
func (v *View) Get(id int) (common.Peer, bool) {
	return v.peers.Load(id)
}

// GetByAddress returns the first peer with the given address.
func (v *View) GetByAddress(addr string) (common.Peer, bool) {
	var found common.Peer
	ok := false
	v.peers.Range(func(_ int, p common.Peer) bool {
		if p.Address == addr {
			found = p
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// RingSize returns the number of data-bearing peers in the view.
// The coordinator and clients are excluded.
func (v *View) RingSize() int {
	n := 0
	v.peers.Range(func(_ int, p common.Peer) bool {
		if p.IsDataBearing() {
			n++
		}
		return true
	})
	return n
}

// DataPeers returns the data-bearing peers sorted by id.
// Placement indices select into this slice.
func (v *View) DataPeers() []common.Peer {
	peers := make([]common.Peer, 0)
	v.peers.Range(func(_ int, p common.Peer) bool {
		if p.IsDataBearing() {
			peers = append(peers, p)
		}
		return true
	})
	sort.Slice(peers, func(i, j int) bool { return peers[i].ID < peers[j].ID })
	return peers
}

// --------------------------------------------------------------------------
// Mutation
// --------------------------------------------------------------------------

// Put stores a peer record unconditionally, bypassing the merge rule.
// Used by the coordinator when admitting a new peer.
func (v *View) Put(p common.Peer) {
	v.peers.Store(p.ID, p)
}

// Merge applies the merge rule for a single incoming record: insert if the
// id is unknown, replace only if the incoming record is fresher. The local
// peer's own record is never overwritten by remote state.
// Returns true if the view changed.
func (v *View) Merge(p common.Peer) bool {
	if p.ID == v.selfID {
		return false
	}

	changed := false
	v.peers.Compute(p.ID, func(old common.Peer, loaded bool) (common.Peer, bool) {
		if !loaded || p.LastUpdated > old.LastUpdated {
			changed = true
			return p, false
		}
		return old, false
	})
	return changed
}

// MergeAll applies the merge rule to every record of a piggybacked network
// block and returns the number of records that changed the view.
func (v *View) MergeAll(peers []common.Peer) int {
	changed := 0
	for _, p := range peers {
		if v.Merge(p) {
			changed++
		}
	}
	return changed
}

// MarkDown flags a peer as unreachable, stamping the change.
func (v *View) MarkDown(id int) {
	v.setDown(id, true)
}

// MarkUp clears a peer's down flag after a successful exchange.
func (v *View) MarkUp(id int) {
	v.setDown(id, false)
}

func (v *View) setDown(id int, down bool) {
	v.peers.Compute(id, func(p common.Peer, loaded bool) (common.Peer, bool) {
		if !loaded {
			return p, true
		}
		if p.IsDown != down {
			p.IsDown = down
			p.LastUpdated = time.Now().Unix()
		}
		return p, false
	})
}

// Touch refreshes a peer's LastUpdated stamp after any successful exchange.
func (v *View) Touch(id int) {
	v.peers.Compute(id, func(p common.Peer, loaded bool) (common.Peer, bool) {
		if !loaded {
			return p, true
		}
		p.LastUpdated = time.Now().Unix()
		return p, false
	})
}

// --------------------------------------------------------------------------
// Wire Snapshots
// --------------------------------------------------------------------------

// Snapshot builds the piggyback set for a message to destAddr: every known
// peer except clients and the destination host's own record, with the local
// peer's block stamped with the current instant.
func (v *View) Snapshot(destAddr string) []common.Peer {
	now := time.Now().Unix()
	peers := make([]common.Peer, 0)
	v.peers.Range(func(_ int, p common.Peer) bool {
		// Clients never travel; neither does a joiner still holding the
		// placeholder id.
		if p.Status == common.StatusClient || p.ID == common.ClientID {
			return true
		}
		if p.Address == destAddr {
			return true
		}
		if p.ID == v.selfID {
			p.LastUpdated = now
		}
		peers = append(peers, p)
		return true
	})
	sort.Slice(peers, func(i, j int) bool { return peers[i].ID < peers[j].ID })
	return peers
}

// --------------------------------------------------------------------------
// Coordinator Helpers
// --------------------------------------------------------------------------

// NextID allocates the next data-bearing peer id: one past the highest id
// the view has seen. Ids are monotonically increasing and never reused.
func (v *View) NextID() int {
	max := 0
	v.peers.Range(func(id int, _ common.Peer) bool {
		if id > max {
			max = id
		}
		return true
	})
	return max + 1
}

// RandomDataPeer picks a uniformly random data-bearing peer whose id is not
// in the exclude list. The second return value is false if no candidate
// exists.
func (v *View) RandomDataPeer(exclude ...int) (common.Peer, bool) {
	excluded := make(map[int]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	candidates := make([]common.Peer, 0)
	v.peers.Range(func(_ int, p common.Peer) bool {
		if p.IsDataBearing() && !excluded[p.ID] {
			candidates = append(candidates, p)
		}
		return true
	})

	if len(candidates) == 0 {
		return common.Peer{}, false
	}
	return candidates[rand.Intn(len(candidates))], true
}
