package node

import (
	"github.com/lni/dragonboat/v4/logger"

	"github.com/syedmoizurrehman/DistributedKVStore/lib/store"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/placement"
)

var coordLogger = logger.GetLogger("coordinator")

const reasonKeyMissing = "Key does not exist"

// --------------------------------------------------------------------------
// Coordinator Dispatch
// --------------------------------------------------------------------------

// dispatchCoordinator handles one message in the coordinator role.
func (n *Node) dispatchCoordinator(msg *common.Message) (*common.Message, func()) {
	switch msg.Type {

	case common.MsgTJoinRequest:
		newID := n.view.NextID()
		admitted := admittedRecord(newID, msg.Source)
		n.view.Put(admitted)
		coordLogger.Infof("Admitted %s, ring size now %d", admitted, n.view.RingSize())

		// Gossip starts after the JoinResponse is on the wire.
		after := func() { n.initiateGossip(admitted) }
		return common.NewJoinResponse(newID), after

	case common.MsgTClientReadRequest:
		rec, found := n.coordinatorRead(msg.Key, true)
		if !found {
			return common.NewFailureIndication(reasonKeyMissing), nil
		}
		return common.NewClientReadResponse(rec.Key, rec.Value, rec.Timestamp), nil

	case common.MsgTClientWriteRequest:
		if ok, reason := n.coordinatorWrite(msg.Key, msg.Value); !ok {
			return common.NewFailureIndication(reason), nil
		}
		return common.NewClientWriteResponse(msg.Key, msg.Value), nil

	case common.MsgTClientDeleteRequest:
		if ok, reason := n.coordinatorDelete(msg.Key, true); !ok {
			return common.NewFailureIndication(reason), nil
		}
		return common.NewDeleteAcknowledgement(msg.Key), nil

	case common.MsgTPing:
		return nil, nil

	default:
		coordLogger.Errorf("Protocol violation: coordinator received %s from %s", msg.Type, msg.Source)
		return nil, nil
	}
}

// --------------------------------------------------------------------------
// Placement Helper
// --------------------------------------------------------------------------

// replicasFor resolves the placement of a key at the given ring size to
// concrete peers. Positions beyond the current view (a shrunk ring) are
// dropped.
func (n *Node) replicasFor(key string, ringSize int) []common.Peer {
	dataPeers := n.view.DataPeers()
	positions := placement.Replicas(key, ringSize, n.cfg.ReplicationFactor)

	replicas := make([]common.Peer, 0, len(positions))
	for _, pos := range positions {
		if pos < len(dataPeers) {
			replicas = append(replicas, dataPeers[pos])
		}
	}
	return replicas
}

// --------------------------------------------------------------------------
// Write
// --------------------------------------------------------------------------

// coordinatorWrite fans the write out to the key's placement. Success means
// at least one reachable replica stored the record; the lookup table then
// remembers the ring size the placement was computed at.
func (n *Node) coordinatorWrite(key, value string) (bool, string) {
	ringSize := n.view.RingSize()
	if ringSize == 0 {
		return false, "no data nodes in the ring"
	}

	succeeded := 0
	for _, replica := range n.replicasFor(key, ringSize) {
		resp, err := n.exchangePeer(replica, common.NewWriteRequest(key, value))
		if err != nil {
			coordLogger.Errorf("WriteRequest to %s failed: %v", replica, err)
			continue
		}

		switch {
		case resp.IsEmpty():
			// Timed out; exchangePeer already marked the replica down.
			continue
		case resp.Type == common.MsgTFailureIndication:
			coordLogger.Errorf("Replica %s rejected write of %q: %s", replica, key, resp.FailureReason)
			return false, resp.FailureReason
		case resp.Type == common.MsgTWriteAcknowledgement:
			succeeded++
		default:
			coordLogger.Errorf("Protocol violation: %s answered WriteRequest with %s", replica, resp.Type)
		}
	}

	if succeeded == 0 {
		return false, "no replica available"
	}

	if err := n.lookup.Upsert(key, ringSize); err != nil {
		coordLogger.Errorf("Lookup upsert for %q failed: %v", key, err)
		return false, err.Error()
	}
	coordLogger.Debugf("Wrote %q to %d/%d replicas at ring size %d",
		key, succeeded, n.cfg.ReplicationFactor, ringSize)
	return true, ""
}

// --------------------------------------------------------------------------
// Read
// --------------------------------------------------------------------------

// coordinatorRead resolves a key to its most recently written value.
// Replicas are polled at the ring size recorded for the key; the newest
// timestamp wins, ties broken by lowest replica id. When the recorded ring
// size no longer matches the current one the key is stabilized first,
// unless this call is itself part of a stabilization.
func (n *Node) coordinatorRead(key string, stabilize bool) (store.Record, bool) {
	ringAtWrite, found, err := n.lookup.Get(key)
	if err != nil {
		coordLogger.Errorf("Lookup read for %q failed: %v", key, err)
		return store.Record{}, false
	}
	if !found {
		return store.Record{}, false
	}

	if stabilize && ringAtWrite != n.view.RingSize() {
		if !n.stabilize(key) {
			coordLogger.Warningf("Stabilization of %q failed, reading at ring size %d", key, ringAtWrite)
		}
		// Re-read: a successful stabilization moved the entry to the
		// current ring size.
		if ringAtWrite, found, err = n.lookup.Get(key); err != nil || !found {
			return store.Record{}, false
		}
	}

	// Poll the placement for timestamps.
	var best *common.Message
	var bestPeer common.Peer
	for _, replica := range n.replicasFor(key, ringAtWrite) {
		resp, err := n.exchangePeer(replica, common.NewKeyRequest(key))
		if err != nil {
			coordLogger.Errorf("KeyRequest to %s failed: %v", replica, err)
			continue
		}
		if resp.IsEmpty() || resp.Type != common.MsgTKeyAcknowledgement {
			continue
		}
		if resp.Key == "" {
			// Replica does not hold the record.
			continue
		}
		// Newest stamp wins; equal stamps resolve to the lowest replica id
		// so every coordinator picks the same winner.
		if best == nil || resp.Timestamp > best.Timestamp ||
			(resp.Timestamp == best.Timestamp && replica.ID < bestPeer.ID) {
			best = resp
			bestPeer = replica
		}
	}

	if best == nil {
		return store.Record{}, false
	}

	// Fetch the winning value.
	resp, err := n.exchangePeer(bestPeer, common.NewKeyQuery(key))
	if err != nil || resp.IsEmpty() || resp.Type != common.MsgTValueResponse {
		coordLogger.Errorf("KeyQuery to %s for %q did not produce a value", bestPeer, key)
		return store.Record{}, false
	}

	return store.Record{Key: resp.Key, Value: resp.Value, Timestamp: resp.Timestamp}, true
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// coordinatorDelete removes a key from its placement. Replica timeouts are
// tolerated; an explicit rejection aborts. On success the lookup entry is
// removed.
func (n *Node) coordinatorDelete(key string, stabilize bool) (bool, string) {
	ringSize := n.view.RingSize()
	if ringSize == 0 {
		return false, "no data nodes in the ring"
	}

	ringAtWrite, found, err := n.lookup.Get(key)
	if err != nil {
		return false, err.Error()
	}
	if !found {
		ringAtWrite = ringSize
	}

	if stabilize && found && ringAtWrite != ringSize {
		if !n.stabilize(key) {
			coordLogger.Warningf("Stabilization of %q failed, deleting at ring size %d", key, ringAtWrite)
		} else if ringAtWrite, found, err = n.lookup.Get(key); err != nil || !found {
			return false, reasonKeyMissing
		}
	}

	for _, replica := range n.replicasFor(key, ringAtWrite) {
		resp, err := n.exchangePeer(replica, common.NewDeleteRequest(key))
		if err != nil {
			coordLogger.Errorf("DeleteRequest to %s failed: %v", replica, err)
			continue
		}

		switch {
		case resp.IsEmpty():
			continue
		case resp.Type == common.MsgTFailureIndication:
			coordLogger.Errorf("Replica %s rejected delete of %q: %s", replica, key, resp.FailureReason)
			return false, resp.FailureReason
		case resp.Type == common.MsgTDeleteAcknowledgement:
		default:
			coordLogger.Errorf("Protocol violation: %s answered DeleteRequest with %s", replica, resp.Type)
		}
	}

	if err := n.lookup.Delete(key); err != nil && !store.IsNotFound(err) {
		return false, err.Error()
	}
	return true, ""
}

// --------------------------------------------------------------------------
// Stabilize
// --------------------------------------------------------------------------

// stabilize re-places one key after the ring changed size: read the record
// at its old placement, delete it there, rewrite it at the current
// placement, and move the lookup entry to the current ring size. A failed
// read or delete step leaves the lookup entry at the old ring size, and the
// next read or delete that observes the ring drift retries. The delete step
// removes the lookup entry, so after a failed rewrite the key has no entry
// and reads as not found.
func (n *Node) stabilize(key string) bool {
	metricStabilizeRuns.Inc()

	rec, found := n.coordinatorRead(key, false)
	if !found {
		coordLogger.Errorf("Stabilize %q: record unreadable at old placement", key)
		metricStabilizeFailed.Inc()
		return false
	}

	if ok, reason := n.coordinatorDelete(key, false); !ok {
		coordLogger.Errorf("Stabilize %q: delete at old placement failed: %s", key, reason)
		metricStabilizeFailed.Inc()
		return false
	}

	if ok, reason := n.coordinatorWrite(key, rec.Value); !ok {
		coordLogger.Errorf("Stabilize %q: rewrite failed: %s", key, reason)
		metricStabilizeFailed.Inc()
		return false
	}

	if err := n.lookup.Upsert(key, n.view.RingSize()); err != nil {
		coordLogger.Errorf("Stabilize %q: lookup update failed: %v", key, err)
		metricStabilizeFailed.Inc()
		return false
	}

	coordLogger.Infof("Stabilized %q at ring size %d", key, n.view.RingSize())
	return true
}
