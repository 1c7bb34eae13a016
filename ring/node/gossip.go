package node

import (
	"github.com/lni/dragonboat/v4/logger"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
)

var gossipLogger = logger.GetLogger("gossip")

// --------------------------------------------------------------------------
// Gossip
// --------------------------------------------------------------------------

// initiateGossip starts the dissemination of a freshly admitted peer. With
// fewer than two data peers there is nobody worth telling; otherwise one
// uniformly random peer distinct from the newcomer receives a
// JoinIntroduction with a hop budget of ringSize/4.
func (n *Node) initiateGossip(admitted common.Peer) {
	ringSize := n.view.RingSize()
	if ringSize < 2 {
		return
	}

	target, ok := n.view.RandomDataPeer(admitted.ID)
	if !ok {
		return
	}

	hops := ringSize / 4
	gossipLogger.Infof("Introducing peer %d to %s with %d hops", admitted.ID, target, hops)
	n.sendIntroduction(target, admitted.ID, hops)
}

// relayIntroduction forwards a received JoinIntroduction while hop budget
// remains. The relay target is random, never the relay itself and never the
// introduced peer; duplicate deliveries are benign under the merge rule.
func (n *Node) relayIntroduction(msg *common.Message) func() {
	if msg.HopCount <= 0 {
		return nil
	}

	newID := msg.NewID
	hops := msg.HopCount - 1

	return func() {
		target, ok := n.view.RandomDataPeer(n.view.SelfID(), newID)
		if !ok {
			return
		}
		gossipLogger.Debugf("Relaying introduction of peer %d to %s (%d hops left)", newID, target, hops)
		n.sendIntroduction(target, newID, hops)
	}
}

// sendIntroduction performs the one-way introduction exchange. No response
// carries information; a timeout only marks the target down.
func (n *Node) sendIntroduction(target common.Peer, newID, hops int) {
	if _, err := n.exchangePeer(target, common.NewJoinIntroduction(newID, hops)); err != nil {
		gossipLogger.Warningf("Introduction of peer %d to %s failed: %v", newID, target, err)
	}
}
