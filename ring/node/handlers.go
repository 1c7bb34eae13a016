package node

import (
	"context"
	"time"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
)

// --------------------------------------------------------------------------
// Data Node Dispatch
// --------------------------------------------------------------------------

// dispatchNode handles one message in the data-node role. The returned
// message, if any, is sent back on the same connection; the returned
// function, if any, runs after the reply went out.
func (n *Node) dispatchNode(msg *common.Message) (*common.Message, func()) {
	switch msg.Type {

	case common.MsgTWriteRequest:
		rec, err := n.records.Upsert(msg.Key, msg.Value)
		if err != nil {
			Logger.Errorf("Local upsert of %q failed: %v", msg.Key, err)
			return common.NewFailureIndication(err.Error()), nil
		}
		Logger.Debugf("Stored %q@%d", rec.Key, rec.Timestamp)
		return common.NewWriteAcknowledgement(msg.Key), nil

	case common.MsgTDeleteRequest:
		if err := n.records.Delete(msg.Key); err != nil {
			return common.NewFailureIndication("Key does not exist"), nil
		}
		return common.NewDeleteAcknowledgement(msg.Key), nil

	case common.MsgTKeyRequest:
		rec, ok, err := n.records.Get(msg.Key)
		if err != nil {
			return common.NewFailureIndication(err.Error()), nil
		}
		if !ok {
			// An empty key signals absence.
			return common.NewKeyAcknowledgement("", 0), nil
		}
		return common.NewKeyAcknowledgement(rec.Key, rec.Timestamp), nil

	case common.MsgTKeyQuery:
		rec, ok, err := n.records.Get(msg.Key)
		if err != nil {
			return common.NewFailureIndication(err.Error()), nil
		}
		if !ok {
			return common.NewFailureIndication("Key does not exist"), nil
		}
		return common.NewValueResponse(rec.Key, rec.Value, rec.Timestamp), nil

	case common.MsgTJoinIntroduction:
		// The view merge already happened in absorb; what is left is the
		// hop-bounded relay.
		return nil, n.relayIntroduction(msg)

	case common.MsgTPing:
		// Merge and touch are the whole effect.
		return nil, nil

	default:
		Logger.Errorf("Protocol violation: node received %s from %s", msg.Type, msg.Source)
		return nil, nil
	}
}

// --------------------------------------------------------------------------
// Joining
// --------------------------------------------------------------------------

// join sends JoinRequests to the configured coordinator until a JoinResponse
// arrives, then adopts the assigned id and the returned network snapshot.
func (n *Node) join(ctx context.Context) error {
	coordinator := common.Peer{
		ID:      common.CoordinatorID,
		Address: n.cfg.CoordinatorAddress,
		Status:  common.StatusCoordinator,
	}

	for ctx.Err() == nil {
		resp, err := n.exchangePeer(coordinator, common.NewJoinRequest())
		if err != nil {
			Logger.Errorf("Join attempt failed: %v", err)
			// A refused connection fails fast; pace the retries.
			time.Sleep(n.cfg.NetworkTimeout())
			continue
		}
		if resp.IsEmpty() {
			Logger.Warningf("Coordinator %s not answering, retrying join", coordinator.Address)
			continue
		}
		if resp.Type != common.MsgTJoinResponse {
			Logger.Errorf("Protocol violation: expected JoinResponse, got %s", resp.Type)
			continue
		}

		n.view.SetSelfID(resp.NewID)
		n.setState(StateJoined)
		Logger.Infof("Joined ring as peer %d (ring size %d)", resp.NewID, n.view.RingSize())
		return nil
	}
	return ctx.Err()
}

// admittedRecord builds the peer record for a node the coordinator admits.
func admittedRecord(id int, addr string) common.Peer {
	return common.Peer{
		ID:          id,
		Address:     addr,
		Status:      common.StatusNode,
		LastUpdated: time.Now().Unix(),
	}
}
