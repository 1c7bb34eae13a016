package node

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/syedmoizurrehman/DistributedKVStore/lib/store"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/codec"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/membership"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport"
)

var Logger = logger.GetLogger("node")

// --------------------------------------------------------------------------
// Node State
// --------------------------------------------------------------------------

// State is the lifecycle state of a peer.
type State uint8

const (
	// StateStarting is the initial state of every role.
	StateStarting State = iota
	// StateJoined is reached when the peer is a working member of the ring:
	// immediately for the coordinator, after the JoinResponse for a node.
	StateJoined
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Dependencies
// --------------------------------------------------------------------------

// Deps bundles the collaborators injected into a Node. Records is required
// for data-bearing nodes, Lookup only for the coordinator. Endpoint maps a
// peer address from the membership view to a dial target for the transport;
// when nil, addresses are dialed as-is.
type Deps struct {
	Transport transport.ITransport
	Codec     codec.ICodec
	Records   store.IRecordStore
	Lookup    store.ILookupStore
	Endpoint  func(addr string) string
}

// --------------------------------------------------------------------------
// Node
// --------------------------------------------------------------------------

// Node is one peer of the ring. The role fixed at construction governs which
// messages it accepts and how it responds; a single dispatch loop owns the
// membership view and the store handles, so handlers never race each other.
type Node struct {
	cfg      *common.Config
	role     common.PeerStatus
	addr     string
	state    atomic.Uint32
	view     *membership.View
	trans    transport.ITransport
	codec    codec.ICodec
	records  store.IRecordStore
	lookup   store.ILookupStore
	endpoint func(addr string) string
}

// New creates a peer with the given role and own address.
func New(cfg *common.Config, role common.PeerStatus, addr string, deps Deps) *Node {
	self := common.Peer{
		Address:     addr,
		Status:      role,
		LastUpdated: time.Now().Unix(),
	}
	switch role {
	case common.StatusCoordinator:
		self.ID = common.CoordinatorID
	default:
		// Data nodes hold the client placeholder id until the coordinator
		// assigns their real one in the JoinResponse.
		self.ID = common.ClientID
	}

	endpoint := deps.Endpoint
	if endpoint == nil {
		endpoint = func(a string) string { return a }
	}

	return &Node{
		cfg:      cfg,
		role:     role,
		addr:     addr,
		view:     membership.NewView(self),
		trans:    deps.Transport,
		codec:    deps.Codec,
		records:  deps.Records,
		lookup:   deps.Lookup,
		endpoint: endpoint,
	}
}

// View exposes the membership view (tests and CLI status output).
func (n *Node) View() *membership.View {
	return n.view
}

// State returns the current lifecycle state. Safe to call from outside the
// dispatch goroutine.
func (n *Node) State() State {
	return State(n.state.Load())
}

func (n *Node) setState(s State) {
	n.state.Store(uint32(s))
}

// --------------------------------------------------------------------------
// Dispatch Loop
// --------------------------------------------------------------------------

// Run executes the dispatch loop until the context is cancelled. Nodes first
// join the configured coordinator; the coordinator is a ring member from the
// start.
func (n *Node) Run(ctx context.Context) error {
	switch n.role {
	case common.StatusCoordinator:
		n.setState(StateJoined)
		Logger.Infof("Coordinator %s up, state %s", n.addr, n.State())
	case common.StatusNode:
		if err := n.join(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("role %s does not run a dispatch loop", n.role)
	}

	for ctx.Err() == nil {
		delivery, ok := n.trans.Next()
		if !ok {
			// Timed-out listen: no message this tick.
			continue
		}
		n.handle(delivery)
	}
	return ctx.Err()
}

// handle decodes one inbound message, merges its piggybacked view and
// dispatches it to the role's handler.
func (n *Node) handle(d transport.Delivery) {
	var msg common.Message
	if err := n.codec.Decode(d.Payload, &msg); err != nil {
		metricMalformed.Inc()
		Logger.Errorf("Dropping malformed message: %v", err)
		// Release the connection so the sender is not left to time out.
		_ = d.Reply(nil)
		return
	}

	metricReceived(msg.Type)
	n.absorb(&msg)

	var resp *common.Message
	var after func()

	switch n.role {
	case common.StatusCoordinator:
		resp, after = n.dispatchCoordinator(&msg)
	case common.StatusNode:
		resp, after = n.dispatchNode(&msg)
	}

	if resp != nil {
		n.reply(d, &msg, resp)
	} else if err := d.Reply(nil); err != nil && !transport.IsTimeout(err) {
		Logger.Warningf("Failed to release connection to %s: %v", msg.Source, err)
	}

	if after != nil {
		after()
	}
}

// absorb merges the piggybacked network of an inbound message and refreshes
// the sender's record.
func (n *Node) absorb(msg *common.Message) {
	if msg.HasNetwork() {
		if changed := n.view.MergeAll(msg.Network); changed > 0 {
			Logger.Debugf("Merged %d peer updates from %s", changed, msg.Source)
		}
	}
	if msg.SourceID != common.ClientID {
		n.view.Touch(msg.SourceID)
	}
}

// isClientOp reports whether a request type originates from the client role.
func isClientOp(t common.MessageType) bool {
	switch t {
	case common.MsgTClientReadRequest, common.MsgTClientWriteRequest, common.MsgTClientDeleteRequest:
		return true
	default:
		return false
	}
}

// reply stamps and sends a response on the delivery's connection. Responses
// to client operations never carry network blocks; clients hold no view
// worth feeding. A JoinResponse does carry one even though the joiner has no
// id yet: the snapshot is how the newcomer learns the ring.
func (n *Node) reply(d transport.Delivery, req *common.Message, resp *common.Message) {
	resp.Source = n.addr
	resp.Destination = req.Source
	resp.SourceID = n.view.SelfID()
	if !isClientOp(req.Type) {
		resp.Network = n.view.Snapshot(req.Source)
	}

	data, err := n.codec.Encode(resp)
	if err != nil {
		Logger.Errorf("Failed to encode %s response: %v", resp.Type, err)
		return
	}
	if err := d.Reply(data); err != nil {
		if transport.IsTimeout(err) {
			Logger.Warningf("Requester %s gave up before the %s response", req.Source, resp.Type)
		} else {
			Logger.Errorf("Failed to send %s response to %s: %v", resp.Type, req.Source, err)
		}
		return
	}
	metricSent(resp.Type)
}

// --------------------------------------------------------------------------
// Outbound Exchanges
// --------------------------------------------------------------------------

// exchangePeer sends one stamped message to a peer and returns the decoded
// reply. A timeout marks the peer down and yields the Empty sentinel; any
// successful exchange clears the down flag and merges the piggybacked view.
func (n *Node) exchangePeer(peer common.Peer, msg *common.Message) (*common.Message, error) {
	msg.Source = n.addr
	msg.Destination = peer.Address
	msg.SourceID = n.view.SelfID()
	msg.Network = n.view.Snapshot(peer.Address)

	data, err := n.codec.Encode(msg)
	if err != nil {
		return nil, err
	}

	metricSent(msg.Type)
	raw, err := n.trans.Exchange(n.endpoint(peer.Address), data)
	if err != nil {
		if transport.IsTimeout(err) {
			metricTimeouts.Inc()
			Logger.Warningf("%s to %s timed out, marking down", msg.Type, peer)
			n.view.MarkDown(peer.ID)
			return common.NewEmpty(), nil
		}
		return nil, err
	}

	n.view.MarkUp(peer.ID)

	// An empty payload is a deliberate no-response (gossip, pings).
	if len(raw) == 0 {
		return common.NewEmpty(), nil
	}

	var resp common.Message
	if err := n.codec.Decode(raw, &resp); err != nil {
		metricMalformed.Inc()
		return nil, err
	}
	metricReceived(resp.Type)
	n.absorb(&resp)
	return &resp, nil
}
