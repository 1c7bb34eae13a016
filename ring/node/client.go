package node

import (
	"fmt"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/syedmoizurrehman/DistributedKVStore/lib/store"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/codec"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport"
)

var clientLogger = logger.GetLogger("client")

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// Client is the client role: no dispatch loop, no membership view beyond the
// configured coordinator, just blocking request/response round trips.
type Client struct {
	addr        string
	coordinator string
	trans       transport.ITransport
	codec       codec.ICodec
	endpoint    func(addr string) string
	state       State
}

// ClientDeps bundles the collaborators injected into a Client.
type ClientDeps struct {
	Transport transport.ITransport
	Codec     codec.ICodec
	Endpoint  func(addr string) string
}

// NewClient creates a client bound to the configured coordinator.
func NewClient(addr, coordinatorAddr string, deps ClientDeps) *Client {
	endpoint := deps.Endpoint
	if endpoint == nil {
		endpoint = func(a string) string { return a }
	}

	return &Client{
		addr:        addr,
		coordinator: coordinatorAddr,
		trans:       deps.Transport,
		codec:       deps.Codec,
		endpoint:    endpoint,
		// The coordinator entry is all the view a client needs; populating
		// it completes the client's lifecycle.
		state: StateJoined,
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return c.state
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// Read asks the coordinator for a key. The boolean return value reports
// whether the key exists anywhere in the ring.
func (c *Client) Read(key string) (store.Record, bool, error) {
	resp, err := c.roundTrip(common.NewClientReadRequest(key))
	if err != nil {
		return store.Record{}, false, err
	}

	switch resp.Type {
	case common.MsgTClientReadResponse:
		return store.Record{Key: resp.Key, Value: resp.Value, Timestamp: resp.Timestamp}, true, nil
	case common.MsgTFailureIndication:
		clientLogger.Debugf("Read %q: %s", key, resp.FailureReason)
		return store.Record{}, false, nil
	default:
		return store.Record{}, false, fmt.Errorf("unexpected response %s to read", resp.Type)
	}
}

// Write stores a key-value pair through the coordinator.
func (c *Client) Write(key, value string) error {
	resp, err := c.roundTrip(common.NewClientWriteRequest(key, value))
	if err != nil {
		return err
	}

	switch resp.Type {
	case common.MsgTClientWriteResponse:
		return nil
	case common.MsgTFailureIndication:
		return fmt.Errorf("write rejected: %s", resp.FailureReason)
	default:
		return fmt.Errorf("unexpected response %s to write", resp.Type)
	}
}

// Delete removes a key through the coordinator.
func (c *Client) Delete(key string) error {
	resp, err := c.roundTrip(common.NewClientDeleteRequest(key))
	if err != nil {
		return err
	}

	switch resp.Type {
	case common.MsgTDeleteAcknowledgement:
		return nil
	case common.MsgTFailureIndication:
		return fmt.Errorf("delete rejected: %s", resp.FailureReason)
	default:
		return fmt.Errorf("unexpected response %s to delete", resp.Type)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// roundTrip stamps a request, performs the single exchange with the
// coordinator and decodes the matching response.
func (c *Client) roundTrip(msg *common.Message) (*common.Message, error) {
	msg.Source = c.addr
	msg.Destination = c.coordinator
	msg.SourceID = common.ClientID

	data, err := c.codec.Encode(msg)
	if err != nil {
		return nil, err
	}

	raw, err := c.trans.Exchange(c.endpoint(c.coordinator), data)
	if err != nil {
		if transport.IsTimeout(err) {
			return nil, fmt.Errorf("coordinator %s unreachable: %w", c.coordinator, err)
		}
		return nil, err
	}

	var resp common.Message
	if err := c.codec.Decode(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
