package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport"
)

// --------------------------------------------------------------------------
// Network Registry
// --------------------------------------------------------------------------

// Network is the shared registry connecting in-process transports. Every
// "address" maps to the inbox channel of one transport; exchanges between
// peers of the same Network are plain channel operations.
//
// Only works within a single process; used by tests and demos.
type Network struct {
	mu          sync.RWMutex
	inboxes     map[string]chan request
	partitioned map[string]bool
}

// request is one in-flight exchange: the payload and the channel the single
// reply is delivered on.
type request struct {
	payload []byte
	respCh  chan []byte
}

// NewNetwork creates an empty in-process network.
func NewNetwork() *Network {
	return &Network{
		inboxes:     make(map[string]chan request),
		partitioned: make(map[string]bool),
	}
}

// NewTransport creates a transport attached to this network. It carries no
// address until Listen is called.
func (n *Network) NewTransport(timeout time.Duration) transport.ITransport {
	return &memTransport{net: n, timeout: timeout}
}

// Partition cuts an address off from the network. Exchanges towards it time
// out, simulating a killed or unreachable peer.
func (n *Network) Partition(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.partitioned[addr] = true
}

// Heal reconnects a previously partitioned address.
func (n *Network) Heal(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.partitioned, addr)
}

// lookup returns the inbox for addr, or nil if unknown or partitioned.
func (n *Network) lookup(addr string) chan request {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.partitioned[addr] {
		return nil
	}
	return n.inboxes[addr]
}

func (n *Network) register(addr string, inbox chan request) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.inboxes[addr]; exists {
		return fmt.Errorf("address %s already registered", addr)
	}
	n.inboxes[addr] = inbox
	return nil
}

func (n *Network) unregister(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.inboxes, addr)
}

// --------------------------------------------------------------------------
// Transport Implementation
// --------------------------------------------------------------------------

// memTransport implements transport.ITransport over the shared registry.
type memTransport struct {
	net     *Network
	timeout time.Duration
	addr    string
	inbox   chan request
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.ITransport)
// --------------------------------------------------------------------------

func (t *memTransport) Listen(addr string) error {
	inbox := make(chan request, 64)
	if err := t.net.register(addr, inbox); err != nil {
		return err
	}
	t.addr = addr
	t.inbox = inbox
	return nil
}

func (t *memTransport) Next() (transport.Delivery, bool) {
	select {
	case req := <-t.inbox:
		reply := func(resp []byte) error {
			select {
			case req.respCh <- resp:
				return nil
			default:
				// Sender already gave up.
				return transport.ErrTimeout
			}
		}
		return transport.Delivery{Payload: req.payload, Reply: reply}, true
	case <-time.After(t.timeout):
		return transport.Delivery{}, false
	}
}

func (t *memTransport) Exchange(addr string, payload []byte) ([]byte, error) {
	inbox := t.net.lookup(addr)
	if inbox == nil {
		// Unknown or partitioned peer behaves like an unresponsive host.
		time.Sleep(t.timeout)
		return nil, transport.ErrTimeout
	}

	req := request{payload: payload, respCh: make(chan []byte, 1)}

	select {
	case inbox <- req:
	case <-time.After(t.timeout):
		return nil, transport.ErrTimeout
	}

	select {
	case resp := <-req.respCh:
		return resp, nil
	case <-time.After(t.timeout):
		return nil, transport.ErrTimeout
	}
}

func (t *memTransport) Close() error {
	if t.addr != "" {
		t.net.unregister(t.addr)
	}
	return nil
}
