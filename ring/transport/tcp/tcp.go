package tcp

import (
	"net"
	"time"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport/base"
)

// connector implements the base.IConnector interface for TCP sockets
type connector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IConnector)
// --------------------------------------------------------------------------

func (c *connector) GetName() string {
	return "tcp"
}

func (c *connector) Dial(addr string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, timeout)
}

func (c *connector) Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// --------------------------------------------------------------------------
// Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPTransport creates a new TCP transport with the given per-operation timeout
func NewTCPTransport(timeout time.Duration) transport.ITransport {
	return base.NewBaseTransport(&connector{}, timeout)
}
