package unix

import (
	"net"
	"time"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport/base"
)

// connector implements the base.IConnector interface for Unix domain sockets.
// Useful for single-host rings and local development; addresses are socket
// file paths instead of host:port endpoints.
type connector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IConnector)
// --------------------------------------------------------------------------

func (c *connector) GetName() string {
	return "unix"
}

func (c *connector) Dial(addr string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", addr, timeout)
}

func (c *connector) Listen(addr string) (net.Listener, error) {
	return net.Listen("unix", addr)
}

// --------------------------------------------------------------------------
// Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixTransport creates a new Unix socket transport with the given per-operation timeout
func NewUnixTransport(timeout time.Duration) transport.ITransport {
	return base.NewBaseTransport(&connector{}, timeout)
}
