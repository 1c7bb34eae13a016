package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport"
)

var Logger = logger.GetLogger("transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IConnector defines the transport-specific dial and listen operations
type IConnector interface {
	// Dial establishes a single connection to the given address
	Dial(addr string, timeout time.Duration) (net.Conn, error)

	// Listen creates a listener bound to the given address
	Listen(addr string) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// halfCloser is satisfied by net.TCPConn and net.UnixConn. Half-closing the
// write side marks the end of the request so the peer can read until EOF.
type halfCloser interface {
	CloseWrite() error
}

// deadlineListener is satisfied by net.TCPListener and net.UnixListener.
type deadlineListener interface {
	SetDeadline(t time.Time) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// netTransport implements the core transport over a connector. Every message
// exchange uses a fresh connection: dial, write, half-close, read the single
// reply until EOF, close. The listener side mirrors this: accept, read until
// EOF, hand the payload to the dispatch loop, write the reply, close.
type netTransport struct {
	connector IConnector
	timeout   time.Duration
	listener  net.Listener
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseTransport creates a transport over the given connector with the
// given per-operation timeout.
func NewBaseTransport(connector IConnector, timeout time.Duration) transport.ITransport {
	return &netTransport{
		connector: connector,
		timeout:   timeout,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.ITransport)
// --------------------------------------------------------------------------

func (t *netTransport) Listen(addr string) error {
	listener, err := t.connector.Listen(addr)
	if err != nil {
		return fmt.Errorf("failed to create %s listener on %s: %v", t.connector.GetName(), addr, err)
	}
	t.listener = listener

	Logger.Infof("Listening on %s (%s)", addr, t.connector.GetName())
	return nil
}

func (t *netTransport) Next() (transport.Delivery, bool) {
	if dl, ok := t.listener.(deadlineListener); ok {
		if err := dl.SetDeadline(time.Now().Add(t.timeout)); err != nil {
			Logger.Errorf("Failed to set accept deadline: %v", err)
			return transport.Delivery{}, false
		}
	}

	conn, err := t.listener.Accept()
	if err != nil {
		if isNetTimeout(err) {
			return transport.Delivery{}, false
		}
		Logger.Errorf("Accept error: %v", err)
		return transport.Delivery{}, false
	}

	if err := conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		conn.Close()
		return transport.Delivery{}, false
	}

	// The sender half-closes after writing, so the request ends at EOF.
	payload, err := io.ReadAll(conn)
	if err != nil {
		Logger.Errorf("Failed to read request: %v", err)
		conn.Close()
		return transport.Delivery{}, false
	}

	reply := func(resp []byte) error {
		defer conn.Close()
		if err := conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
			return err
		}
		if _, err := conn.Write(resp); err != nil {
			return mapTimeout(err)
		}
		return nil
	}

	return transport.Delivery{Payload: payload, Reply: reply}, true
}

func (t *netTransport) Exchange(addr string, payload []byte) ([]byte, error) {
	conn, err := t.connector.Dial(addr, t.timeout)
	if err != nil {
		return nil, mapTimeout(err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(t.timeout)); err != nil {
		return nil, err
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, mapTimeout(err)
	}

	// Half-close the write side so the peer sees the end of the request.
	if hc, ok := conn.(halfCloser); ok {
		if err := hc.CloseWrite(); err != nil {
			return nil, mapTimeout(err)
		}
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return nil, mapTimeout(err)
	}
	return resp, nil
}

func (t *netTransport) Close() error {
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// isNetTimeout reports whether err is a timeout at the net layer.
func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// mapTimeout converts net-layer timeouts to the transport sentinel so
// callers can branch on transport.IsTimeout without knowing the medium.
func mapTimeout(err error) error {
	if isNetTimeout(err) {
		return fmt.Errorf("%w: %v", transport.ErrTimeout, err)
	}
	return err
}
