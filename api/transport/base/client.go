package base

import (
	"net"
	"time"

	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// clientTransport implements the client side independent of the transport medium
type clientTransport struct {
	connector IClientConnector
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix)
// -----------------------------------------------------------

// NewBaseClientTransport creates a client transport with the given connector
func NewBaseClientTransport(connector IClientConnector) transport.IClientTransport {
	return &clientTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) GetName() string {
	return t.connector.GetName()
}

func (t *clientTransport) Exchange(endpoint string, timeout time.Duration, fn func(conn net.Conn) error) error {
	conn, err := t.connector.Connect(endpoint, timeout)
	if err != nil {
		return common.NewIOError("failed to connect to "+endpoint, err)
	}
	defer conn.Close()

	Logger.Debugf("Connected to %s using %s transport", endpoint, t.connector.GetName())
	return fn(WithDeadlines(conn, timeout, timeout))
}
