package transport

import (
	"context"
	"net"
	"time"

	"github.com/ValentinKolb/mocker/api/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ConnHandler handles one accepted connection. The transport closes the
// connection after the handler returns.
type ConnHandler func(conn net.Conn)

// IServerTransport accepts connections and runs the registered handler for
// each of them in its own goroutine
type IServerTransport interface {
	// RegisterHandler registers the handler for accepted connections
	// Must be called before Serve
	RegisterHandler(handler ConnHandler)
	// Bind creates the listener and returns its address
	Bind(config common.ServerConfig) (net.Addr, error)
	// Serve accepts connections until ctx is done, then closes the listener
	// and waits for the running handlers
	Serve(ctx context.Context) error
	// Listen is Bind followed by Serve
	Listen(ctx context.Context, config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientTransport opens one connection per exchange
type IClientTransport interface {
	// Exchange connects to endpoint, calls fn with the connection and closes it.
	// timeout bounds every read and write, zero means no limit.
	Exchange(endpoint string, timeout time.Duration, fn func(conn net.Conn) error) error
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}
