package base

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the accept loop independent of the transport
// medium (unix, tcp)
type serverTransport struct {
	connector IServerConnector
	handler   transport.ConnHandler
	config    common.ServerConfig
	listener  net.Listener

	// sem bounds the number of concurrent connections, nil if unbounded
	sem chan struct{}
	wg  sync.WaitGroup

	active   atomic.Int64
	accepted *vm.Counter
	panics   *vm.Counter
	duration *vm.Histogram
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix)
// -----------------------------------------------------------

// NewBaseServerTransport creates a server transport with the given connector.
// Connection metrics are recorded into set.
func NewBaseServerTransport(connector IServerConnector, set *vm.Set) transport.IServerTransport {
	if set == nil {
		set = vm.NewSet()
	}
	t := &serverTransport{
		connector: connector,
		accepted:  set.GetOrCreateCounter(fmt.Sprintf(`mocker_connections_total{transport=%q}`, connector.GetName())),
		panics:    set.GetOrCreateCounter(fmt.Sprintf(`mocker_connection_panics_total{transport=%q}`, connector.GetName())),
		duration:  set.GetOrCreateHistogram(fmt.Sprintf(`mocker_connection_duration_seconds{transport=%q}`, connector.GetName())),
	}
	set.GetOrCreateGauge(fmt.Sprintf(`mocker_connections_active{transport=%q}`, connector.GetName()), func() float64 {
		return float64(t.active.Load())
	})
	return t
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ConnHandler) {
	t.handler = handler
}

func (t *serverTransport) Bind(config common.ServerConfig) (net.Addr, error) {
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return nil, common.NewIOError("failed to create listener", err)
	}
	t.listener = listener

	if config.MaxConnections > 0 {
		t.sem = make(chan struct{}, config.MaxConnections)
	}
	return listener.Addr(), nil
}

func (t *serverTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	if _, err := t.Bind(config); err != nil {
		return err
	}
	return t.Serve(ctx)
}

func (t *serverTransport) Serve(ctx context.Context) error {
	if t.listener == nil {
		return fmt.Errorf("serve called before bind")
	}
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	limit := "unbounded"
	if t.sem != nil {
		limit = fmt.Sprintf("at most %d", cap(t.sem))
	}
	Logger.Infof("Starting %s server on %s (%s connections)", t.connector.GetName(), t.listener.Addr(), limit)

	// Close the listener on shutdown, this unblocks Accept
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		_ = t.listener.Close()
	}()

	for {
		// Acquire a slot before accepting, connections beyond the limit wait in the backlog
		if t.sem != nil {
			select {
			case t.sem <- struct{}{}:
			case <-ctx.Done():
				return t.shutdown()
			}
		}

		conn, err := t.listener.Accept()
		if err != nil {
			t.release()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return t.shutdown()
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		t.wg.Add(1)
		go t.handleConnection(conn)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) release() {
	if t.sem != nil {
		<-t.sem
	}
}

// shutdown waits for all running connections
func (t *serverTransport) shutdown() error {
	Logger.Infof("Stopping %s server, waiting for %d connections", t.connector.GetName(), t.active.Load())
	t.wg.Wait()
	Logger.Infof("%s server stopped", t.connector.GetName())
	return nil
}

// handleConnection runs the handler for one connection and closes it afterwards
func (t *serverTransport) handleConnection(conn net.Conn) {
	start := time.Now()
	t.accepted.Inc()
	t.active.Add(1)

	defer func() {
		if r := recover(); r != nil {
			t.panics.Inc()
			Logger.Errorf("Panic while handling connection from %s: %v\n%s", conn.RemoteAddr(), r, debug.Stack())
		}
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			Logger.Debugf("Failed to close connection: %v", err)
		}
		t.duration.UpdateDuration(start)
		t.active.Add(-1)
		t.release()
		t.wg.Done()
	}()

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		return
	}

	Logger.Debugf("Connection accepted from '%s'", conn.RemoteAddr())
	t.handler(WithDeadlines(conn, t.config.ReadTimeout(), t.config.WriteTimeout()))
}
