package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/middleware"
	"github.com/ValentinKolb/mocker/api/proto"
	"github.com/ValentinKolb/mocker/api/router"
	"github.com/ValentinKolb/mocker/api/transport"
	"github.com/ValentinKolb/mocker/api/transport/tcp"
	"github.com/ValentinKolb/mocker/api/transport/unix"
	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/lockmgr"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("server")

// Server answers one request per connection: read the request, run the
// middleware chain, dispatch through the router, write the response and
// close the connection.
type Server struct {
	config    common.ServerConfig
	transport transport.IServerTransport
	router    *router.Router
	chain     *middleware.Chain
	formats   []format.IFormat

	metrics  *vm.Set
	timers   gometrics.Registry
	duration gometrics.Timer
}

// NewServer creates a server for config. The configured middlewares are
// created from registry, nil means middleware.NewDefaultRegistry. Metrics of
// all layers are recorded into set, nil creates a new set.
//
// Usage:
//
//	s, err := server.NewServer(ws.Config, nil, nil)
//	if err != nil {
//		return err
//	}
//	return s.ListenAndServe(ctx)
func NewServer(config common.ServerConfig, registry *middleware.Registry, set *vm.Set) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, common.NewParseError("invalid configuration", err)
	}
	if set == nil {
		set = vm.NewSet()
	}
	if registry == nil {
		registry = middleware.NewDefaultRegistry(set)
	}

	defaultFormat, err := format.ByName(config.Format)
	if err != nil {
		return nil, common.NewParseError("invalid payload format", err)
	}

	timers := gometrics.NewRegistry()
	r, err := router.FromRoutes(config.Routes, router.Options{
		BaseDir:       config.BaseDir,
		Formats:       format.Payload(),
		DefaultFormat: defaultFormat,
		Locks:         lockmgr.NewLockManager(),
		Metrics:       set,
		Timers:        timers,
	})
	if err != nil {
		return nil, common.Classify(err)
	}

	chain, err := registry.Chain(config.Middlewares)
	if err != nil {
		return nil, common.NewParseError("invalid middlewares", err)
	}

	var t transport.IServerTransport
	switch config.Transport {
	case common.TransportUnix:
		t = unix.NewUnixServerTransport(set)
	default:
		t = tcp.NewTCPServerTransport(set)
	}

	s := &Server{
		config:    config,
		transport: t,
		router:    r,
		chain:     chain,
		formats:   format.Payload(),
		metrics:   set,
		timers:    timers,
		duration:  gometrics.GetOrRegisterTimer("server.requests", timers),
	}
	t.RegisterHandler(s.handleConnection)

	Logger.Infof("Created server with %d routes and %d middlewares", len(r.Routes()), chain.Len())
	return s, nil
}

// Router returns the router of the server
func (s *Server) Router() *router.Router {
	return s.router
}

// Metrics returns the metrics set all layers record into
func (s *Server) Metrics() *vm.Set {
	return s.metrics
}

// Timers returns the in-process timers (requests, store loads and saves)
func (s *Server) Timers() gometrics.Registry {
	return s.timers
}

// Middlewares returns the names of the middlewares in chain order
func (s *Server) Middlewares() []string {
	return s.chain.Names()
}

// Bind creates the listener and returns its address
func (s *Server) Bind() (net.Addr, error) {
	return s.transport.Bind(s.config)
}

// Serve accepts connections until ctx is done and waits for running
// connections before it returns. Bind must be called first.
func (s *Server) Serve(ctx context.Context) error {
	return s.transport.Serve(ctx)
}

// ListenAndServe is Bind followed by Serve
func (s *Server) ListenAndServe(ctx context.Context) error {
	if _, err := s.Bind(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// --------------------------------------------------------------------------
// Request handling
// --------------------------------------------------------------------------

// Handle answers a single request. Errors of the middlewares and handlers are
// converted into the response.
func (s *Server) Handle(req *proto.Request) *proto.Response {
	s.metrics.GetOrCreateCounter(fmt.Sprintf(`mocker_route_requests_total{method=%q,endpoint=%q}`, req.Method(), s.routeLabel(req))).Inc()

	res := proto.NewResponse()
	if err := s.process(req, res); err != nil {
		if e := common.Classify(err); e.Kind != common.KindAPI {
			Logger.Errorf("%s %s failed: %v", req.Method(), req.Target(), err)
		}
		res.ApplyError(err)
	}
	return res
}

// routeLabel returns the registered endpoint of req, or "unmatched" so that
// unknown paths share one series
func (s *Server) routeLabel(req *proto.Request) string {
	if _, ok := s.router.Lookup(req.Path(), req.Method()); ok {
		return req.Path()
	}
	return "unmatched"
}

func (s *Server) process(req *proto.Request, res *proto.Response) error {
	handled, err := s.chain.Run(req, res)
	if err != nil || handled {
		return err
	}
	return s.router.Dispatch(req, res)
}

// handleConnection reads one request from conn and writes the response
func (s *Server) handleConnection(conn net.Conn) {
	start := time.Now()

	var res *proto.Response
	var target string
	req, err := proto.ReadRequest(conn, s.config.Framing, s.config.MaxMessageBytes)
	switch {
	case errors.Is(err, io.EOF):
		Logger.Debugf("Connection from '%s' closed without request", conn.RemoteAddr())
		return
	case err != nil:
		Logger.Warningf("Invalid request from '%s': %v", conn.RemoteAddr(), err)
		res = proto.NewResponse()
		res.ApplyError(err)
		target = "-"
	default:
		res = s.Handle(req)
		target = req.Method().String() + " " + req.Target()
	}

	if err := proto.WriteMessage(conn, res.Buffer, s.config.Framing); err != nil {
		Logger.Warningf("Failed to write response to '%s': %v", conn.RemoteAddr(), err)
	}

	s.duration.UpdateSince(start)
	s.metrics.GetOrCreateCounter(fmt.Sprintf(`mocker_responses_total{status=%q}`, strconv.Itoa(res.Status()))).Inc()
	s.metrics.GetOrCreateHistogram(`mocker_request_duration_seconds`).UpdateDuration(start)
	Logger.Infof("%s -> %d %s (%s)", target, res.Status(), res.Reason(), time.Since(start))
}
