package router

import (
	"fmt"
	"sort"
	"strings"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/proto"
	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/lockmgr"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var log = logger.GetLogger("router")

// Handler answers the requests of one route. It fills res and returns an
// error if the request cannot be answered, the caller converts that error
// into the response.
type Handler interface {
	Handle(req *proto.Request, res *proto.Response) error
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(req *proto.Request, res *proto.Response) error

func (f HandlerFunc) Handle(req *proto.Request, res *proto.Response) error {
	return f(req, res)
}

// Describer is implemented by handlers that describe themselves in the route
// banner
type Describer interface {
	Describe() string
}

// RouteInfo describes one registered (endpoint, method) pair
type RouteInfo struct {
	Endpoint    string
	Method      proto.Method
	Description string
}

// Router maps endpoints and methods to handlers. It is built once and only
// read afterwards, so Dispatch may be called concurrently.
type Router struct {
	routes map[string]map[proto.Method]Handler
}

// New creates an empty router
func New() *Router {
	return &Router{routes: make(map[string]map[proto.Method]Handler)}
}

// Set registers h for every method at endpoint, replacing earlier handlers
func (r *Router) Set(methods []proto.Method, endpoint string, h Handler) {
	byMethod, ok := r.routes[endpoint]
	if !ok {
		byMethod = make(map[proto.Method]Handler)
		r.routes[endpoint] = byMethod
	}
	for _, m := range methods {
		byMethod[m] = h
	}
}

// Lookup returns the handler for the exact endpoint and method
func (r *Router) Lookup(endpoint string, m proto.Method) (Handler, bool) {
	h, ok := r.routes[endpoint][m]
	return h, ok
}

// Dispatch passes the request to the handler registered for its path and
// method. Requests without handler are answered with 404 and no body.
func (r *Router) Dispatch(req *proto.Request, res *proto.Response) error {
	h, ok := r.Lookup(req.Path(), req.Method())
	if !ok {
		log.Debugf("no route for %s %s", req.Method(), req.Path())
		res.SetStatus(proto.StatusNotFound)
		return nil
	}
	return h.Handle(req, res)
}

// Routes lists all registered routes sorted by endpoint and method
func (r *Router) Routes() []RouteInfo {
	var infos []RouteInfo
	for endpoint, byMethod := range r.routes {
		for m, h := range byMethod {
			info := RouteInfo{Endpoint: endpoint, Method: m, Description: fmt.Sprintf("%T", h)}
			if d, ok := h.(Describer); ok {
				info.Description = d.Describe()
			}
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Endpoint != infos[j].Endpoint {
			return infos[i].Endpoint < infos[j].Endpoint
		}
		return infos[i].Method < infos[j].Method
	})
	return infos
}

// --------------------------------------------------------------------------
// Building from configuration
// --------------------------------------------------------------------------

// Options are the shared dependencies of the handlers built by FromRoutes.
// Zero values are replaced with defaults.
type Options struct {
	// BaseDir is the directory relative store paths are resolved against
	BaseDir string
	// Formats are the formats accepted in request bodies
	Formats []format.IFormat
	// DefaultFormat is used for responses if content negotiation finds nothing
	DefaultFormat format.IFormat
	// Locks serializes access to the store files
	Locks lockmgr.ILockManager
	// Metrics is exposed by metrics routes
	Metrics *vm.Set
	// Timers collects load and save timings of the stores
	Timers gometrics.Registry
}

func (o *Options) defaults() {
	if len(o.Formats) == 0 {
		o.Formats = format.Payload()
	}
	if o.DefaultFormat == nil {
		o.DefaultFormat = format.NewJSONFormat()
	}
	if o.Locks == nil {
		o.Locks = lockmgr.NewLockManager()
	}
	if o.Metrics == nil {
		o.Metrics = vm.NewSet()
	}
	if o.Timers == nil {
		o.Timers = gometrics.NewRegistry()
	}
}

// FromRoutes builds a router from route configurations. Routes are registered
// in order, so later routes replace earlier ones for the same endpoint and
// method.
func FromRoutes(routes []common.RouteConfig, opts Options) (*Router, error) {
	opts.defaults()
	r := New()

	for _, route := range routes {
		methods, err := proto.ParseMethods(route.Methods)
		if err != nil {
			return nil, fmt.Errorf("route '%s': %w", route.Endpoint, err)
		}

		var h Handler
		switch strings.ToLower(route.Kind.Type) {
		case common.RouteKindStore:
			h, err = NewStoreHandler(route, opts)
		case common.RouteKindScript:
			h = NewScriptHandler(route.Kind.Script, route.Kind.Func)
		case common.RouteKindMetrics:
			h = NewMetricsHandler(opts.Metrics)
		default:
			err = fmt.Errorf("unknown route kind '%s'", route.Kind.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("route '%s': %w", route.Endpoint, err)
		}

		r.Set(methods, route.Endpoint, h)
		log.Debugf("registered %v %s (%s)", route.Methods, route.Endpoint, route.Kind.Type)
	}
	return r, nil
}
