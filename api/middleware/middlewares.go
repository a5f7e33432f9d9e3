package middleware

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/mocker/api/proto"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("middleware")

const (
	CorsName    = "cors"
	LoggerName  = "logger"
	MetricsName = "metrics"
)

// --------------------------------------------------------------------------
// Cors
// --------------------------------------------------------------------------

// Cors allows requests from every origin. Preflight (OPTIONS) requests are
// answered directly with 204.
type Cors struct{}

func NewCors() *Cors {
	return &Cors{}
}

func (c *Cors) Name() string { return CorsName }

func (c *Cors) SupportedMethods() []proto.Method {
	return proto.AllMethods()
}

func (c *Cors) Execute(req *proto.Request, res *proto.Response) error {
	res.SetHeader("Access-Control-Allow-Origin", "*")
	if req.Method() != proto.MethodOptions {
		return nil
	}

	methods := make([]string, 0, len(proto.AllMethods()))
	for _, m := range proto.AllMethods() {
		methods = append(methods, m.String())
	}
	res.SetHeader("Access-Control-Allow-Methods", strings.Join(methods, ", "))
	res.SetHeader("Access-Control-Allow-Headers", "Content-Type, Accept")
	res.SetStatus(proto.StatusNoContent)
	return ErrHandled
}

// --------------------------------------------------------------------------
// Logger
// --------------------------------------------------------------------------

// Logger logs every request with a running number
type Logger struct {
	requests atomic.Uint64
}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Name() string { return LoggerName }

func (l *Logger) SupportedMethods() []proto.Method {
	return proto.AllMethods()
}

func (l *Logger) Execute(req *proto.Request, _ *proto.Response) error {
	n := l.requests.Add(1)
	ct, _ := req.Header(proto.HeaderContentType)
	log.Infof("#%d %s %s %s (%d bytes %s)", n, req.Method(), req.Target(), req.Version(), len(req.Body()), ct)
	return nil
}

// Requests returns the number of requests logged so far
func (l *Logger) Requests() uint64 {
	return l.requests.Load()
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// Metrics counts requests and body sizes per method. Paths are not used as
// labels, every distinct path would create a new series.
type Metrics struct {
	set  *vm.Set
	last atomic.Int64 // unix nano of the last request
}

func NewMetrics(set *vm.Set) *Metrics {
	m := &Metrics{set: set}
	set.GetOrCreateGauge("mocker_last_request_age_seconds", func() float64 {
		last := m.last.Load()
		if last == 0 {
			return 0
		}
		return time.Since(time.Unix(0, last)).Seconds()
	})
	return m
}

func (m *Metrics) Name() string { return MetricsName }

func (m *Metrics) SupportedMethods() []proto.Method {
	return proto.AllMethods()
}

func (m *Metrics) Execute(req *proto.Request, _ *proto.Response) error {
	m.last.Store(time.Now().UnixNano())
	m.set.GetOrCreateCounter(fmt.Sprintf(`mocker_requests_total{method=%q}`, req.Method())).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`mocker_request_body_bytes{method=%q}`, req.Method())).Update(float64(len(req.Body())))
	return nil
}
