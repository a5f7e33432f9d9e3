package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/mocker/api/proto"
)

// recorder appends its name to a shared log
type recorder struct {
	name    string
	methods []proto.Method
	calls   *[]string
	err     error
}

func (r *recorder) Name() string                     { return r.name }
func (r *recorder) SupportedMethods() []proto.Method { return r.methods }
func (r *recorder) Execute(_ *proto.Request, res *proto.Response) error {
	*r.calls = append(*r.calls, r.name)
	res.SetHeader("X-Last", r.name)
	return r.err
}

func newReq(m proto.Method) *proto.Request {
	return proto.NewRequest(m, "/users?id=1", proto.Version11)
}

// TestChainOrder tests that middlewares run in order and respect methods and errors
func TestChainOrder(t *testing.T) {
	all := proto.AllMethods()
	boom := errors.New("boom")

	tests := []struct {
		name    string
		build   func(calls *[]string) *Chain
		method  proto.Method
		calls   []string
		handled bool
		err     error
	}{
		{
			name: "in order",
			build: func(calls *[]string) *Chain {
				c := &Chain{}
				c.Add(&recorder{name: "a", methods: all, calls: calls})
				c.Add(&recorder{name: "b", methods: all, calls: calls})
				c.Add(&recorder{name: "c", methods: all, calls: calls})
				return c
			},
			method: proto.MethodGet,
			calls:  []string{"a", "b", "c"},
		},
		{
			name: "unsupported method skipped",
			build: func(calls *[]string) *Chain {
				c := &Chain{}
				c.Add(&recorder{name: "a", methods: []proto.Method{proto.MethodPost}, calls: calls})
				c.Add(&recorder{name: "b", methods: all, calls: calls})
				return c
			},
			method: proto.MethodGet,
			calls:  []string{"b"},
		},
		{
			name: "error stops",
			build: func(calls *[]string) *Chain {
				c := &Chain{}
				c.Add(&recorder{name: "a", methods: all, calls: calls, err: boom})
				c.Add(&recorder{name: "b", methods: all, calls: calls})
				return c
			},
			method: proto.MethodGet,
			calls:  []string{"a"},
			err:    boom,
		},
		{
			name: "handled stops",
			build: func(calls *[]string) *Chain {
				c := &Chain{}
				c.Add(&recorder{name: "a", methods: all, calls: calls})
				c.Add(&recorder{name: "b", methods: all, calls: calls, err: ErrHandled})
				c.Add(&recorder{name: "c", methods: all, calls: calls})
				return c
			},
			method:  proto.MethodPost,
			calls:   []string{"a", "b"},
			handled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			c := tt.build(&calls)
			res := proto.NewResponse()
			handled, err := c.Run(newReq(tt.method), res)

			if handled != tt.handled || !errors.Is(err, tt.err) {
				t.Errorf("Run() = %v, %v, want %v, %v", handled, err, tt.handled, tt.err)
			}
			if strings.Join(calls, ",") != strings.Join(tt.calls, ",") {
				t.Errorf("Calls = %v, want %v", calls, tt.calls)
			}
		})
	}
}

// TestRegistry tests creating middlewares by name
func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(vm.NewSet())

	if got := strings.Join(r.Names(), ","); got != "cors,logger,metrics" {
		t.Errorf("Names() = %s", got)
	}

	c, err := r.Chain([]string{"Cors", "LOGGER", "metrics"})
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	if got := strings.Join(c.Names(), ","); got != "cors,logger,metrics" {
		t.Errorf("Chain names = %s", got)
	}

	if _, err := r.Create("auth"); err == nil || !strings.Contains(err.Error(), "unknown middleware 'auth'") {
		t.Errorf("Expected unknown middleware error, got %v", err)
	}

	// instances are not shared
	a, _ := r.Create("logger")
	b, _ := r.Create("logger")
	if a == b {
		t.Error("Expected a new instance per Create")
	}

	r.Register("Logger", func() (Middleware, error) { return NewCors(), nil })
	if mw, _ := r.Create("logger"); mw.Name() != CorsName {
		t.Error("Expected Register to replace the factory")
	}
}

// TestCors tests the cors middleware
func TestCors(t *testing.T) {
	c := &Chain{}
	c.Add(NewCors())

	res := proto.NewResponse()
	handled, err := c.Run(newReq(proto.MethodGet), res)
	if handled || err != nil {
		t.Fatalf("Run() = %v, %v", handled, err)
	}
	if v, _ := res.Header("access-control-allow-origin"); v != "*" {
		t.Errorf("Allow-Origin = %q", v)
	}

	res = proto.NewResponse()
	handled, err = c.Run(newReq(proto.MethodOptions), res)
	if !handled || err != nil {
		t.Fatalf("Preflight Run() = %v, %v", handled, err)
	}
	if res.Status() != proto.StatusNoContent {
		t.Errorf("Preflight status = %d", res.Status())
	}
	if v, _ := res.Header("Access-Control-Allow-Methods"); !strings.Contains(v, "POST") {
		t.Errorf("Allow-Methods = %q", v)
	}
}

// TestConcurrentExecute tests that one instance never runs concurrently
func TestConcurrentExecute(t *testing.T) {
	l := NewLogger()
	c := &Chain{}
	c.Add(l)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Run(newReq(proto.MethodGet), proto.NewResponse())
		}()
		// read the counter outside the chain while requests run (go test -race)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := l.Requests(); got > n {
				t.Errorf("Requests() = %d while running", got)
			}
		}()
	}
	wg.Wait()

	if l.Requests() != n {
		t.Errorf("Requests() = %d, want %d", l.Requests(), n)
	}
}

// TestMetrics tests the request counters
func TestMetrics(t *testing.T) {
	set := vm.NewSet()
	c := &Chain{}
	c.Add(NewMetrics(set))

	for i := 0; i < 3; i++ {
		_, _ = c.Run(newReq(proto.MethodGet), proto.NewResponse())
	}
	_, _ = c.Run(newReq(proto.MethodPost), proto.NewResponse())

	var buf bytes.Buffer
	set.WritePrometheus(&buf)
	out := buf.String()
	for _, want := range []string{
		`mocker_requests_total{method="GET"} 3`,
		`mocker_requests_total{method="POST"} 1`,
		"mocker_last_request_age_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Metrics do not contain %q:\n%s", want, out)
		}
	}

	// distinct paths must not create new series
	series := func() int {
		var buf bytes.Buffer
		set.WritePrometheus(&buf)
		return strings.Count(buf.String(), "\n")
	}
	before := series()
	for i := 0; i < 100; i++ {
		req := proto.NewRequest(proto.MethodGet, fmt.Sprintf("/scan/%d", i), proto.Version11)
		_, _ = c.Run(req, proto.NewResponse())
	}
	if after := series(); after != before {
		t.Errorf("Expected %d series after scanning paths, got %d", before, after)
	}
}
