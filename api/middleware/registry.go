package middleware

import (
	"fmt"
	"sort"
	"strings"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry maps middleware names to factories. Names are matched
// case-insensitively.
type Registry struct {
	factories *xsync.MapOf[string, Factory]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: xsync.NewMapOf[string, Factory]()}
}

// NewDefaultRegistry creates a registry with the built-in middlewares
// (cors, logger, metrics). The metrics middleware records into set.
func NewDefaultRegistry(set *vm.Set) *Registry {
	r := NewRegistry()
	r.Register(CorsName, func() (Middleware, error) { return NewCors(), nil })
	r.Register(LoggerName, func() (Middleware, error) { return NewLogger(), nil })
	r.Register(MetricsName, func() (Middleware, error) { return NewMetrics(set), nil })
	return r
}

// Register adds a factory, replacing one registered under the same name
func (r *Registry) Register(name string, f Factory) {
	r.factories.Store(strings.ToLower(name), f)
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	var names []string
	r.factories.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Create creates a new instance of the named middleware
func (r *Registry) Create(name string) (Middleware, error) {
	f, ok := r.factories.Load(strings.ToLower(name))
	if !ok {
		return nil, fmt.Errorf("unknown middleware '%s' (expected one of: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f()
}

// Chain creates one instance of every named middleware, in order
func (r *Registry) Chain(names []string) (*Chain, error) {
	c := &Chain{}
	for _, name := range names {
		mw, err := r.Create(name)
		if err != nil {
			return nil, err
		}
		c.Add(mw)
	}
	return c, nil
}
