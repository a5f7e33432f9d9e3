package middleware

import (
	"errors"
	"slices"
	"sync"

	"github.com/ValentinKolb/mocker/api/proto"
)

type lockedMiddleware struct {
	mu sync.Mutex
	mw Middleware
}

func (e *lockedMiddleware) execute(req *proto.Request, res *proto.Response) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mw.Execute(req, res)
}

// Chain runs middlewares in the order they were added. Each middleware runs
// under its own mutex, different middlewares run concurrently.
type Chain struct {
	entries []*lockedMiddleware
}

// Add appends mw to the chain. Add must not be called once the chain is in use.
func (c *Chain) Add(mw Middleware) {
	c.entries = append(c.entries, &lockedMiddleware{mw: mw})
}

// Names returns the names of the middlewares in order
func (c *Chain) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.mw.Name()
	}
	return names
}

func (c *Chain) Len() int {
	return len(c.entries)
}

// Run executes every middleware supporting the request method. handled is
// true if a middleware answered the request, err is the first error of a
// middleware other than ErrHandled.
func (c *Chain) Run(req *proto.Request, res *proto.Response) (handled bool, err error) {
	for _, e := range c.entries {
		if !slices.Contains(e.mw.SupportedMethods(), req.Method()) {
			continue
		}

		err := e.execute(req, res)
		if errors.Is(err, ErrHandled) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
	}
	return false, nil
}
