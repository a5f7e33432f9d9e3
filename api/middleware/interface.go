package middleware

import (
	"errors"

	"github.com/ValentinKolb/mocker/api/proto"
)

// ErrHandled is returned by a middleware that answered the request itself.
// The chain stops and the request is not dispatched, the response is written
// as it is.
var ErrHandled = errors.New("request handled by middleware")

// Middleware intercepts requests before they are dispatched. A middleware
// instance is shared by all connections, the Chain serializes calls to
// Execute per instance.
type Middleware interface {
	// Name returns the name the middleware is registered under
	Name() string

	// SupportedMethods returns the request methods the middleware runs for
	SupportedMethods() []proto.Method

	// Execute inspects req and may modify res. Returning ErrHandled stops the
	// chain, any other error is converted into the response.
	Execute(req *proto.Request, res *proto.Response) error
}

// Factory creates a new middleware instance
type Factory func() (Middleware, error)
