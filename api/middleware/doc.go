// Package middleware provides the interceptors that run before a request is
// dispatched.
//
// Middlewares are created by name from a Registry. NewDefaultRegistry knows
// the built-in ones:
//
//   - cors: sets Access-Control-Allow-Origin on every response and answers
//     preflight (OPTIONS) requests itself
//   - logger: logs every request
//   - metrics: counts requests and body sizes per method
//
// The server creates one instance per configured name and runs them through a
// Chain. An instance is shared by all connections, the Chain guards every
// instance with its own mutex, so Execute never runs concurrently for the same
// instance.
package middleware
