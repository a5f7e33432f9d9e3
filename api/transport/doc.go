// Package transport defines the interfaces between the mock server and the
// network. A transport only moves connections around: it accepts them, applies
// deadlines and limits, and hands each one to a ConnHandler. Reading and
// writing messages is up to the handler.
//
// Key Components:
//
//   - IServerTransport: accepts connections, one goroutine per connection,
//     optionally bounded, with graceful shutdown through a context.
//
//   - IClientTransport: opens one connection per exchange, as the server
//     closes every connection after one response.
//
// Implementations live in the tcp and unix packages, both built on base.
package transport
