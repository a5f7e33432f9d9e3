// Package server wires the mock server together: the transport accepts
// connections, every connection carries exactly one request, which runs
// through the middleware chain and the router. The response is written and
// the connection closed.
//
// Errors never escape a connection. Errors of the middlewares and handlers
// are converted with proto.Response.ApplyError, malformed requests are
// answered the same way. A connection closed before it sent anything gets no
// answer.
//
// Metrics of all layers (connections, requests per registered route, response status,
// durations) are recorded into one VictoriaMetrics set, which metrics routes
// expose. Timers for requests and store operations are kept in a go-metrics
// registry, which the serve command summarizes on shutdown.
package server
