// Package base implements the transport layer independent of the network
// protocol. The tcp and unix packages only add a connector that creates the
// listener or dials the endpoint.
//
// Server side:
//
//   - Every accepted connection runs in its own goroutine. With
//     max_connections set, a semaphore bounds the number of running
//     connections and further clients wait in the listen backlog.
//   - Reads and writes are bounded by the configured timeouts (renewed before
//     every Read and Write).
//   - A panic in the handler is recovered and logged, the connection is
//     closed in every case.
//   - Cancelling the context passed to Serve closes the listener. Serve
//     returns once all running connections are done.
//   - Accepted, active and panicked connections and the connection duration
//     are recorded in a VictoriaMetrics set.
//
// Client side: one connection per exchange, the server closes the connection
// after the response.
package base
