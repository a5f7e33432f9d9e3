// Package client sends requests to a running mock server over TCP or a Unix
// socket. The server closes every connection after its response, so the
// client opens a new connection for every request.
//
// Usage:
//
//	c := client.NewClient(client.Config{Endpoint: "127.0.0.1:8080"})
//	res, err := c.Post("/users", "application/json", []byte(`{"id": 1}`))
package client
