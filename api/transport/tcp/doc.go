// Package tcp provides the TCP connectors for the base transport. The server
// listens on host:port of the configuration.
package tcp
