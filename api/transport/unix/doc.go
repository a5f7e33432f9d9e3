// Package unix provides the Unix domain socket connectors for the base
// transport. The server listens on the socket path of the configuration, a
// stale socket file is removed first.
package unix
