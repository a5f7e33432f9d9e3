// Package cmd implements the command-line interface of mocker.
//
// The package is organized into several subpackages:
//
//   - workspace: the init command, which writes a default configuration
//   - serve: the serve command, which starts the mock server
//   - request: the request command, a small client for the wire protocol
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See mocker -help for a list of all commands.
package cmd
