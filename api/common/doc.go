// Package common provides the data structures and utilities shared across the
// api packages of mocker.
//
// The package focuses on:
//   - Configuration structures for the server and its routes
//   - Loading and creating workspaces (a configuration file plus its stores)
//   - The error type every request path converts its failures into
//   - Custom logging implementation integrated with Dragonboat's logger package
//
// Key Components:
//
//   - ServerConfig / RouteConfig: The complete server configuration. Loaded
//     from JSON, TOML or YAML files through viper, with MOCKER_ prefixed
//     environment variables and bound command line flags taking precedence.
//
//   - Workspace: A loaded configuration file. Relative store paths are
//     resolved against the directory of the file.
//
//   - Error: Error kinds (i/o, sync, parse, api, unknown). API errors carry the
//     response status. Classify maps errors of the lib packages onto kinds.
//
//   - Logger: Leveled loggers with the format "LEVEL | name | message".
//     InitLoggers installs the factory and sets the level of all mocker loggers.
package common
