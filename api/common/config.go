package common

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/mocker/lib/format"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// ConfigName is the default name of the configuration file
const ConfigName = "mocker.json"

const (
	TransportTCP  = "tcp"
	TransportUnix = "unix"
)

const (
	// FramingContentLength reads the head of a message up to the blank line
	// and then exactly Content-Length body bytes
	FramingContentLength = "content-length"
	// FramingBlock reads 255 byte blocks until a short block arrives
	FramingBlock = "block"
)

const (
	RouteKindStore   = "store"
	RouteKindScript  = "script"
	RouteKindMetrics = "metrics"
)

// --------------------------------------------------------------------------
// Route configuration
// --------------------------------------------------------------------------

// RouteKindConfig describes what serves a route. Which fields are used depends
// on Type.
type RouteKindConfig struct {
	Type string `mapstructure:"type" json:"type" yaml:"type" toml:"type"`

	// store routes
	Path       string `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Identifier string `mapstructure:"identifier" json:"identifier,omitempty" yaml:"identifier,omitempty" toml:"identifier,omitempty"`
	Format     string `mapstructure:"format" json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`

	// script routes
	Script string `mapstructure:"script" json:"script,omitempty" yaml:"script,omitempty" toml:"script,omitempty"`
	Func   string `mapstructure:"func" json:"func,omitempty" yaml:"func,omitempty" toml:"func,omitempty"`
}

// RouteConfig binds a set of methods at an endpoint to a route kind
type RouteConfig struct {
	Methods  []string        `mapstructure:"methods" json:"methods" yaml:"methods" toml:"methods"`
	Endpoint string          `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Kind     RouteKindConfig `mapstructure:"kind" json:"kind" yaml:"kind" toml:"kind"`
}

// Validate checks that the route is complete
func (r *RouteConfig) Validate() error {
	if !strings.HasPrefix(r.Endpoint, "/") {
		return fmt.Errorf("route '%s': endpoint must start with '/'", r.Endpoint)
	}
	if len(r.Methods) == 0 {
		return fmt.Errorf("route '%s': no methods given", r.Endpoint)
	}
	switch strings.ToLower(r.Kind.Type) {
	case RouteKindStore:
		if r.Kind.Path == "" {
			return fmt.Errorf("route '%s': store routes need a path", r.Endpoint)
		}
		if r.Kind.Identifier == "" {
			return fmt.Errorf("route '%s': store routes need an identifier", r.Endpoint)
		}
		if r.Kind.Format != "" {
			if _, err := format.ByName(r.Kind.Format); err != nil {
				return fmt.Errorf("route '%s': %w", r.Endpoint, err)
			}
		}
	case RouteKindScript:
		if r.Kind.Script == "" || r.Kind.Func == "" {
			return fmt.Errorf("route '%s': script routes need a script and a func", r.Endpoint)
		}
	case RouteKindMetrics:
	default:
		return fmt.Errorf("route '%s': unknown route kind '%s' (expected one of: store, script, metrics)", r.Endpoint, r.Kind.Type)
	}
	return nil
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the mock server
type ServerConfig struct {
	// Listener
	Host      string `mapstructure:"host" json:"host" yaml:"host" toml:"host"`
	Port      int    `mapstructure:"port" json:"port" yaml:"port" toml:"port"`
	Transport string `mapstructure:"transport" json:"transport" yaml:"transport" toml:"transport"`
	Socket    string `mapstructure:"socket" json:"socket,omitempty" yaml:"socket,omitempty" toml:"socket,omitempty"`

	// Messages
	Format          string `mapstructure:"format" json:"format" yaml:"format" toml:"format"`
	Framing         string `mapstructure:"framing" json:"framing" yaml:"framing" toml:"framing"`
	MaxMessageBytes int    `mapstructure:"max_message_bytes" json:"max_message_bytes" yaml:"max_message_bytes" toml:"max_message_bytes"`

	// Connections
	ReadTimeoutSecond  int `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeoutSecond int `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
	MaxConnections     int `mapstructure:"max_connections" json:"max_connections" yaml:"max_connections" toml:"max_connections"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level" toml:"log_level"`

	Middlewares []string      `mapstructure:"middlewares" json:"middlewares" yaml:"middlewares" toml:"middlewares"`
	Routes      []RouteConfig `mapstructure:"routes" json:"routes" yaml:"routes" toml:"routes"`

	// BaseDir is the directory relative store paths are resolved against,
	// the directory of the configuration file
	BaseDir string `mapstructure:"-" json:"-" yaml:"-" toml:"-"`
}

// DefaultServerConfig returns the configuration used for every unset key
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:               "127.0.0.1",
		Port:               8080,
		Transport:          TransportTCP,
		Format:             "json",
		Framing:            FramingContentLength,
		MaxMessageBytes:    1 << 20,
		ReadTimeoutSecond:  30,
		WriteTimeoutSecond: 30,
		MaxConnections:     0,
		LogLevel:           "info",
		Middlewares:        []string{},
		Routes:             []RouteConfig{},
	}
}

// Validate checks the configuration for invalid values
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Transport {
	case TransportTCP:
		if net.ParseIP(c.Host) == nil && c.Host != "localhost" {
			return fmt.Errorf("invalid host '%s' (expected an ip address)", c.Host)
		}
	case TransportUnix:
		if c.Socket == "" {
			return fmt.Errorf("the unix transport needs a socket path")
		}
	default:
		return fmt.Errorf("invalid transport '%s' (expected one of: tcp, unix)", c.Transport)
	}
	if f, err := format.ByName(c.Format); err != nil || !f.Textual() {
		return fmt.Errorf("invalid payload format '%s' (expected one of: json, toml, yaml)", c.Format)
	}
	switch c.Framing {
	case FramingContentLength, FramingBlock:
	default:
		return fmt.Errorf("invalid framing '%s' (expected one of: content-length, block)", c.Framing)
	}
	if c.MaxMessageBytes < 0 || c.ReadTimeoutSecond < 0 || c.WriteTimeoutSecond < 0 || c.MaxConnections < 0 {
		return fmt.Errorf("limits and timeouts must not be negative")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	for i := range c.Routes {
		if err := c.Routes[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Endpoint returns the address the server listens on
func (c *ServerConfig) Endpoint() string {
	if c.Transport == TransportUnix {
		return c.Socket
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ResolvePath resolves a path from the configuration against BaseDir
func (c *ServerConfig) ResolvePath(path string) string {
	if filepath.IsAbs(path) || c.BaseDir == "" {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}

// ReadTimeout returns the time limit for reading a whole request, zero means none
func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSecond) * time.Second
}

// WriteTimeout returns the write deadline per connection, zero means none
func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSecond) * time.Second
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	limit := func(n int, unit string) string {
		if n == 0 {
			return "none"
		}
		return fmt.Sprintf("%d %s", n, unit)
	}

	addSection("Server")
	addField("Endpoint", c.Endpoint())
	addField("Transport", c.Transport)
	addField("Framing", c.Framing)
	addField("Payload Format", c.Format)
	addField("Max Message Size", limit(c.MaxMessageBytes, "bytes"))
	addField("Max Connections", limit(c.MaxConnections, "connections"))
	addField("Read Timeout", limit(c.ReadTimeoutSecond, "sec"))
	addField("Write Timeout", limit(c.WriteTimeoutSecond, "sec"))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Middlewares")
	if len(c.Middlewares) == 0 {
		addField("-", "none")
	}
	for i, mw := range c.Middlewares {
		addField(strconv.Itoa(i), mw)
	}

	return sb.String()
}
