package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/store/fstore"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding configuration keys
const EnvPrefix = "mocker"

// Workspace is a configuration file together with the configuration it holds
type Workspace struct {
	Path   string
	Config ServerConfig
}

// configFormat returns the format of a configuration file, only textual
// formats viper can read are accepted
func configFormat(path string) (format.IFormat, error) {
	f, err := format.ByPath(path)
	if err != nil {
		return nil, NewIOError("unknown config format", err)
	}
	if !f.Textual() {
		return nil, NewIOError(fmt.Sprintf("%s: %s cannot be used for configuration files", path, f.Name()), nil)
	}
	return f, nil
}

// NewConfigViper creates a viper instance with all defaults and environment
// overrides (MOCKER_<KEY>) registered. Callers may bind command line flags to
// it before calling LoadWorkspace.
func NewConfigViper() *viper.Viper {
	v := viper.New()
	d := DefaultServerConfig()
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("socket", d.Socket)
	v.SetDefault("format", d.Format)
	v.SetDefault("framing", d.Framing)
	v.SetDefault("max_message_bytes", d.MaxMessageBytes)
	v.SetDefault("read_timeout", d.ReadTimeoutSecond)
	v.SetDefault("write_timeout", d.WriteTimeoutSecond)
	v.SetDefault("max_connections", d.MaxConnections)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("middlewares", d.Middlewares)
	v.SetDefault("routes", d.Routes)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadWorkspace reads the configuration file at path through v.
// Precedence of values: flags bound to v, environment, file, defaults.
func LoadWorkspace(v *viper.Viper, path string) (*Workspace, error) {
	f, err := configFormat(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, NewIOError(fmt.Sprintf("%s does not exist, run 'mocker init' first", path), nil)
	}

	v.SetConfigFile(path)
	v.SetConfigType(f.Name())
	if err := v.ReadInConfig(); err != nil {
		return nil, NewParseError(fmt.Sprintf("cannot read %s", path), err)
	}

	conf := DefaultServerConfig()
	if err := v.Unmarshal(&conf); err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid configuration in %s", path), err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewIOError("cannot resolve config path", err)
	}
	conf.BaseDir = filepath.Dir(abs)

	if err := conf.Validate(); err != nil {
		return nil, NewParseError(path, err)
	}
	return &Workspace{Path: abs, Config: conf}, nil
}

// DefaultWorkspaceConfig returns the configuration written by CreateWorkspace:
// the defaults plus one example store route whose file uses ext
func DefaultWorkspaceConfig(ext string) ServerConfig {
	conf := DefaultServerConfig()
	conf.Routes = []RouteConfig{
		{
			Methods:  []string{"GET", "POST"},
			Endpoint: "/users",
			Kind: RouteKindConfig{
				Type:       RouteKindStore,
				Path:       "users." + ext,
				Identifier: "id",
			},
		},
	}
	return conf
}

// CreateWorkspace writes the default configuration to path, in the format
// implied by its extension, together with an empty store file for the example
// route. It fails if path already exists.
func CreateWorkspace(path string) (*Workspace, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, NewIOError(fmt.Sprintf("%s: workspace already initialized", path), nil)
	}
	f, err := configFormat(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewIOError("cannot resolve config path", err)
	}
	conf := DefaultWorkspaceConfig(f.Extensions()[0])
	conf.BaseDir = filepath.Dir(abs)

	data, err := f.Marshal(&conf)
	if err != nil {
		return nil, Wrap(KindUnknown, err, "cannot encode default configuration")
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return nil, NewIOError(fmt.Sprintf("cannot write %s", path), err)
	}

	// create the (empty) store files of the example routes, existing files are kept
	for _, route := range conf.Routes {
		storePath := conf.ResolvePath(route.Kind.Path)
		if _, err := os.Stat(storePath); err == nil {
			continue
		}
		s, err := fstore.NewFileStore(storePath, route.Kind.Identifier, nil)
		if err != nil {
			return nil, Classify(err)
		}
		if err := s.Save(); err != nil {
			return nil, Classify(err)
		}
	}

	return &Workspace{Path: abs, Config: conf}, nil
}
