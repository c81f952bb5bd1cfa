package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "infinity.yml"

	DefaultAddr         = "127.0.0.1:8080"
	DefaultBasePath     = "/v0"
	DefaultGraphQLURL   = "/graphql"
	DefaultBaseURL      = "http://localhost:3000"
	DefaultRunLimit     = 10
	DefaultPollInterval = 3 * time.Second
	DefaultTimeout      = 15 * time.Second
	DefaultLogLevel     = "info"
	DefaultReportSeed   = 42
)

// Environment variables consulted for the Dagster endpoint, in order.
var (
	GraphQLURLEnv = []string{"REACT_APP_DAGSTER_GRAPHQL_URL", "DAGSTER_GRAPHQL_URL"}
	TokenEnv      = []string{"REACT_APP_DAGSTER_API_TOKEN", "DAGSTER_API_TOKEN"}
)

// Config models infinity.yml. Ambient settings follow the cleanenv rules:
// environment over file over env-default. The Dagster URL and token carry no
// env tags; Resolve applies their own precedence.
type Config struct {
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
	Dagster   Dagster   `yaml:"dagster"`
	Auth      Auth      `yaml:"auth"`
	Reporting Reporting `yaml:"reporting"`
}

type Server struct {
	Addr        string   `yaml:"addr" env:"INFINITY_ADDR" env-default:"127.0.0.1:8080"`
	BasePath    string   `yaml:"base_path" env:"INFINITY_BASE_PATH" env-default:"/v0"`
	CORSOrigins []string `yaml:"cors_origins" env:"INFINITY_CORS_ORIGINS" env-separator:","`
}

type Log struct {
	Level string `yaml:"level" env:"INFINITY_LOG_LEVEL" env-default:"info"`
	JSON  bool   `yaml:"json" env:"INFINITY_LOG_JSON"`
}

type Dagster struct {
	GraphQLURL string `yaml:"graphql_url,omitempty"`
	APIToken   string `yaml:"api_token,omitempty"`
	BaseURL    string `yaml:"base_url" env:"INFINITY_DAGSTER_BASE_URL" env-default:"http://localhost:3000"`
	RunLimit   int    `yaml:"run_limit" env:"INFINITY_RUN_LIMIT" env-default:"10"`
	// DisableFallback turns off mock data when the initial load fails. An
	// absent key keeps the fallback on.
	DisableFallback bool          `yaml:"disable_fallback" env:"INFINITY_DISABLE_FALLBACK"`
	PollInterval    time.Duration `yaml:"poll_interval" env:"INFINITY_POLL_INTERVAL" env-default:"3s"`
	Timeout         time.Duration `yaml:"timeout" env:"INFINITY_DAGSTER_TIMEOUT" env-default:"15s"`
}

func (d Dagster) UseMockIfFailed() bool { return !d.DisableFallback }

type Auth struct {
	// JWTSecret enables reviewer identity from bearer tokens when set.
	JWTSecret string `yaml:"jwt_secret,omitempty" env:"INFINITY_JWT_SECRET"`
}

type Reporting struct {
	Seed uint64 `yaml:"seed" env:"INFINITY_REPORT_SEED" env-default:"42"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: Server{Addr: DefaultAddr, BasePath: DefaultBasePath},
		Log:    Log{Level: DefaultLogLevel},
		Dagster: Dagster{
			BaseURL:      DefaultBaseURL,
			RunLimit:     DefaultRunLimit,
			PollInterval: DefaultPollInterval,
			Timeout:      DefaultTimeout,
		},
		Reporting: Reporting{Seed: DefaultReportSeed},
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Load reads path when it exists and the environment otherwise.
func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadWorkspace loads the config file of a workspace.
func LoadWorkspace(workspace string) (Config, error) {
	return Load(Path(workspace))
}

func (c Config) Validate() error {
	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		return errors.Newf("config.log.level %q is not a log level", c.Log.Level)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return errors.Newf("config.server.base_path must start with /, got %q", c.Server.BasePath)
	}
	if c.Dagster.RunLimit <= 0 {
		return errors.Newf("config.dagster.run_limit must be positive, got %d", c.Dagster.RunLimit)
	}
	if c.Dagster.PollInterval <= 0 {
		return errors.New("config.dagster.poll_interval must be positive")
	}
	return nil
}

// Overrides are values given explicitly on the command line or per request.
type Overrides struct {
	GraphQLURL string
	APIToken   string
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Endpoint is the resolved Dagster endpoint.
type Endpoint struct {
	GraphQLURL string
	APIToken   string
	BaseURL    string
}

// Resolve picks the GraphQL URL and token: explicit override, then the
// config file, then the first set environment variable, then the default.
func (c Config) Resolve(o Overrides, lookup LookupFunc) Endpoint {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return Endpoint{
		GraphQLURL: pick(o.GraphQLURL, c.Dagster.GraphQLURL, lookup, GraphQLURLEnv, DefaultGraphQLURL),
		APIToken:   pick(o.APIToken, c.Dagster.APIToken, lookup, TokenEnv, ""),
		BaseURL:    c.Dagster.BaseURL,
	}
}

// AbsoluteGraphQLURL resolves a relative GraphQL URL against BaseURL.
func (e Endpoint) AbsoluteGraphQLURL() (string, error) {
	u, err := url.Parse(e.GraphQLURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse graphql url %q", e.GraphQLURL)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	base, err := url.Parse(e.BaseURL)
	if err != nil || !base.IsAbs() {
		return "", errors.Newf("relative graphql url %q needs an absolute dagster.base_url, got %q", e.GraphQLURL, e.BaseURL)
	}
	return base.ResolveReference(u).String(), nil
}

func pick(explicit, file string, lookup LookupFunc, keys []string, def string) string {
	if explicit != "" {
		return explicit
	}
	if file != "" {
		return file
	}
	for _, k := range keys {
		if v, ok := lookup(k); ok && v != "" {
			return v
		}
	}
	return def
}

// GenerateDefault renders the default config as YAML.
func GenerateDefault() (string, error) {
	var buf strings.Builder
	buf.WriteString("# infinity workbench configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return "", errors.Wrap(err, "render default config")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "render default config")
	}
	return buf.String(), nil
}

// Write stores the default config in the workspace unless one exists.
func Write(workspace string, force bool) (string, error) {
	path := Path(workspace)
	if _, err := os.Stat(path); err == nil && !force {
		return path, errors.Newf("config %s already exists; pass --force to overwrite", path)
	}
	data, err := GenerateDefault()
	if err != nil {
		return path, err
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return path, errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}
