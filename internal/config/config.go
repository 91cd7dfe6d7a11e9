package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "REWARDS_"

// Environment selects the rewards server deployment.
type Environment string

const (
	Production  Environment = "production"
	Staging     Environment = "staging"
	Development Environment = "development"
)

// Backend selects where state blobs are stored.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendPebble Backend = "pebble"
)

// Endpoints are the rewards server base URLs.
type Endpoints struct {
	Ledger    string `yaml:"ledger" env:"LEDGER"`
	Balance   string `yaml:"balance" env:"BALANCE"`
	Publisher string `yaml:"publisher" env:"PUBLISHER"`
}

// Intervals are the background refresh periods.
type Intervals struct {
	PublisherList time.Duration `yaml:"publisher_list" env:"PUBLISHER_LIST"`
	Grant         time.Duration `yaml:"grant" env:"GRANT"`
	Reconcile     time.Duration `yaml:"reconcile" env:"RECONCILE"`
}

// Config is the standalone host configuration.
type Config struct {
	Environment Environment   `yaml:"environment" env:"ENVIRONMENT"`
	Endpoints   Endpoints     `yaml:"endpoints" envPrefix:"ENDPOINT_"`
	DataDir     string        `yaml:"data_dir" env:"DATA_DIR"`
	BlobBackend Backend       `yaml:"blob_backend" env:"BLOB_BACKEND"`
	Intervals   Intervals     `yaml:"intervals" envPrefix:"INTERVAL_"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT"`
	LogLevel    string        `yaml:"log_level" env:"LOG_LEVEL"`
}

var endpointsByEnv = map[Environment]Endpoints{
	Production: {
		Ledger:    "https://ledger.mercury.basicattentiontoken.org",
		Balance:   "https://balance.mercury.basicattentiontoken.org",
		Publisher: "https://publishers.basicattentiontoken.org",
	},
	Staging: {
		Ledger:    "https://ledger-staging.mercury.basicattentiontoken.org",
		Balance:   "https://balance-staging.mercury.basicattentiontoken.org",
		Publisher: "https://publishers-staging.basicattentiontoken.org",
	},
	Development: {
		Ledger:    "http://localhost:3001",
		Balance:   "http://localhost:3002",
		Publisher: "http://localhost:3000",
	},
}

// Default returns the built-in configuration for env.
func Default(environment Environment) Config {
	return Config{
		Environment: environment,
		Endpoints:   endpointsByEnv[environment],
		DataDir:     ".rewards",
		BlobBackend: BackendSQLite,
		Intervals: Intervals{
			PublisherList: 72 * time.Hour,
			Grant:         24 * time.Hour,
			Reconcile:     30 * 24 * time.Hour,
		},
		HTTPTimeout: 30 * time.Second,
		LogLevel:    "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and the process environment, then validates it.
func Load(path string) (Config, error) {
	return load(path, os.Environ())
}

func load(path string, environ []string) (Config, error) {
	envMap := env.ToMap(environ)

	// The environment is resolved first so the right endpoint defaults
	// sit underneath the file and variable overrides.
	environment := Production
	var file []byte
	if path != "" {
		var err error
		file, err = os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var head struct {
			Environment Environment `yaml:"environment"`
		}
		if err := yaml.Unmarshal(file, &head); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if head.Environment != "" {
			environment = head.Environment
		}
	}
	if v, ok := envMap[EnvPrefix+"ENVIRONMENT"]; ok && v != "" {
		environment = Environment(v)
	}

	cfg := Default(environment)
	if file != nil {
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: envMap}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// document is the shape validated by schema.cue.
type document struct {
	Environment string `json:"environment"`
	DataDir     string `json:"data_dir"`
	BlobBackend string `json:"blob_backend"`
	LogLevel    string `json:"log_level"`
	Endpoints   struct {
		Ledger    string `json:"ledger"`
		Balance   string `json:"balance"`
		Publisher string `json:"publisher"`
	} `json:"endpoints"`
	Intervals struct {
		PublisherList int64 `json:"publisher_list"`
		Grant         int64 `json:"grant"`
		Reconcile     int64 `json:"reconcile"`
	} `json:"intervals"`
	HTTPTimeout int64 `json:"http_timeout"`
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks c against the embedded CUE schema.
func (c Config) Validate() error {
	var doc document
	doc.Environment = string(c.Environment)
	doc.DataDir = c.DataDir
	doc.BlobBackend = string(c.BlobBackend)
	doc.LogLevel = c.LogLevel
	doc.Endpoints.Ledger = c.Endpoints.Ledger
	doc.Endpoints.Balance = c.Endpoints.Balance
	doc.Endpoints.Publisher = c.Endpoints.Publisher
	doc.Intervals.PublisherList = int64(c.Intervals.PublisherList / time.Second)
	doc.Intervals.Grant = int64(c.Intervals.Grant / time.Second)
	doc.Intervals.Reconcile = int64(c.Intervals.Reconcile / time.Second)
	doc.HTTPTimeout = int64(c.HTTPTimeout / time.Second)

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := def.Unify(ctx.Encode(doc))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Seconds converts d to whole seconds for the engine.
func Seconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Second)
}
