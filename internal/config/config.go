// Package config loads factoryctl settings from a YAML or JSON file with
// FACTORY_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/roach88/factory/internal/logging"
)

// EnvPrefix prefixes every environment override. Nested keys are joined
// with a double underscore: FACTORY_LOG__LEVEL sets log.level.
const EnvPrefix = "FACTORY_"

const (
	DefaultDatabase     = "factory.db"
	DefaultPageLimitMax = 30
)

// Child address schemes.
const (
	AddressesDerived = "derived" // hash of factory, code id and token
	AddressesUUID    = "uuid"    // random
)

// Config is the factoryctl configuration.
type Config struct {
	Database     string        `json:"database"`
	Caller       string        `json:"caller"`
	PageLimitMax uint32        `json:"page_limit_max"`
	ExtraSchema  string        `json:"extra_schema"` // CUE file validating child extra data
	Addresses    string        `json:"address_scheme"`
	Log          LogConfig     `json:"log"`
	Metrics      MetricsConfig `json:"metrics"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type MetricsConfig struct {
	// Textfile is where the CLI writes Prometheus metrics after each
	// command, for the node exporter's textfile collector. Empty disables.
	Textfile string `json:"textfile"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Database:     DefaultDatabase,
		PageLimitMax: DefaultPageLimitMax,
		Addresses:    AddressesDerived,
		Log:          LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// Load reads path, applies environment overrides and defaults, and
// validates the result. An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps FACTORY_LOG__LEVEL to log.level.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills unset fields from Default.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.PageLimitMax == 0 {
		c.PageLimitMax = def.PageLimitMax
	}
	if c.Addresses == "" {
		c.Addresses = def.Addresses
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.New("config: database must not be empty")
	}
	if c.PageLimitMax == 0 {
		return errors.New("config: page_limit_max must be positive")
	}
	if c.Addresses != AddressesDerived && c.Addresses != AddressesUUID {
		return fmt.Errorf("config: unknown address_scheme %q", c.Addresses)
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	if _, ok := logging.ParseFormat(c.Log.Format); !ok {
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// Logging converts the log section into a logging.Config.
func (c *Config) Logging() logging.Config {
	out := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		out.Level = lvl
	}
	if f, ok := logging.ParseFormat(c.Log.Format); ok {
		out.Format = f
	}
	out.Timestamp = out.Format == logging.FormatJSON
	return out
}

// Verbose lowers the log level to debug.
func (c *Config) Verbose() {
	c.Log.Level = zerolog.DebugLevel.String()
}
