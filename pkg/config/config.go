// Package config loads menugate settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the service configuration.
type Config struct {
	Port            int           `env:"PORT"             envDefault:"9876"`
	Source          string        `env:"SOURCE"`
	SourceToken     string        `env:"SOURCE_TOKEN"`
	CacheTTL        time.Duration `env:"CACHE_TTL"        envDefault:"30s"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT"    envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// LogLevel is applied by serve unless --log-level is given. Empty keeps
	// the level taken from LOG_LEVEL.
	LogLevel string `env:"LOG_LEVEL"`
}

// Prefix is prepended to every variable name.
const Prefix = "MENUGATE_"

// ErrNoSource is returned by Validate when no menu source is configured.
var ErrNoSource = errors.New("menu source is required")

// Load reads the configuration from MENUGATE_* environment variables.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads the configuration from the given variables instead of the
// process environment. A nil map reads the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config

	opts := env.Options{Prefix: Prefix}
	if vars != nil {
		opts.Environment = vars
	}

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings needed to serve.
func (c Config) Validate() error {
	var errs []error

	if c.Source == "" {
		errs = append(errs, ErrNoSource)
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl %s is negative", c.CacheTTL))
	}

	return errors.Join(errs...)
}
