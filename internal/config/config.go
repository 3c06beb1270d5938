// Package config loads server configuration in layers: struct defaults,
// then an optional YAML file, then SPATIX_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SPATIX_"

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	DataDir   string          `koanf:"data_dir"`
	Analyzer  AnalyzerConfig  `koanf:"analyzer"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       LogConfig       `koanf:"log"`
	DuckDB    DuckDBConfig    `koanf:"duckdb"`
}

type ServerConfig struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	PublicURL string `koanf:"public_url"` // base URL used in share and embed links
}

type AnalyzerConfig struct {
	URL string `koanf:"url"`
}

type RateLimitConfig struct {
	MapsPerHour int `koanf:"maps_per_hour"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "console" or "json"
}

type DuckDBConfig struct {
	Enabled bool   `koanf:"enabled"`
	DBName  string `koanf:"db_name"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8087,
		},
		DataDir: "./data",
		Analyzer: AnalyzerConfig{
			URL: "http://localhost:8808",
		},
		RateLimit: RateLimitConfig{
			MapsPerHour: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		DuckDB: DuckDBConfig{
			Enabled: true,
			DBName:  "spatix",
		},
	}
}

// Load builds the configuration. path names a YAML file; a missing file is
// not an error, the defaults and environment still apply.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !strings.Contains(err.Error(), "no such file") {
			return Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.RateLimit.MapsPerHour < 1 {
		return fmt.Errorf("rate_limit.maps_per_hour must be positive")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// PublicURL returns the externally visible base URL, falling back to
// host:port when none is configured.
func (c Config) PublicURL() string {
	if c.Server.PublicURL != "" {
		return strings.TrimRight(c.Server.PublicURL, "/")
	}
	host := c.Server.Host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}
