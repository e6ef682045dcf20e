package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// Config holds all tunable settings for the server and the index engine.
type Config struct {
	Index     Index     `toml:"index"`
	Discovery Discovery `toml:"discovery"`
	Server    Server    `toml:"server"`
}

// Index controls the eager-indexing budget applied at engine construction.
type Index struct {
	// MaxEagerFiles is the maximum number of files indexed at startup,
	// smallest first. Files beyond the budget are indexed lazily.
	MaxEagerFiles int `toml:"max_eager_files"`

	// MaxEagerBytes is the total-size threshold under which a project is
	// considered small enough to index in full at startup.
	MaxEagerBytes int64 `toml:"max_eager_bytes"`

	// Workers bounds the number of files parsed concurrently during the
	// eager phase. Zero means one worker per CPU.
	Workers int `toml:"workers"`
}

// Discovery controls which files the initial sweep enumerates.
type Discovery struct {
	// Exclude lists glob patterns matched against project-root-relative
	// paths; matching files are never discovered.
	Exclude []string `toml:"exclude"`
}

// Server holds MCP transport settings.
type Server struct {
	Transport string `toml:"transport"` // "stdio" or "http"
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index: Index{
			MaxEagerFiles: 200,
			MaxEagerBytes: 5_000_000,
		},
		Discovery: Discovery{
			Exclude: []string{
				"**/.venv/**",
				"**/__pycache__/**",
				"**/node_modules/**",
			},
		},
		Server: Server{
			Transport: TransportStdio,
			Host:      "0.0.0.0",
			Port:      8000,
		},
	}
}

// Load reads a TOML configuration file merged over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not accessible: %w", err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot honor.
func (c *Config) Validate() error {
	if c.Index.MaxEagerFiles < 0 {
		return fmt.Errorf("index.max_eager_files must be >= 0, got %d", c.Index.MaxEagerFiles)
	}
	if c.Index.MaxEagerBytes < 0 {
		return fmt.Errorf("index.max_eager_bytes must be >= 0, got %d", c.Index.MaxEagerBytes)
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be >= 0, got %d", c.Index.Workers)
	}

	for _, pattern := range c.Discovery.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("invalid discovery.exclude pattern %q: %w", pattern, err)
		}
	}

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("server.transport must be %q or %q, got %q",
			TransportStdio, TransportHTTP, c.Server.Transport)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}

	return nil
}

// CompileExcludes compiles the discovery exclude patterns. Validate must
// have accepted the configuration first.
func (c *Config) CompileExcludes() []glob.Glob {
	globs := make([]glob.Glob, 0, len(c.Discovery.Exclude))
	for _, pattern := range c.Discovery.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			continue
		}
		globs = append(globs, g)
	}
	return globs
}
