package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a TOML config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pylens.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestDefault verifies the built-in configuration validates and carries the
// standard indexing budget.
func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 200, cfg.Index.MaxEagerFiles)
	assert.Equal(t, int64(5_000_000), cfg.Index.MaxEagerBytes)
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.NotEmpty(t, cfg.Discovery.Exclude)
}

// TestLoad verifies file values merge over the defaults.
func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[index]
max_eager_files = 10
workers = 2

[server]
transport = "http"
port = 9001
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Index.MaxEagerFiles)
	assert.Equal(t, 2, cfg.Index.Workers)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, 9001, cfg.Server.Port)

	// Untouched sections keep their defaults.
	assert.Equal(t, int64(5_000_000), cfg.Index.MaxEagerBytes)
	assert.NotEmpty(t, cfg.Discovery.Exclude)
}

// TestLoadEmptyPath verifies an empty path returns the defaults.
func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoadMissingFile verifies a nonexistent config file is an error.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

// TestValidate exercises each rejection rule.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative max_eager_files", func(c *Config) { c.Index.MaxEagerFiles = -1 }},
		{"negative max_eager_bytes", func(c *Config) { c.Index.MaxEagerBytes = -1 }},
		{"negative workers", func(c *Config) { c.Index.Workers = -1 }},
		{"bad exclude glob", func(c *Config) { c.Discovery.Exclude = []string{"[unclosed"} }},
		{"unknown transport", func(c *Config) { c.Server.Transport = "carrier-pigeon" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestCompileExcludes verifies compiled patterns match path-style input.
func TestCompileExcludes(t *testing.T) {
	cfg := Default()
	globs := cfg.CompileExcludes()
	require.Len(t, globs, len(cfg.Discovery.Exclude))

	matched := false
	for _, g := range globs {
		if g.Match("src/__pycache__/mod.py") {
			matched = true
		}
	}
	assert.True(t, matched)
}
