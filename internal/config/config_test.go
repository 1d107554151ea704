package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factory/internal/logging"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "factoryctl.yaml", `database: /var/lib/factory/state.db
caller: alice
page_limit_max: 50
extra_schema: extra.cue
address_scheme: uuid
log:
  level: debug
  format: json
metrics:
  textfile: /var/lib/node_exporter/factory.prom
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/factory/state.db", cfg.Database)
	assert.Equal(t, "alice", cfg.Caller)
	assert.Equal(t, uint32(50), cfg.PageLimitMax)
	assert.Equal(t, "extra.cue", cfg.ExtraSchema)
	assert.Equal(t, AddressesUUID, cfg.Addresses)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/var/lib/node_exporter/factory.prom", cfg.Metrics.Textfile)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "factoryctl.json", `{"database":"f.db","log":{"level":"warn"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "f.db", cfg.Database)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, logging.FormatConsole, cfg.Log.Format, "unset fields take defaults")
	assert.Equal(t, uint32(DefaultPageLimitMax), cfg.PageLimitMax)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "factoryctl.yaml", "database: file.db\ncaller: alice\n")
	t.Setenv("FACTORY_CALLER", "bob")
	t.Setenv("FACTORY_PAGE_LIMIT_MAX", "10")
	t.Setenv("FACTORY_LOG__LEVEL", "error")
	t.Setenv("FACTORY_METRICS__TEXTFILE", "/tmp/factory.prom")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file.db", cfg.Database)
	assert.Equal(t, "bob", cfg.Caller)
	assert.Equal(t, uint32(10), cfg.PageLimitMax)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/tmp/factory.prom", cfg.Metrics.Textfile)
}

func TestLoad_NestedEnvWithoutFile(t *testing.T) {
	t.Setenv("FACTORY_LOG__FORMAT", "json")
	t.Setenv("FACTORY_METRICS__TEXTFILE", "/tmp/env.prom")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, logging.FormatJSON, cfg.Log.Format)
	assert.Equal(t, "/tmp/env.prom", cfg.Metrics.Textfile)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, uint32(DefaultPageLimitMax), cfg.PageLimitMax)
	assert.Equal(t, AddressesDerived, cfg.Addresses)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"unsupported extension", "factoryctl.toml", "database = 'x'"},
		{"bad level", "factoryctl.yaml", "log:\n  level: loud\n"},
		{"bad format", "factoryctl.yaml", "log:\n  format: xml\n"},
		{"bad address scheme", "factoryctl.yaml", "address_scheme: sequential\n"},
		{"malformed yaml", "factoryctl.yaml", "database: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.data))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Database = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.PageLimitMax = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Addresses = "random"
	assert.Error(t, cfg.Validate())
}

func TestLogging(t *testing.T) {
	cfg := Default()
	lc := cfg.Logging()
	assert.Equal(t, zerolog.InfoLevel, lc.Level)
	assert.Equal(t, logging.FormatConsole, lc.Format)
	assert.False(t, lc.Timestamp)

	cfg.Log.Format = "json"
	cfg.Verbose()
	lc = cfg.Logging()
	assert.Equal(t, zerolog.DebugLevel, lc.Level)
	assert.True(t, lc.Timestamp)
}
