package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"", zerolog.InfoLevel, false},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestConfigure_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "console")
	t.Setenv(EnvLogTimestamp, "false")

	cfg := Configure(ProfileRuntime)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level)
	assert.Equal(t, FormatConsole, cfg.Format)
	assert.False(t, cfg.Timestamp)
}

func TestConfigure_IgnoresGarbage(t *testing.T) {
	t.Setenv(EnvLogLevel, "very-loud")
	t.Setenv(EnvLogFormat, "xml")

	cfg := Configure(ProfileTest)
	assert.Equal(t, DefaultConfig(ProfileTest), cfg)
}

func TestNew_JSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: zerolog.InfoLevel, Format: FormatJSON, Out: &buf}, "factory")

	log.Info().Uint64("token", 3).Msg("instantiation issued")
	log.Debug().Msg("filtered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "factory", entry["component"])
	assert.Equal(t, "instantiation issued", entry["message"])
	assert.Equal(t, float64(3), entry["token"])
	assert.NotContains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: zerolog.InfoLevel, Format: FormatConsole, Out: &buf}, "host")

	log.Info().Str("unit", "u-1").Msg("unit committed")
	assert.Contains(t, buf.String(), "unit committed")
	assert.Contains(t, buf.String(), "unit=u-1")
}
