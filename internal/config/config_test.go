package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.Equal(t, "mapped_sales", cfg.Output.BaseName)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 5, cfg.Output.PreviewRows)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadParsesFileAndKeepsDefaults(t *testing.T) {
	t.Setenv("MAPPER_ADDR", "")
	t.Setenv("LOGLEVEL", "")
	path := writeConfig(t, `
server:
  addr: ":9000"
  session_ttl: 5m
csv:
  delimiter: pipe
output:
  format: xlsx
llm:
  timeout: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 200, cfg.LLM.MaxRows)

	comma, err := cfg.CSV.Comma()
	require.NoError(t, err)
	assert.Equal(t, '|', comma)
}

func TestLoadPreviewRows(t *testing.T) {
	cfg, err := Load(writeConfig(t, "output:\n  preview_rows: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Output.PreviewRows)

	cfg, err = Load(writeConfig(t, "output:\n  format: xml\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Output.PreviewRows)

	cfg, err = Load(writeConfig(t, "output:\n  preview_rows: 12\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Output.PreviewRows)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadOptionalMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MAPPER_ADDR", "")
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAPPER_ADDR", "127.0.0.1:7000")
	t.Setenv("MAPPER_LLM_API_KEY", "sk-test")
	t.Setenv("LOGLEVEL", "DEBUG")
	t.Setenv("ENV", "production")

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad format", "output:\n  format: json\n"},
		{"long delimiter", "csv:\n  delimiter: ab\n"},
		{"quote delimiter", "csv:\n  delimiter: '\"'\n"},
		{"negative preview", "output:\n  preview_rows: -1\n"},
		{"malformed yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestCommaAliases(t *testing.T) {
	cases := map[string]rune{
		"":          ',',
		",":         ',',
		"tab":       '\t',
		"\\t":       '\t',
		";":         ';',
		"semicolon": ';',
		"~":         '~',
	}
	for delimiter, want := range cases {
		got, err := CSVSettings{Delimiter: delimiter}.Comma()
		require.NoError(t, err, delimiter)
		assert.Equal(t, want, got, delimiter)
	}
}
