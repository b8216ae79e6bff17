// =============================================================================
// SKU Mapper - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration. A
// configuration file is optional: every setting has a default, and a handful
// of settings can be overridden from the environment (or a .env file).
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. config.yaml (or the file passed with --config)
//   3. Environment variables: MAPPER_ADDR, MAPPER_LLM_API_KEY, LOGLEVEL, ENV
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the global application configuration.
type Config struct {
	// Server contains settings for the web application.
	Server ServerConfig `yaml:"server"`

	// CSV contains settings for reading delimited uploads.
	CSV CSVSettings `yaml:"csv"`

	// Output contains settings for the combined table download and preview.
	Output OutputConfig `yaml:"output"`

	// LLM contains settings for the natural-language query delegate.
	LLM LLMConfig `yaml:"llm"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error", "disabled"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// Environment selects the log format. "production" logs JSON,
	// anything else logs to a human-readable console writer.
	// Default: "development"
	Environment string `yaml:"environment"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr"`

	// SessionTTL is how long a combined table stays available for
	// download, chart and query actions after an upload.
	// Default: 30m
	SessionTTL time.Duration `yaml:"session_ttl"`

	// MaxUploadMB caps the size of one multipart upload request.
	// Default: 32
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

// CSVSettings contains settings for parsing delimited files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" or "pipe", "\t" or "tab", ";"
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// LazyQuotes lets a quote appear in an unquoted field and a non-doubled
	// quote appear in a quoted field. Off by default so malformed files fail
	// loudly instead of being mapped from garbled cells.
	LazyQuotes bool `yaml:"lazy_quotes"`

	// TrimLeadingSpace ignores leading white space in a field.
	TrimLeadingSpace bool `yaml:"trim_leading_space"`
}

// OutputConfig holds the serializer and preview settings.
type OutputConfig struct {
	// BaseName is the download file name without extension.
	// Default: "mapped_sales"
	BaseName string `yaml:"base_name"`

	// Format is the default download format: "csv", "xlsx" or "xml".
	// Default: "csv"
	Format string `yaml:"format"`

	// PreviewRows is how many leading rows of the combined table are shown.
	// 0 disables the preview.
	// Default: 5
	PreviewRows int `yaml:"preview_rows"`
}

// LLMConfig holds the settings of the chat-completions endpoint used to
// answer questions about the combined table.
type LLMConfig struct {
	// Endpoint is the full chat-completions URL.
	// Default: "https://api.openai.com/v1/chat/completions"
	Endpoint string `yaml:"endpoint"`

	// Model is the model name sent with each request.
	// Default: "gpt-4o-mini"
	Model string `yaml:"model"`

	// Timeout bounds one request.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRows caps how many rows of the table are sent as context.
	// Default: 200
	MaxRows int `yaml:"max_rows"`

	// APIKey is a fallback credential used by the CLI when --api-key is not
	// given. It is only ever read from the environment.
	APIKey string `yaml:"-"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Output: OutputConfig{PreviewRows: defaultPreviewRows}}
	applyDefaults(cfg)
	return cfg
}

// Load loads the configuration from a YAML file, then applies defaults and
// environment overrides.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read, parsed or fails validation.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parse(data)
}

// LoadOptional behaves like Load but falls back to the defaults when the file
// does not exist. Any other read error is still returned.
func LoadOptional(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parse(data)
}

// defaultPreviewRows is set before decoding so that an explicit
// preview_rows: 0 is kept.
const defaultPreviewRows = 5

func parse(data []byte) (*Config, error) {
	cfg := Config{Output: OutputConfig{PreviewRows: defaultPreviewRows}}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}

	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}

	if cfg.Output.BaseName == "" {
		cfg.Output.BaseName = "mapped_sales"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "csv"
	}

	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.MaxRows == 0 {
		cfg.LLM.MaxRows = 200
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// It reports whether a file was loaded; a missing file is not an error.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// applyEnvOverrides copies the supported environment variables over the
// file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAPPER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MAPPER_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LOGLEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Environment = v
	}
}

// validate checks the configuration for values the application cannot run
// with.
func validate(cfg *Config) error {
	if _, err := cfg.CSV.Comma(); err != nil {
		return err
	}

	switch cfg.Output.Format {
	case "csv", "xlsx", "xml":
	default:
		return fmt.Errorf("output.format must be csv, xlsx or xml, got %q", cfg.Output.Format)
	}

	if cfg.Output.PreviewRows < 0 {
		return fmt.Errorf("output.preview_rows must not be negative")
	}
	if cfg.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	if cfg.Server.SessionTTL < 0 {
		return fmt.Errorf("server.session_ttl must not be negative")
	}
	if cfg.LLM.MaxRows < 0 {
		return fmt.Errorf("llm.max_rows must not be negative")
	}

	return nil
}

// Comma resolves the configured delimiter, including its named aliases, to
// the rune used by the CSV reader and writer.
func (s CSVSettings) Comma() (rune, error) {
	switch s.Delimiter {
	case "", ",", "comma":
		return ',', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}

	runes := []rune(s.Delimiter)
	if len(runes) != 1 {
		return 0, fmt.Errorf("csv.delimiter must be a single character, got %q", s.Delimiter)
	}
	if runes[0] == '"' || runes[0] == '\r' || runes[0] == '\n' {
		return 0, fmt.Errorf("csv.delimiter %q is not allowed", s.Delimiter)
	}
	return runes[0], nil
}
