package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/askthatman/dividend/internal/importer"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "dividend.yaml"

// Environment variables that override the config file.
const (
	EnvAddr     = "DIVIDEND_ADDR"
	EnvLogLevel = "DIVIDEND_LOG_LEVEL"
	EnvBank     = "DIVIDEND_BANK"
)

// Config represents the top-level dividend.yaml configuration.
type Config struct {
	Banks  BanksConfig  `yaml:"banks"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// BanksConfig selects the default bank and per-bank date layouts.
type BanksConfig struct {
	Default     string            `yaml:"default"`
	DateLayouts map[string]string `yaml:"date_layouts,omitempty"` // Go time layouts keyed by bank id
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	RequestLog     bool   `yaml:"request_log"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Load reads a dividend.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Banks: BanksConfig{
			Default: string(importer.BankHDFC),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
			RequestLog:     true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyEnv loads envFile if it exists and overrides cfg from the environment.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if v, ok := os.LookupEnv(EnvAddr); ok {
		cfg.Server.Addr = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvBank); ok {
		cfg.Banks.Default = v
	}
	return nil
}

// Layouts returns the configured date layouts keyed by bank.
func (c *Config) Layouts() (map[importer.Bank]string, error) {
	layouts := make(map[importer.Bank]string, len(c.Banks.DateLayouts))
	for id, layout := range c.Banks.DateLayouts {
		bank, err := importer.ParseBank(id)
		if err != nil {
			return nil, fmt.Errorf("date_layouts: %w", err)
		}
		layouts[bank] = layout
	}
	return layouts, nil
}

// Logger builds a slog.Logger writing to w.
func (c LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}
}
